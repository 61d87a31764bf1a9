package state

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vthunder/taskly/internal/identity"
	"github.com/vthunder/taskly/internal/reminder"
	"github.com/vthunder/taskly/internal/store"
	"github.com/vthunder/taskly/internal/task"
)

const activityLog = "system/activity.jsonl"

// Inspector provides state introspection across every namespace in a store,
// without going through a Repository (so nothing is repaired or rewritten).
type Inspector struct {
	statePath string
	store     store.Store
	loc       *time.Location
}

// NewInspector creates a new state inspector
func NewInspector(statePath string, s store.Store, loc *time.Location) *Inspector {
	if loc == nil {
		loc = time.Local
	}
	return &Inspector{statePath: statePath, store: s, loc: loc}
}

// NamespaceSummary holds the counts for one identity.
type NamespaceSummary struct {
	Namespace    string   `json:"namespace"`
	Active       int      `json:"active"`
	Pending      int      `json:"pending"`
	Completed    int      `json:"completed"`
	Archived     int      `json:"archived"`
	ArchiveBytes int      `json:"archive_bytes"`
	Reminders    int      `json:"reminders"`
	Corrupt      []string `json:"corrupt,omitempty"` // keys that failed to parse
}

// StateSummary holds summary of all state
type StateSummary struct {
	Current    string             `json:"current"`
	Namespaces []NamespaceSummary `json:"namespaces"`
	Activity   int                `json:"activity_entries"`
}

// HealthReport holds health check results
type HealthReport struct {
	Status          string   `json:"status"` // "healthy", "warnings", "issues"
	Warnings        []string `json:"warnings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Summary returns a summary of all state components
func (i *Inspector) Summary() (*StateSummary, error) {
	namespaces, err := identity.Namespaces(i.store)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	summary := &StateSummary{
		Current:    identity.Namespace(identity.StoreProvider{Store: i.store}.CurrentIdentity().Email),
		Namespaces: []NamespaceSummary{},
		Activity:   i.countJSONL(activityLog),
	}
	for _, ns := range namespaces {
		summary.Namespaces = append(summary.Namespaces, i.summarize(ns))
	}
	return summary, nil
}

func (i *Inspector) summarize(ns string) NamespaceSummary {
	keys := identity.KeysForNamespace(ns)
	out := NamespaceSummary{Namespace: ns}

	active, ok := i.loadTasks(keys.Tasks)
	if !ok {
		out.Corrupt = append(out.Corrupt, keys.Tasks)
	}
	stats := task.CountStats(active)
	out.Active, out.Pending, out.Completed = stats.Total, stats.Pending, stats.Completed

	archive, ok := i.loadTasks(keys.Archive)
	if !ok {
		out.Corrupt = append(out.Corrupt, keys.Archive)
	}
	out.Archived = len(archive)
	if data, found, _ := i.store.Get(keys.Archive); found {
		out.ArchiveBytes = len(data)
	}

	index, ok := i.loadIndex(keys.Reminders)
	if !ok {
		out.Corrupt = append(out.Corrupt, keys.Reminders)
	}
	out.Reminders = len(index)
	return out
}

// Health runs health checks and returns a report
func (i *Inspector) Health(retention time.Duration, now time.Time) (*HealthReport, error) {
	report := &HealthReport{Status: "healthy"}

	summary, err := i.Summary()
	if err != nil {
		return nil, err
	}

	issues := false
	for _, ns := range summary.Namespaces {
		for _, key := range ns.Corrupt {
			issues = true
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: unreadable data in %s (treated as empty)", ns.Namespace, key))
			report.Recommendations = append(report.Recommendations, fmt.Sprintf("Inspect or delete %s; the next write replaces it", key))
		}

		keys := identity.KeysForNamespace(ns.Namespace)
		active, _ := i.loadTasks(keys.Tasks)
		stored, _ := i.loadIndex(keys.Reminders)
		if drift := indexDrift(stored, reminder.RebuildIndex(active, i.loc)); drift != "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: reminder index out of date (%s)", ns.Namespace, drift))
			report.Recommendations = append(report.Recommendations, "Run rebuild-reminders")
		}

		if retention > 0 {
			archive, _ := i.loadTasks(keys.Archive)
			if n := expired(archive, retention, now); n > 0 {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %d archived tasks older than %v", ns.Namespace, n, retention))
				report.Recommendations = append(report.Recommendations, "Run purge-archive")
			}
		}
	}

	if summary.Activity > 10000 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Large activity log: %d entries", summary.Activity))
		report.Recommendations = append(report.Recommendations, "Consider truncating old activity entries")
	}

	switch {
	case issues:
		report.Status = "issues"
	case len(report.Warnings) > 0:
		report.Status = "warnings"
	}
	return report, nil
}

// indexDrift describes how stored differs from want, or "" if they match.
func indexDrift(stored, want []reminder.Entry) string {
	if len(stored) != len(want) {
		return fmt.Sprintf("%d stored, %d expected", len(stored), len(want))
	}
	for k := range want {
		if stored[k] != want[k] {
			return fmt.Sprintf("entry %d differs", k)
		}
	}
	return ""
}

func expired(archive []task.Task, retention time.Duration, now time.Time) int {
	n := 0
	for _, t := range archive {
		if at, ok := t.State.ArchivedAt(); ok && now.Sub(at) > retention {
			n++
		}
	}
	return n
}

// Tasks returns the stored lists of one namespace as they are on disk.
func (i *Inspector) Tasks(ns string) (active, archive []task.Task) {
	keys := identity.KeysForNamespace(ns)
	active, _ = i.loadTasks(keys.Tasks)
	archive, _ = i.loadTasks(keys.Archive)
	return active, archive
}

// Reminders returns the stored Reminder index of one namespace.
func (i *Inspector) Reminders(ns string) []reminder.Entry {
	index, _ := i.loadIndex(identity.KeysForNamespace(ns).Reminders)
	return index
}

// TailLogs returns the last count activity entries
func (i *Inspector) TailLogs(count int) ([]map[string]any, error) {
	return i.tailJSONL(activityLog, count), nil
}

// TruncateLogs keeps only the last keep activity entries
func (i *Inspector) TruncateLogs(keep int) error {
	return i.truncateJSONL(activityLog, keep)
}

// loadTasks reports ok=false when the key exists but does not parse.
func (i *Inspector) loadTasks(key string) ([]task.Task, bool) {
	tasks := []task.Task{}
	data, found, err := i.store.Get(key)
	if err != nil || !found {
		return tasks, err == nil
	}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return []task.Task{}, false
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, true
}

func (i *Inspector) loadIndex(key string) ([]reminder.Entry, bool) {
	index := []reminder.Entry{}
	data, found, err := i.store.Get(key)
	if err != nil || !found {
		return index, err == nil
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return []reminder.Entry{}, false
	}
	if index == nil {
		index = []reminder.Entry{}
	}
	return index, true
}

func (i *Inspector) countJSONL(name string) int {
	path := filepath.Join(i.statePath, name)
	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(strings.TrimSpace(scanner.Text())) > 0 {
			count++
		}
	}
	return count
}

func (i *Inspector) tailJSONL(name string, count int) []map[string]any {
	path := filepath.Join(i.statePath, name)
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}

	// Take last N
	if len(lines) > count {
		lines = lines[len(lines)-count:]
	}

	var result []map[string]any
	for _, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			result = append(result, entry)
		}
	}
	return result
}

func (i *Inspector) truncateJSONL(name string, keep int) error {
	path := filepath.Join(i.statePath, name)
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	file.Close()

	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	if len(lines) == 0 {
		return os.WriteFile(path, nil, 0644)
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}
