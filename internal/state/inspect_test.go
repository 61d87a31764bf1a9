package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vthunder/taskly/internal/clock"
	"github.com/vthunder/taskly/internal/identity"
	"github.com/vthunder/taskly/internal/reminder"
	"github.com/vthunder/taskly/internal/store"
	"github.com/vthunder/taskly/internal/task"
)

var now = time.Date(2025, 4, 30, 12, 0, 0, 0, time.UTC)

func intPtr(n int) *int { return &n }

// setupTestState writes one healthy namespace through the real repository.
func setupTestState(t *testing.T) (*store.Memory, *task.Repository) {
	t.Helper()
	s := store.NewMemory()
	id := identity.Static{Email: "a@x.com"}
	c := clock.NewFake(now)
	sched := reminder.NewScheduler(reminder.Config{Clock: c, Store: s, Identity: id, Location: time.UTC})
	repo := task.NewRepository(s, id, task.WithClock(c), task.WithLocation(time.UTC), task.WithResyncer(sched))

	for _, title := range []string{"Pay rent", "Stretch"} {
		_, err := repo.Create(task.Fields{
			Title:          title,
			Description:    "details",
			Date:           "2025-05-01",
			Time:           "09:00",
			Priority:       task.PriorityMedium,
			Category:       "home",
			ReminderOffset: intPtr(10),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	first, _ := repo.ActiveAt(0)
	repo.Archive(first.ID)
	return s, repo
}

func TestInspector_Summary(t *testing.T) {
	s, _ := setupTestState(t)
	identity.StoreProvider{Store: s}.SetCurrent("a@x.com")

	inspector := NewInspector(t.TempDir(), s, time.UTC)
	summary, err := inspector.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	if summary.Current != "a_x_com" {
		t.Errorf("current namespace: got %q", summary.Current)
	}
	if len(summary.Namespaces) != 1 {
		t.Fatalf("expected 1 namespace, got %d", len(summary.Namespaces))
	}
	ns := summary.Namespaces[0]
	if ns.Active != 1 || ns.Archived != 1 || ns.Reminders != 1 {
		t.Errorf("unexpected counts: %+v", ns)
	}
	if ns.ArchiveBytes == 0 {
		t.Error("archive bytes should be non-zero")
	}
	if len(ns.Corrupt) != 0 {
		t.Errorf("unexpected corrupt keys: %v", ns.Corrupt)
	}
}

func TestInspector_HealthyState(t *testing.T) {
	s, _ := setupTestState(t)

	inspector := NewInspector(t.TempDir(), s, time.UTC)
	health, err := inspector.Health(0, now)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("expected healthy, got %s: %v", health.Status, health.Warnings)
	}
}

func TestInspector_HealthFindsProblems(t *testing.T) {
	s, _ := setupTestState(t)
	s.Set("tasklyTasks_b_x_com", []byte("{not json"))
	// Stale index: the Active list of a_x_com has one reminder, not zero.
	s.Set("tasklyReminders_a_x_com", []byte("[]"))

	inspector := NewInspector(t.TempDir(), s, time.UTC)
	health, err := inspector.Health(24*time.Hour, now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Status != "issues" {
		t.Errorf("expected issues, got %s", health.Status)
	}

	joined := strings.Join(health.Warnings, "\n")
	for _, want := range []string{
		"b_x_com: unreadable data in tasklyTasks_b_x_com",
		"a_x_com: reminder index out of date",
		"a_x_com: 1 archived tasks older than 24h0m0s",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing warning %q in:\n%s", want, joined)
		}
	}
}

func TestInspector_TasksAndReminders(t *testing.T) {
	s, _ := setupTestState(t)
	inspector := NewInspector(t.TempDir(), s, time.UTC)

	active, archive := inspector.Tasks("a_x_com")
	if len(active) != 1 || active[0].Title != "Stretch" {
		t.Errorf("unexpected active: %+v", active)
	}
	if len(archive) != 1 || archive[0].Title != "Pay rent" {
		t.Errorf("unexpected archive: %+v", archive)
	}

	index := inspector.Reminders("a_x_com")
	if len(index) != 1 || index[0].Title != "Stretch" {
		t.Errorf("unexpected index: %+v", index)
	}

	if a, b := inspector.Tasks("nobody"); len(a) != 0 || len(b) != 0 {
		t.Error("unknown namespace should be empty")
	}
}

func TestInspector_Logs(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "system"), 0755)
	lines := `{"type":"task_created","summary":"a"}
{"type":"task_created","summary":"b"}
{"type":"task_archived","summary":"a"}
`
	os.WriteFile(filepath.Join(dir, activityLog), []byte(lines), 0644)

	inspector := NewInspector(dir, store.NewMemory(), time.UTC)
	tail, err := inspector.TailLogs(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 || tail[1]["type"] != "task_archived" {
		t.Errorf("unexpected tail: %v", tail)
	}

	if err := inspector.TruncateLogs(1); err != nil {
		t.Fatal(err)
	}
	summary, _ := inspector.Summary()
	if summary.Activity != 1 {
		t.Errorf("expected 1 entry after truncate, got %d", summary.Activity)
	}
}
