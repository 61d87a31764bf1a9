package activity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vthunder/taskly/internal/logging"
)

// Type identifies what kind of activity this is
type Type string

const (
	TypeTaskCreated    Type = "task_created"
	TypeTaskUpdated    Type = "task_updated"
	TypeTaskToggled    Type = "task_toggled"
	TypeTaskArchived   Type = "task_archived"
	TypeTaskDeleted    Type = "task_deleted"    // removed from the active list
	TypeTaskRestored   Type = "task_restored"   // archive -> active
	TypeArchiveDeleted Type = "archive_deleted" // permanent removal of one entry
	TypeArchiveEmptied Type = "archive_emptied"
	TypeReminderFired  Type = "reminder_fired"
	TypeError          Type = "error"
)

// Entry represents a single activity log entry
type Entry struct {
	Timestamp time.Time      `json:"ts"`
	Type      Type           `json:"type"`
	Summary   string         `json:"summary"`
	TaskID    string         `json:"task_id,omitempty"`
	Identity  string         `json:"identity,omitempty"` // storage namespace the event touched
	Data      map[string]any `json:"data,omitempty"`
}

// Log is the activity logger
type Log struct {
	path     string
	identity string
	now      func() time.Time
	mu       *sync.Mutex // shared with WithIdentity copies
}

// New creates an activity logger under statePath/system.
func New(statePath string) *Log {
	return &Log{
		path: filepath.Join(statePath, "system", "activity.jsonl"),
		now:  time.Now,
		mu:   &sync.Mutex{},
	}
}

// WithIdentity returns a logger writing to the same file that tags entries
// with the given namespace.
func (l *Log) WithIdentity(namespace string) *Log {
	return &Log{path: l.path, identity: namespace, now: l.now, mu: l.mu}
}

// Path returns the JSONL file location.
func (l *Log) Path() string { return l.path }

// Log appends an entry to the activity log
func (l *Log) Log(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	if entry.Identity == "" {
		entry.Identity = l.identity
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// Record logs a task lifecycle event. Write failures are logged, not returned.
func (l *Log) Record(kind, taskID, title string) {
	err := l.Log(Entry{
		Type:    Type(kind),
		Summary: title,
		TaskID:  taskID,
	})
	if err != nil {
		logging.Warn("activity", "record %s: %v", kind, err)
	}
}

// LogReminderFired logs a delivered reminder.
func (l *Log) LogReminderFired(taskID, title string, firesAt time.Time) error {
	return l.Log(Entry{
		Type:    TypeReminderFired,
		Summary: title,
		TaskID:  taskID,
		Data: map[string]any{
			"fires_at": firesAt.Format(time.RFC3339),
		},
	})
}

// LogError logs an error
func (l *Log) LogError(summary string, err error, data map[string]any) error {
	if data == nil {
		data = make(map[string]any)
	}
	data["error"] = err.Error()
	return l.Log(Entry{
		Type:    TypeError,
		Summary: summary,
		Data:    data,
	})
}

// Query methods

// Recent returns the last n entries
func (l *Log) Recent(n int) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	if n <= 0 || n >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// ForTask returns the history of one task, oldest first.
func (l *Log) ForTask(taskID string) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	var result []Entry
	for _, e := range entries {
		if e.TaskID == taskID {
			result = append(result, e)
		}
	}
	return result, nil
}

// ByType returns entries of a specific type
func (l *Log) ByType(t Type, limit int) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	var result []Entry
	// From most recent
	for i := len(entries) - 1; i >= 0 && len(result) < limit; i-- {
		if entries[i].Type == t {
			result = append(result, entries[i])
		}
	}
	return result, nil
}

// readAll reads all entries from the log file
func (l *Log) readAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue // skip malformed entries
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
