package task

import (
	"encoding/json"
	"fmt"
	"time"
)

// Date and time-of-day layouts for the due instant.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Toggle flips pending and completed.
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// Reminder is either NoReminder or ReminderAt(offset, firesAt).
type Reminder struct {
	set           bool
	offsetMinutes int
	firesAt       time.Time
}

func NoReminder() Reminder { return Reminder{} }

func ReminderAt(offsetMinutes int, firesAt time.Time) Reminder {
	return Reminder{set: true, offsetMinutes: offsetMinutes, firesAt: firesAt}
}

func (r Reminder) IsSet() bool { return r.set }

// OffsetMinutes reports how long before the due instant the reminder fires.
func (r Reminder) OffsetMinutes() (int, bool) { return r.offsetMinutes, r.set }

func (r Reminder) FiresAt() (time.Time, bool) { return r.firesAt, r.set }

func (r Reminder) Equal(o Reminder) bool {
	return r.set == o.set && r.offsetMinutes == o.offsetMinutes && r.firesAt.Equal(o.firesAt)
}

// State is either Active or Archived(at).
type State struct {
	archived   bool
	archivedAt time.Time
}

func Active() State { return State{} }

func Archived(at time.Time) State { return State{archived: true, archivedAt: at} }

func (s State) IsArchived() bool { return s.archived }

// ArchivedAt is the zero time for archive records that never carried a stamp.
func (s State) ArchivedAt() (time.Time, bool) { return s.archivedAt, s.archived }

// Task is a single to-do item. Tasks are addressed by ID; their position in
// the Active or Archive list is display order only.
type Task struct {
	ID          string
	Title       string
	Description string
	Date        string
	Time        string
	Priority    Priority
	Status      Status
	Category    string
	Reminder    Reminder
	State       State
	CreatedAt   time.Time
}

// Due combines Date and Time into a single instant in loc.
func (t Task) Due(loc *time.Location) (time.Time, error) {
	return ParseDue(t.Date, t.Time, loc)
}

// ParseDue combines a calendar date and a time of day into one instant.
func ParseDue(date, tm string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	due, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+tm, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date/time %q %q: %w", date, tm, err)
	}
	return due, nil
}

// record is the persisted layout of a Task.
type record struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Priority    Priority        `json:"priority"`
	Status      Status          `json:"status"`
	Category    string          `json:"category"`
	Reminder    *reminderRecord `json:"reminder"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	Archived    bool            `json:"archived,omitempty"`
	ArchivedAt  string          `json:"archivedAt,omitempty"`
}

type reminderRecord struct {
	OffsetMinutes int   `json:"offsetMinutes"`
	FiresAt       int64 `json:"firesAt"` // epoch milliseconds
}

func (t Task) MarshalJSON() ([]byte, error) {
	rec := record{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Date:        t.Date,
		Time:        t.Time,
		Priority:    t.Priority,
		Status:      t.Status,
		Category:    t.Category,
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt.UTC()
		rec.CreatedAt = &created
	}
	if off, ok := t.Reminder.OffsetMinutes(); ok {
		at, _ := t.Reminder.FiresAt()
		rec.Reminder = &reminderRecord{OffsetMinutes: off, FiresAt: at.UnixMilli()}
	}
	if at, ok := t.State.ArchivedAt(); ok {
		rec.Archived = true
		if !at.IsZero() {
			rec.ArchivedAt = at.UTC().Format(time.RFC3339Nano)
		}
	}
	return json.Marshal(rec)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*t = Task{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Date:        rec.Date,
		Time:        rec.Time,
		Priority:    rec.Priority,
		Status:      rec.Status,
		Category:    rec.Category,
	}
	if rec.CreatedAt != nil {
		t.CreatedAt = *rec.CreatedAt
	}
	if rec.Reminder != nil {
		t.Reminder = ReminderAt(rec.Reminder.OffsetMinutes, time.UnixMilli(rec.Reminder.FiresAt))
	}
	if rec.Archived || rec.ArchivedAt != "" {
		var at time.Time
		if rec.ArchivedAt != "" {
			// An unparseable stamp still leaves the task archived.
			at, _ = time.Parse(time.RFC3339Nano, rec.ArchivedAt)
		}
		t.State = Archived(at)
	}
	return nil
}
