package task

import (
	"strings"
	"time"
)

// Fields is the user-supplied part of a task, as entered on the add/edit form.
type Fields struct {
	Title       string
	Description string
	Date        string
	Time        string
	Priority    Priority
	Category    string
	// Status is optional: create defaults to pending, update preserves the
	// current status when empty.
	Status Status
	// ReminderOffset is minutes before the due instant; nil means no reminder.
	ReminderOffset *int
}

// normalize trims text fields in place
func (f *Fields) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Date = strings.TrimSpace(f.Date)
	f.Time = strings.TrimSpace(f.Time)
	f.Category = strings.TrimSpace(f.Category)
	f.Priority = Priority(strings.ToLower(strings.TrimSpace(string(f.Priority))))
	f.Status = Status(strings.ToLower(strings.TrimSpace(string(f.Status))))
}

// Validate checks every required field. Fields are checked in form order so
// the first missing one is the one reported.
func (f Fields) Validate() error {
	f.normalize()

	required := []struct {
		name  string
		value string
	}{
		{"title", f.Title},
		{"description", f.Description},
		{"date", f.Date},
		{"time", f.Time},
		{"priority", string(f.Priority)},
		{"category", f.Category},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.name, Reason: "is required"}
		}
	}

	if _, err := time.Parse(DateLayout, f.Date); err != nil {
		return &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	if _, err := time.Parse(TimeLayout, f.Time); err != nil {
		return &ValidationError{Field: "time", Reason: "must be HH:MM"}
	}
	if !f.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "must be low, medium, or high"}
	}
	if f.Status != "" && !f.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "must be pending or completed"}
	}
	if f.ReminderOffset != nil && *f.ReminderOffset < 0 {
		return &ValidationError{Field: "reminder", Reason: "offset cannot be negative"}
	}
	return nil
}

// Fields returns the editable part of t, as the edit form is pre-filled.
func (t Task) Fields() Fields {
	f := Fields{
		Title:       t.Title,
		Description: t.Description,
		Date:        t.Date,
		Time:        t.Time,
		Priority:    t.Priority,
		Category:    t.Category,
		Status:      t.Status,
	}
	if off, ok := t.Reminder.OffsetMinutes(); ok {
		f.ReminderOffset = &off
	}
	return f
}
