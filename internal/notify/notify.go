// Package notify delivers reminder notifications to the user.
package notify

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vthunder/taskly/internal/logging"
)

// Notification is produced once when a reminder timer fires.
type Notification struct {
	TaskID  string    `json:"task_id"`
	Title   string    `json:"title"`
	FiresAt time.Time `json:"fires_at"`
}

// Message is the user-visible text.
func (n Notification) Message() string {
	return fmt.Sprintf("Reminder — %s at %s", n.Title, n.FiresAt.Format("Mon Jan 2 2006 15:04"))
}

type Sink interface {
	Notify(n Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(n Notification) error

func (f SinkFunc) Notify(n Notification) error { return f(n) }

// Multi delivers to every sink; a failing sink does not stop the others.
type Multi []Sink

func (m Multi) Notify(n Notification) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Notify(n); err != nil {
			logging.Warn("notify", "delivery failed for %s: %v", n.TaskID, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes notifications to the log.
type LogSink struct{}

func (LogSink) Notify(n Notification) error {
	logging.Info("reminder", "%s", n.Message())
	return nil
}

// DefaultPanelSize bounds how many fired notifications the panel keeps.
const DefaultPanelSize = 50

// Panel is the notification panel: the recent fired reminders plus whether
// the panel is currently shown.
type Panel struct {
	mu    sync.RWMutex
	items []Notification
	open  bool
	max   int
}

func NewPanel(max int) *Panel {
	if max <= 0 {
		max = DefaultPanelSize
	}
	return &Panel{max: max}
}

func (p *Panel) Notify(n Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, n)
	if len(p.items) > p.max {
		p.items = p.items[len(p.items)-p.max:]
	}
	return nil
}

func (p *Panel) Open() {
	p.mu.Lock()
	p.open = true
	p.mu.Unlock()
}

func (p *Panel) Close() {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
}

func (p *Panel) IsOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.open
}

// Items returns fired notifications, newest first.
func (p *Panel) Items() []Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Notification, 0, len(p.items))
	for i := len(p.items) - 1; i >= 0; i-- {
		out = append(out, p.items[i])
	}
	return out
}

// Clear drops every notification.
func (p *Panel) Clear() {
	p.mu.Lock()
	p.items = nil
	p.mu.Unlock()
}
