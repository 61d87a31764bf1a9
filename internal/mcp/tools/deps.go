// Package tools provides MCP tool registration with dependency injection.
package tools

import (
	"time"

	"github.com/vthunder/taskly/internal/activity"
	"github.com/vthunder/taskly/internal/clock"
	"github.com/vthunder/taskly/internal/gesture"
	"github.com/vthunder/taskly/internal/health"
	"github.com/vthunder/taskly/internal/notify"
	"github.com/vthunder/taskly/internal/reminder"
	"github.com/vthunder/taskly/internal/task"
)

// Dependencies holds all services that MCP tools may need.
// Optional fields may be nil.
type Dependencies struct {
	// Core services (required)
	Repo      *task.Repository
	Scheduler *reminder.Scheduler
	Panel     *notify.Panel

	// Optional services
	Gestures    *gesture.Interpreter
	ActivityLog *activity.Log
	Health      *health.Watcher
	Clock       clock.Clock

	// Presets are the reminder offsets offered by the task form.
	Presets []int

	// If set, MCP tools will call this after they run
	OnMCPToolCall func(toolName string)
}

func (d *Dependencies) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock.Now()
}
