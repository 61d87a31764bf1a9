package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/taskly/internal/task"
)

// Handler is the signature every tool handler shares.
type Handler = server.ToolHandlerFunc

// RegisterAll registers all MCP tools with the given server and dependencies.
func RegisterAll(s *server.MCPServer, deps *Dependencies) {
	for _, t := range Definitions(deps) {
		s.AddTool(t.Tool, t.Handler)
	}
}

// Definition pairs a tool schema with its handler.
type Definition struct {
	Tool    mcp.Tool
	Handler Handler
}

// Definitions lists the tools RegisterAll would add. Tools whose optional
// dependency is missing are left out.
func Definitions(deps *Dependencies) []Definition {
	var defs []Definition
	defs = append(defs, taskTools(deps)...)
	defs = append(defs, archiveTools(deps)...)
	defs = append(defs, reminderTools(deps)...)
	if deps.Gestures != nil {
		defs = append(defs, gestureTools(deps)...)
	}
	defs = append(defs, statusTools(deps)...)
	if deps.ActivityLog != nil {
		defs = append(defs, activityTools(deps)...)
	}

	for i := range defs {
		defs[i].Handler = traced(deps, defs[i].Tool.Name, defs[i].Handler)
	}
	return defs
}

func traced(deps *Dependencies, name string, h Handler) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := h(ctx, req)
		if deps.OnMCPToolCall != nil {
			deps.OnMCPToolCall(name)
		}
		return res, err
	}
}

func arguments(req mcp.CallToolRequest) map[string]any {
	args, _ := req.Params.Arguments.(map[string]any)
	if args == nil {
		args = map[string]any{}
	}
	return args
}

func stringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name].(string)
	return v, ok
}

// numberArg accepts JSON numbers and numeric strings.
func numberArg(args map[string]any, name string) (float64, bool) {
	switch v := args[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult turns repository errors into tool errors. Validation and
// not-found errors carry the user-facing message as is.
func errorResult(action string, err error) (*mcp.CallToolResult, error) {
	var verr *task.ValidationError
	var nerr *task.NotFoundError
	switch {
	case errors.As(err, &verr):
		return mcp.NewToolResultError(verr.Error()), nil
	case errors.As(err, &nerr):
		return mcp.NewToolResultError(nerr.Error()), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err)), nil
	}
}

// taskView is the JSON shape tools return for a task.
type taskView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Category    string `json:"category"`
	Reminder    string `json:"reminder,omitempty"`
	ArchivedAt  string `json:"archived_at,omitempty"`
}

func viewTask(t task.Task, now time.Time) taskView {
	v := taskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Date:        t.Date,
		Time:        t.Time,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Category:    t.Category,
	}
	if offset, ok := t.Reminder.OffsetMinutes(); ok {
		at, _ := t.Reminder.FiresAt()
		v.Reminder = fmt.Sprintf("%d min before (%s)", offset, relTime(at, now))
	}
	if at, ok := t.State.ArchivedAt(); ok {
		v.ArchivedAt = relTime(at, now)
	}
	return v
}

func viewTasks(tasks []task.Task, now time.Time) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, viewTask(t, now))
	}
	return out
}

func relTime(at, now time.Time) string {
	return humanize.RelTime(at, now, "ago", "from now")
}
