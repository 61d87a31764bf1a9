package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vthunder/taskly/internal/logging"
	"github.com/vthunder/taskly/internal/reminder"
	"github.com/vthunder/taskly/internal/task"
)

const reminderHelp = "Reminder: none, a preset number of minutes before the due time (5, 10, 30), or custom:<minutes>"

func taskTools(deps *Dependencies) []Definition {
	return []Definition{
		{
			Tool: mcp.NewTool("task_add",
				mcp.WithDescription("Add a task to the Active list. Every field except reminder is required."),
				mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
				mcp.WithString("description", mcp.Required(), mcp.Description("What needs to be done")),
				mcp.WithString("date", mcp.Required(), mcp.Description("Due date, YYYY-MM-DD")),
				mcp.WithString("time", mcp.Required(), mcp.Description("Due time, HH:MM (24h)")),
				mcp.WithString("priority", mcp.Required(), mcp.Description("low, medium, or high")),
				mcp.WithString("category", mcp.Required(), mcp.Description("Free-form category, e.g. work or finance")),
				mcp.WithString("reminder", mcp.Description(reminderHelp)),
			),
			Handler: deps.handleTaskAdd,
		},
		{
			Tool: mcp.NewTool("task_list",
				mcp.WithDescription("List Active tasks in display order with dashboard counts. Filters narrow the view and never reorder it."),
				mcp.WithString("status", mcp.Description("pending, completed, or all (default)")),
				mcp.WithString("priority", mcp.Description("low, medium, high, or all (default)")),
				mcp.WithString("category", mcp.Description("Category name or all (default)")),
				mcp.WithString("query", mcp.Description("Substring to match against title, description, and category")),
			),
			Handler: deps.handleTaskList,
		},
		{
			Tool: mcp.NewTool("task_update",
				mcp.WithDescription("Edit an Active task in place. Only provided fields change; status is kept unless given."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
				mcp.WithString("title", mcp.Description("New title")),
				mcp.WithString("description", mcp.Description("New description")),
				mcp.WithString("date", mcp.Description("New due date, YYYY-MM-DD")),
				mcp.WithString("time", mcp.Description("New due time, HH:MM")),
				mcp.WithString("priority", mcp.Description("low, medium, or high")),
				mcp.WithString("category", mcp.Description("New category")),
				mcp.WithString("status", mcp.Description("pending or completed")),
				mcp.WithString("reminder", mcp.Description(reminderHelp)),
			),
			Handler: deps.handleTaskUpdate,
		},
		{
			Tool: mcp.NewTool("task_toggle",
				mcp.WithDescription("Flip an Active task between pending and completed."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
			),
			Handler: deps.handleTaskToggle,
		},
		{
			Tool: mcp.NewTool("task_archive",
				mcp.WithDescription("Move an Active task to the Archive. Its reminder is cancelled."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
			),
			Handler: deps.handleTaskArchive,
		},
		{
			Tool: mcp.NewTool("task_delete",
				mcp.WithDescription("Delete an Active task permanently. Use task_archive to keep it restorable."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
			),
			Handler: deps.handleTaskDelete,
		},
	}
}

// fieldsFromArgs overlays the provided arguments on base.
func (d *Dependencies) fieldsFromArgs(args map[string]any, base task.Fields) (task.Fields, error) {
	f := base
	if v, ok := stringArg(args, "title"); ok {
		f.Title = v
	}
	if v, ok := stringArg(args, "description"); ok {
		f.Description = v
	}
	if v, ok := stringArg(args, "date"); ok {
		f.Date = v
	}
	if v, ok := stringArg(args, "time"); ok {
		f.Time = v
	}
	if v, ok := stringArg(args, "priority"); ok {
		f.Priority = task.Priority(v)
	}
	if v, ok := stringArg(args, "category"); ok {
		f.Category = v
	}
	if v, ok := stringArg(args, "status"); ok {
		f.Status = task.Status(v)
	}
	if v, ok := stringArg(args, "reminder"); ok {
		offset, err := reminder.ParseOffset(v, d.Presets)
		if err != nil {
			return f, &task.ValidationError{Field: "reminder", Reason: err.Error()}
		}
		f.ReminderOffset = offset
	}
	return f, nil
}

func (d *Dependencies) handleTaskAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := d.fieldsFromArgs(arguments(req), task.Fields{})
	if err != nil {
		return errorResult("add task", err)
	}

	t, err := d.Repo.Create(f)
	if err != nil {
		return errorResult("add task", err)
	}

	logging.Info("mcp", "task added: %s", logging.Truncate(t.Title, 50))
	return jsonResult(viewTask(t, d.now()))
}

func (d *Dependencies) handleTaskList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(req)
	status, _ := stringArg(args, "status")
	priority, _ := stringArg(args, "priority")
	category, _ := stringArg(args, "category")
	query, _ := stringArg(args, "query")

	filter := task.Filter{
		Status:   task.Status(strings.ToLower(status)),
		Priority: task.Priority(strings.ToLower(priority)),
		Category: category,
		Query:    query,
	}
	active := d.Repo.ListActive()

	return jsonResult(map[string]any{
		"stats": task.CountStats(active),
		"tasks": viewTasks(filter.Apply(active), d.now()),
	})
}

func (d *Dependencies) handleTaskUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(req)
	id, _ := stringArg(args, "id")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	current, ok := d.Repo.Get(id)
	if !ok {
		return errorResult("update task", &task.NotFoundError{ID: id})
	}
	base := current.Fields()
	base.Status = "" // keep whatever the stored status is at write time
	f, err := d.fieldsFromArgs(args, base)
	if err != nil {
		return errorResult("update task", err)
	}

	t, err := d.Repo.Update(id, f)
	if err != nil {
		return errorResult("update task", err)
	}

	logging.Info("mcp", "task updated: %s", id)
	return jsonResult(viewTask(t, d.now()))
}

func (d *Dependencies) handleTaskToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := stringArg(arguments(req), "id")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if err := d.Repo.ToggleStatus(id); err != nil {
		return errorResult("toggle task", err)
	}
	t, ok := d.Repo.Get(id)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("No Active task %s; nothing changed", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %q is now %s", t.Title, t.Status)), nil
}

func (d *Dependencies) handleTaskArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := stringArg(arguments(req), "id")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	before, found := d.Repo.Get(id)
	if err := d.Repo.Archive(id); err != nil {
		return errorResult("archive task", err)
	}
	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("No Active task %s; nothing changed", id)), nil
	}
	stats := d.Repo.ArchiveStats()
	return mcp.NewToolResultText(fmt.Sprintf("Moved %q to the Archive (%d archived)", before.Title, stats.Count)), nil
}

func (d *Dependencies) handleTaskDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := stringArg(arguments(req), "id")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	before, found := d.Repo.Get(id)
	if err := d.Repo.DeleteActive(id); err != nil {
		return errorResult("delete task", err)
	}
	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("No Active task %s; nothing changed", id)), nil
	}
	logging.Info("mcp", "task deleted: %s", id)
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %q", before.Title)), nil
}
