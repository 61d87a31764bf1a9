package tools

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vthunder/taskly/internal/activity"
	"github.com/vthunder/taskly/internal/gesture"
	"github.com/vthunder/taskly/internal/reminder"
	"github.com/vthunder/taskly/internal/task"
)

func reminderTools(deps *Dependencies) []Definition {
	return []Definition{
		{
			Tool: mcp.NewTool("reminders_list",
				mcp.WithDescription("Show the Reminder index and which reminders are still armed, in fire order."),
			),
			Handler: deps.handleRemindersList,
		},
		{
			Tool: mcp.NewTool("notifications_list",
				mcp.WithDescription("Show fired reminder notifications, newest first."),
				mcp.WithBoolean("clear", mcp.Description("Clear the panel after listing")),
				mcp.WithBoolean("close", mcp.Description("Close the panel after listing")),
			),
			Handler: deps.handleNotificationsList,
		},
	}
}

func gestureTools(deps *Dependencies) []Definition {
	return []Definition{
		{
			Tool: mcp.NewTool("gesture_swipe",
				mcp.WithDescription("Drive a horizontal swipe on a task row. A left swipe past the threshold archives, a right swipe deletes, and a release without movement opens the edit form."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Task ID of the row")),
				mcp.WithNumber("start_x", mcp.Required(), mcp.Description("Pointer-down x coordinate")),
				mcp.WithNumber("end_x", mcp.Required(), mcp.Description("Pointer-up x coordinate")),
				mcp.WithBoolean("wait", mcp.Description("Wait for a committed command to apply. Default: true")),
			),
			Handler: deps.handleGestureSwipe,
		},
		{
			Tool: mcp.NewTool("gesture_press",
				mcp.WithDescription("Press a control on a task row: checkbox toggles status, archive and delete commit immediately."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Task ID of the row")),
				mcp.WithString("target", mcp.Required(), mcp.Description("checkbox, archive, or delete")),
			),
			Handler: deps.handleGesturePress,
		},
	}
}

func statusTools(deps *Dependencies) []Definition {
	return []Definition{
		{
			Tool: mcp.NewTool("taskly_status",
				mcp.WithDescription("Summarize the task lists, reminders, and daemon resource usage."),
			),
			Handler: deps.handleStatus,
		},
	}
}

func activityTools(deps *Dependencies) []Definition {
	return []Definition{
		{
			Tool: mcp.NewTool("activity_recent",
				mcp.WithDescription("Recent task lifecycle events, oldest first."),
				mcp.WithNumber("count", mcp.Description("Number of entries (default 20)")),
				mcp.WithString("task_id", mcp.Description("Only events for this task")),
			),
			Handler: deps.handleActivityRecent,
		},
	}
}

type reminderView struct {
	Index   int    `json:"index"`
	TaskID  string `json:"task_id"`
	Title   string `json:"title"`
	FiresAt string `json:"fires_at"`
	When    string `json:"when"`
	Armed   bool   `json:"armed"`
}

func (d *Dependencies) handleRemindersList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	armed := make(map[string]bool)
	for _, e := range d.Scheduler.Pending() {
		armed[e.TaskID] = true
	}
	now := d.now()
	loc := d.Repo.Location()
	out := []reminderView{}
	for _, e := range d.Scheduler.Index() {
		at := e.Time().In(loc)
		out = append(out, reminderView{
			Index:   e.Index,
			TaskID:  e.TaskID,
			Title:   e.Title,
			FiresAt: at.Format("Mon Jan 2 2006 15:04"),
			When:    relTime(at, now),
			Armed:   armed[e.TaskID],
		})
	}
	return jsonResult(out)
}

func (d *Dependencies) handleNotificationsList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(req)
	items := d.Panel.Items()
	messages := make([]string, 0, len(items))
	for _, n := range items {
		messages = append(messages, n.Message())
	}
	result := map[string]any{
		"open":          d.Panel.IsOpen(),
		"notifications": messages,
	}
	if v, _ := args["clear"].(bool); v {
		d.Panel.Clear()
	}
	if v, _ := args["close"].(bool); v {
		d.Panel.Close()
	}
	return jsonResult(result)
}

func (d *Dependencies) handleGestureSwipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(req)
	id, _ := stringArg(args, "id")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	startX, ok := numberArg(args, "start_x")
	if !ok {
		return mcp.NewToolResultError("start_x is required"), nil
	}
	endX, ok := numberArg(args, "end_x")
	if !ok {
		return mcp.NewToolResultError("end_x is required"), nil
	}
	wait := true
	if v, ok := args["wait"].(bool); ok {
		wait = v
	}

	outcome := d.Gestures.Swipe(id, startX, endX)
	switch {
	case outcome.Tap:
		t, ok := d.Repo.Get(id)
		if !ok {
			return mcp.NewToolResultText(fmt.Sprintf("No Active task %s; nothing to edit", id)), nil
		}
		return jsonResult(map[string]any{"edit": viewTask(t, d.now())})
	case outcome.Action == gesture.ActionNone:
		return mcp.NewToolResultText("Released below the commit threshold; row reset"), nil
	}

	if wait && outcome.Done != nil {
		select {
		case <-outcome.Done:
		case <-ctx.Done():
			return mcp.NewToolResultError(fmt.Sprintf("%s for %s still pending: %v", outcome.Action, id, ctx.Err())), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s committed for %s", outcome.Action, id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s committing for %s", outcome.Action, id)), nil
}

func (d *Dependencies) handleGesturePress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(req)
	id, _ := stringArg(args, "id")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	target, _ := stringArg(args, "target")

	row := d.Gestures.Row(id)
	var err error
	switch strings.ToLower(target) {
	case "checkbox":
		err = row.TapCheckbox()
	case "archive":
		err = row.PressArchive()
	case "delete":
		err = row.PressDelete()
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown target %q: use checkbox, archive, or delete", target)), nil
	}
	if err != nil {
		return errorResult(target, err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s pressed for %s", target, id)), nil
}

func (d *Dependencies) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := d.now()
	active := d.Repo.ListActive()
	stats := task.CountStats(active)
	archive := d.Repo.ArchiveStats()
	pending := d.Scheduler.Pending()

	var b strings.Builder
	fmt.Fprintf(&b, "Storage: %s\n", d.Repo.Keys().Tasks)
	fmt.Fprintf(&b, "Active: %d (%d pending, %d completed)\n", stats.Total, stats.Pending, stats.Completed)
	fmt.Fprintf(&b, "Archive: %d tasks, %s\n", archive.Count, humanize.Bytes(uint64(archive.Bytes)))
	fmt.Fprintf(&b, "Reminders: %d indexed, %d armed\n", len(d.Scheduler.Index()), len(pending))
	if next, ok := nextReminder(pending); ok {
		fmt.Fprintf(&b, "Next reminder: %s %s\n", next.Title, relTime(next.Time(), now))
	}
	fmt.Fprintf(&b, "Notifications: %d\n", len(d.Panel.Items()))

	if d.Health != nil {
		sample, err := d.Health.Latest()
		if err != nil {
			fmt.Fprintf(&b, "Process: unavailable (%v)\n", err)
		} else {
			fmt.Fprintf(&b, "Process: %s RSS, %.1f%% CPU (avg %.1f%%), %d threads\n",
				humanize.Bytes(sample.RSS), sample.CPUPercent, d.Health.AvgCPU(), sample.Threads)
		}
	}
	fmt.Fprintf(&b, "Goroutines: %d", runtime.NumGoroutine())
	return mcp.NewToolResultText(b.String()), nil
}

func nextReminder(pending []reminder.Entry) (reminder.Entry, bool) {
	if len(pending) == 0 {
		return reminder.Entry{}, false
	}
	return pending[0], true
}

func (d *Dependencies) handleActivityRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(req)
	count := 20
	if n, ok := numberArg(args, "count"); ok && n > 0 {
		count = int(n)
	}

	var entries []activity.Entry
	var err error
	if id, _ := stringArg(args, "task_id"); id != "" {
		entries, err = d.ActivityLog.ForTask(id)
		if len(entries) > count {
			entries = entries[len(entries)-count:]
		}
	} else {
		entries, err = d.ActivityLog.Recent(count)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read activity: %v", err)), nil
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return jsonResult(entries)
}
