package tools

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vthunder/taskly/internal/logging"
)

func archiveTools(deps *Dependencies) []Definition {
	return []Definition{
		{
			Tool: mcp.NewTool("archive_list",
				mcp.WithDescription("List archived tasks, newest first, with the Archive's count and size."),
			),
			Handler: deps.handleArchiveList,
		},
		{
			Tool: mcp.NewTool("archive_restore",
				mcp.WithDescription("Move an archived task back to the end of the Active list. Its reminder is re-armed if still in the future."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
			),
			Handler: deps.handleArchiveRestore,
		},
		{
			Tool: mcp.NewTool("archive_restore_all",
				mcp.WithDescription("Restore every archived task, preserving Archive order."),
				mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
			),
			Handler: deps.handleArchiveRestoreAll,
		},
		{
			Tool: mcp.NewTool("archive_delete",
				mcp.WithDescription("Permanently delete one archived task."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
			),
			Handler: deps.handleArchiveDelete,
		},
		{
			Tool: mcp.NewTool("archive_empty",
				mcp.WithDescription("Permanently delete every archived task."),
				mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
			),
			Handler: deps.handleArchiveEmpty,
		},
	}
}

func (d *Dependencies) handleArchiveList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := d.Repo.ArchiveStats()
	return jsonResult(map[string]any{
		"count": stats.Count,
		"size":  humanize.Bytes(uint64(stats.Bytes)),
		"tasks": viewTasks(d.Repo.ArchiveNewestFirst(), d.now()),
	})
}

func (d *Dependencies) handleArchiveRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := stringArg(arguments(req), "id")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if err := d.Repo.RestoreFromArchive(id); err != nil {
		return errorResult("restore task", err)
	}
	t, ok := d.Repo.Get(id)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("No archived task %s; nothing changed", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Restored %q", t.Title)), nil
}

func confirmed(req mcp.CallToolRequest) bool {
	v, _ := arguments(req)["confirm"].(bool)
	return v
}

func (d *Dependencies) handleArchiveRestoreAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !confirmed(req) {
		return mcp.NewToolResultText("Not confirmed; nothing changed"), nil
	}
	n, err := d.Repo.RestoreAll()
	if err != nil {
		return errorResult("restore archive", err)
	}
	if n == 0 {
		return mcp.NewToolResultText("Archive is empty; nothing to restore"), nil
	}
	logging.Info("mcp", "restored %d archived tasks", n)
	return mcp.NewToolResultText(fmt.Sprintf("Restored %d tasks", n)), nil
}

func (d *Dependencies) handleArchiveDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := stringArg(arguments(req), "id")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	before := d.Repo.ArchiveStats().Count
	if err := d.Repo.DeletePermanently(id); err != nil {
		return errorResult("delete archived task", err)
	}
	if d.Repo.ArchiveStats().Count == before {
		return mcp.NewToolResultText(fmt.Sprintf("No archived task %s; nothing changed", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Permanently deleted %s", id)), nil
}

func (d *Dependencies) handleArchiveEmpty(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !confirmed(req) {
		return mcp.NewToolResultText("Not confirmed; nothing changed"), nil
	}
	n, err := d.Repo.EmptyArchive()
	if err != nil {
		return errorResult("empty archive", err)
	}
	logging.Info("mcp", "emptied archive (%d tasks)", n)
	return mcp.NewToolResultText(fmt.Sprintf("Permanently deleted %d archived tasks", n)), nil
}
