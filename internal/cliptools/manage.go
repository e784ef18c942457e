package cliptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clipvault/internal/clipboard"
	"github.com/HendryAvila/clipvault/internal/security"
)

// ─── PinTool ────────────────────────────────────────────────────────────────

// PinTool handles the clip_pin MCP tool.
type PinTool struct {
	store   *clipboard.Store
	limiter *security.RateLimiter
}

// NewPinTool creates a PinTool.
func NewPinTool(store *clipboard.Store, limiter *security.RateLimiter) *PinTool {
	return &PinTool{store: store, limiter: limiter}
}

// Definition returns the MCP tool definition for clip_pin.
func (t *PinTool) Definition() mcp.Tool {
	return mcp.NewTool("clip_pin",
		mcp.WithDescription(
			"Toggle the pin on a clipboard item. Pinned items are exempt from "+
				"history eviction and survive clip_clear (unless include_pinned is set).",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Record ID to pin or unpin"),
		),
	)
}

// Handle processes the clip_pin tool call.
func (t *PinTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.limiter.AllowGeneral(callerID(ctx)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := intArg(req, "id", 0)
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	found, err := t.store.TogglePin(int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pin toggle failed: %v", err)), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("record %d not found", id)), nil
	}

	rec, err := t.store.Get(int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pin toggle failed: %v", err)), nil
	}
	state := "unpinned"
	if rec.IsPinned {
		state = "pinned"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Record %d is now %s", id, state)), nil
}

// ─── DeleteTool ─────────────────────────────────────────────────────────────

// DeleteTool handles the clip_delete MCP tool.
type DeleteTool struct {
	store   *clipboard.Store
	limiter *security.RateLimiter
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(store *clipboard.Store, limiter *security.RateLimiter) *DeleteTool {
	return &DeleteTool{store: store, limiter: limiter}
}

// Definition returns the MCP tool definition for clip_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("clip_delete",
		mcp.WithDescription(
			"Delete a clipboard item permanently. For file items, the cached copy is removed too.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Record ID to delete"),
		),
	)
}

// Handle processes the clip_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.limiter.AllowGeneral(callerID(ctx)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := intArg(req, "id", 0)
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	found, err := t.store.Delete(int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("record %d not found", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Record %d deleted", id)), nil
}

// ─── ClearTool ──────────────────────────────────────────────────────────────

// ClearTool handles the clip_clear MCP tool.
type ClearTool struct {
	store   *clipboard.Store
	limiter *security.RateLimiter
}

// NewClearTool creates a ClearTool.
func NewClearTool(store *clipboard.Store, limiter *security.RateLimiter) *ClearTool {
	return &ClearTool{store: store, limiter: limiter}
}

// Definition returns the MCP tool definition for clip_clear.
func (t *ClearTool) Definition() mcp.Tool {
	return mcp.NewTool("clip_clear",
		mcp.WithDescription(
			"Clear clipboard history. By default pinned items survive; with "+
				"include_pinned everything is wiped and IDs start over from 1.",
		),
		mcp.WithBoolean("include_pinned",
			mcp.Description("Also remove pinned items and reset the ID sequence"),
		),
	)
}

// Handle processes the clip_clear tool call.
func (t *ClearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.limiter.AllowGeneral(callerID(ctx)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	includePinned := boolArg(req, "include_pinned", false)

	count, err := t.store.Clear(includePinned)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clear failed: %v", err)), nil
	}

	msg := fmt.Sprintf("Cleared %d items", count)
	if includePinned {
		msg += " (including pinned; ID sequence reset)"
	} else {
		msg += " (pinned items kept)"
	}
	return mcp.NewToolResultText(msg), nil
}
