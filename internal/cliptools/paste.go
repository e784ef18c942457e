package cliptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clipvault/internal/clipboard"
	"github.com/HendryAvila/clipvault/internal/security"
)

// PasteTool handles the clip_paste MCP tool.
type PasteTool struct {
	store   *clipboard.Store
	limiter *security.RateLimiter
}

// NewPasteTool creates a PasteTool.
func NewPasteTool(store *clipboard.Store, limiter *security.RateLimiter) *PasteTool {
	return &PasteTool{store: store, limiter: limiter}
}

// Definition returns the MCP tool definition for clip_paste.
func (t *PasteTool) Definition() mcp.Tool {
	return mcp.NewTool("clip_paste",
		mcp.WithDescription(
			"Paste an item from the persistent clipboard. Without an id, returns the most "+
				"recently copied non-private item.",
		),
		mcp.WithNumber("id",
			mcp.Description("Record ID to paste (default: the latest non-private item)"),
		),
	)
}

// Handle processes the clip_paste tool call.
func (t *PasteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.limiter.AllowGeneral(callerID(ctx)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var rec *clipboard.Record
	var err error
	if id := intArg(req, "id", 0); id > 0 {
		rec, err = t.store.Get(int64(id))
	} else {
		rec, err = t.store.Latest()
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("paste failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatRecordDetail(rec)), nil
}
