package cliptools

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clipvault/internal/clipboard"
	"github.com/HendryAvila/clipvault/internal/security"
)

// LookAtTool handles the clip_look_at MCP tool. Image records are
// returned inline as base64 image content; other file records return
// metadata plus the cached path.
type LookAtTool struct {
	store   *clipboard.Store
	limiter *security.RateLimiter
}

// NewLookAtTool creates a LookAtTool.
func NewLookAtTool(store *clipboard.Store, limiter *security.RateLimiter) *LookAtTool {
	return &LookAtTool{store: store, limiter: limiter}
}

// Definition returns the MCP tool definition for clip_look_at.
func (t *LookAtTool) Definition() mcp.Tool {
	return mcp.NewTool("clip_look_at",
		mcp.WithDescription(
			"Look at a file-backed clipboard item. Images are returned inline so they can be "+
				"viewed directly; other files return their metadata and cached location.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Record ID of the file item"),
		),
	)
}

// Handle processes the clip_look_at tool call.
func (t *LookAtTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.limiter.AllowGeneral(callerID(ctx)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := intArg(req, "id", 0)
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	rec, err := t.store.Get(int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("look_at failed: %v", err)), nil
	}
	if !rec.FileBacked() {
		return mcp.NewToolResultError(fmt.Sprintf("record %d is not file-backed; use clip_paste", id)), nil
	}

	if rec.ContentType == clipboard.TypeImageFile {
		data, err := os.ReadFile(*rec.CachedFilePath)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cannot read cached file: %v", err)), nil
		}
		return mcp.NewToolResultImage(
			formatRecordDetail(rec),
			base64.StdEncoding.EncodeToString(data),
			deref(rec.MimeType),
		), nil
	}

	return mcp.NewToolResultText(formatRecordDetail(rec)), nil
}
