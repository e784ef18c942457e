package cliptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clipvault/internal/clipboard"
	"github.com/HendryAvila/clipvault/internal/security"
)

// ─── ListTool ───────────────────────────────────────────────────────────────

// ListTool handles the clip_list MCP tool.
type ListTool struct {
	store   *clipboard.Store
	limiter *security.RateLimiter
}

// NewListTool creates a ListTool.
func NewListTool(store *clipboard.Store, limiter *security.RateLimiter) *ListTool {
	return &ListTool{store: store, limiter: limiter}
}

// Definition returns the MCP tool definition for clip_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("clip_list",
		mcp.WithDescription(
			"List clipboard history: pinned items first, then newest first. "+
				"Private items are hidden unless include_private is set.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Max items to return (default: 20)"),
		),
		mcp.WithBoolean("include_private",
			mcp.Description("Include private items in the listing"),
		),
	)
}

// Handle processes the clip_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.limiter.AllowGeneral(callerID(ctx)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := intArg(req, "limit", 20)
	includePrivate := boolArg(req, "include_private", false)

	records, err := t.store.List(limit, includePrivate)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("Clipboard is empty."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Clipboard History (%d items)\n\n", len(records))
	for i := range records {
		sb.WriteString(formatRecordLine(&records[i]))
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── SearchTool ─────────────────────────────────────────────────────────────

// SearchTool handles the clip_search MCP tool.
type SearchTool struct {
	store   *clipboard.Store
	limiter *security.RateLimiter
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store *clipboard.Store, limiter *security.RateLimiter) *SearchTool {
	return &SearchTool{store: store, limiter: limiter}
}

// Definition returns the MCP tool definition for clip_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("clip_search",
		mcp.WithDescription(
			"Full-text search over clipboard history (content and previews). "+
				"Private items never appear in search results.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (at least 2 characters)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20)"),
		),
	)
}

// Handle processes the clip_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.limiter.AllowGeneral(callerID(ctx)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := req.GetString("query", "")
	limit := intArg(req, "limit", 20)

	records, err := t.store.Search(query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No matches for %q.", query)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search Results for %q (%d)\n\n", query, len(records))
	for i := range records {
		sb.WriteString(formatRecordLine(&records[i]))
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
