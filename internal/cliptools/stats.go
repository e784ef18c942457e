package cliptools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clipvault/internal/clipboard"
	"github.com/HendryAvila/clipvault/internal/filecache"
	"github.com/HendryAvila/clipvault/internal/security"
)

// StatsTool handles the clip_stats MCP tool.
type StatsTool struct {
	store   *clipboard.Store
	cache   *filecache.Manager
	limiter *security.RateLimiter
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(store *clipboard.Store, cache *filecache.Manager, limiter *security.RateLimiter) *StatsTool {
	return &StatsTool{store: store, cache: cache, limiter: limiter}
}

// Definition returns the MCP tool definition for clip_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("clip_stats",
		mcp.WithDescription(
			"Show clipboard statistics — item counts, pinned and file-backed totals, and on-disk sizes.",
		),
	)
}

// Handle processes the clip_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.limiter.AllowGeneral(callerID(ctx)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stats, err := t.store.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Clipboard Statistics\n\n")
	fmt.Fprintf(&sb, "- **Items**: %d\n", stats.Total)
	fmt.Fprintf(&sb, "- **Pinned**: %d\n", stats.Pinned)
	fmt.Fprintf(&sb, "- **File-backed**: %d\n", stats.FileBacked)
	fmt.Fprintf(&sb, "- **Cached file bytes**: %s\n", humanize.Bytes(uint64(stats.CacheSizeBytes)))

	// On-disk figures are presentational; failures here don't fail the call.
	if size, err := t.cache.Size(); err == nil {
		fmt.Fprintf(&sb, "- **Cache directory**: %s\n", humanize.Bytes(uint64(size)))
	}
	if info, err := os.Stat(t.store.DatabasePath()); err == nil {
		fmt.Fprintf(&sb, "- **Database**: %s\n", humanize.Bytes(uint64(info.Size())))
	}

	return mcp.NewToolResultText(sb.String()), nil
}
