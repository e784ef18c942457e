package cliptools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clipvault/internal/clipboard"
	"github.com/HendryAvila/clipvault/internal/filecache"
	"github.com/HendryAvila/clipvault/internal/paths"
	"github.com/HendryAvila/clipvault/internal/security"
)

// ─── CopyTool ───────────────────────────────────────────────────────────────

// CopyTool handles the clip_copy MCP tool.
type CopyTool struct {
	store   *clipboard.Store
	limiter *security.RateLimiter
}

// NewCopyTool creates a CopyTool.
func NewCopyTool(store *clipboard.Store, limiter *security.RateLimiter) *CopyTool {
	return &CopyTool{store: store, limiter: limiter}
}

// Definition returns the MCP tool definition for clip_copy.
func (t *CopyTool) Definition() mcp.Tool {
	return mcp.NewTool("clip_copy",
		mcp.WithDescription(
			"Copy text to the persistent clipboard. The item survives between sessions, "+
				"is full-text searchable, and can be pinned to protect it from history eviction.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The text to store"),
		),
		mcp.WithString("content_type",
			mcp.Description("Content type: text (default) or html"),
		),
		mcp.WithBoolean("private",
			mcp.Description("Mark the item private: hidden from listing and search, auto-expires after the private TTL"),
		),
	)
}

// Handle processes the clip_copy tool call.
func (t *CopyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.limiter.AllowGeneral(callerID(ctx)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' must not be empty"), nil
	}
	contentType := clipboard.ContentType(req.GetString("content_type", string(clipboard.TypeText)))
	private := boolArg(req, "private", false)

	rec, err := t.store.InsertText(content, contentType, private)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("copy failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Copied to clipboard (ID: %d)\nPreview: %s", rec.ID, rec.Preview)), nil
}

// ─── CopyFileTool ───────────────────────────────────────────────────────────

// CopyFileTool handles the clip_copy_file MCP tool. The path runs the
// full gauntlet before anything is persisted: file rate limit, path
// validation, environment resolution, existence check, size ceiling,
// cache copy.
type CopyFileTool struct {
	store    *clipboard.Store
	cache    *filecache.Manager
	resolver paths.Resolver
	limiter  *security.RateLimiter
}

// NewCopyFileTool creates a CopyFileTool.
func NewCopyFileTool(store *clipboard.Store, cache *filecache.Manager, resolver paths.Resolver, limiter *security.RateLimiter) *CopyFileTool {
	return &CopyFileTool{store: store, cache: cache, resolver: resolver, limiter: limiter}
}

// Definition returns the MCP tool definition for clip_copy_file.
func (t *CopyFileTool) Definition() mcp.Tool {
	return mcp.NewTool("clip_copy_file",
		mcp.WithDescription(
			"Copy a file to the persistent clipboard. The file's bytes are cached so the "+
				"item stays usable even if the original file moves or is deleted. "+
				"Images, videos and documents are classified by extension.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the file (absolute, relative, or ~-prefixed; must stay inside your home or working directory)"),
		),
		mcp.WithBoolean("private",
			mcp.Description("Mark the item private: hidden from listing and search, auto-expires after the private TTL"),
		),
	)
}

// Handle processes the clip_copy_file tool call.
func (t *CopyFileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.limiter.AllowFile(callerID(ctx)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	input := req.GetString("path", "")
	private := boolArg(req, "private", false)

	validated, err := security.ValidatePath(input, t.resolver.Roots())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := t.resolver.Resolve(validated)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return mcp.NewToolResultError(fmt.Sprintf("file not found: %s", input)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("cannot access %s: %v", input, err)), nil
	}
	if info.IsDir() {
		return mcp.NewToolResultError(fmt.Sprintf("%s is a directory, not a file", input)), nil
	}
	if err := t.cache.CheckSize(info.Size()); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cachedPath, size, err := t.cache.Cache(resolved)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("caching failed: %v", err)), nil
	}

	rec, err := t.store.InsertFile(clipboard.InsertFileParams{
		CachedPath:   cachedPath,
		OriginalPath: validated,
		ContentType:  filecache.Classify(validated),
		MimeType:     filecache.MimeType(validated),
		FileSize:     size,
		IsPrivate:    private,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("copy failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"File copied to clipboard (ID: %d)\n%s\nType: %s, MIME: %s",
		rec.ID, rec.Preview, rec.ContentType, deref(rec.MimeType),
	)), nil
}
