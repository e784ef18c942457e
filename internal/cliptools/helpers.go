// Package cliptools provides the MCP tool handlers for the clipboard
// engine.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Handlers validate and rate-limit input, delegate to the engine, and
// render results; no retention logic lives here.
package cliptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/clipvault/internal/clipboard"
)

// defaultCaller identifies the single client behind the stdio
// transport for rate-limiting purposes.
const defaultCaller = "default"

// callerID returns the rate-limit identifier for a request.
func callerID(_ context.Context) string {
	return defaultCaller
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// formatRecordLine renders one record as a list entry.
func formatRecordLine(rec *clipboard.Record) string {
	var flags []string
	if rec.IsPinned {
		flags = append(flags, "pinned")
	}
	if rec.IsPrivate {
		flags = append(flags, "private")
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " [" + strings.Join(flags, ", ") + "]"
	}
	return fmt.Sprintf("- #%d (%s) %s%s — %s", rec.ID, rec.ContentType, rec.Preview, suffix, rec.CreatedAt)
}

// formatRecordDetail renders the full view of a record.
func formatRecordDetail(rec *clipboard.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Record #%d\n\n", rec.ID)
	fmt.Fprintf(&sb, "- **Type**: %s\n", rec.ContentType)
	fmt.Fprintf(&sb, "- **Created**: %s\n", rec.CreatedAt)
	fmt.Fprintf(&sb, "- **Pinned**: %t\n", rec.IsPinned)
	fmt.Fprintf(&sb, "- **Private**: %t\n", rec.IsPrivate)
	if rec.FileBacked() {
		fmt.Fprintf(&sb, "- **Original path**: %s\n", deref(rec.OriginalPath))
		fmt.Fprintf(&sb, "- **Cached copy**: %s\n", deref(rec.CachedFilePath))
		fmt.Fprintf(&sb, "- **MIME type**: %s\n", deref(rec.MimeType))
		if rec.FileSize != nil {
			fmt.Fprintf(&sb, "- **Size**: %s\n", clipboard.FormatSize(*rec.FileSize))
		}
	} else {
		fmt.Fprintf(&sb, "\n%s\n", rec.Content)
	}
	return sb.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
