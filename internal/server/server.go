// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it probes the environment once, builds
// the path resolver, security gate, cache manager, and store, and
// injects them into the tool handlers. No business logic lives here —
// only wiring.
package server

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/clipvault/internal/clipboard"
	"github.com/HendryAvila/clipvault/internal/cliptools"
	"github.com/HendryAvila/clipvault/internal/config"
	"github.com/HendryAvila/clipvault/internal/filecache"
	"github.com/HendryAvila/clipvault/internal/paths"
	"github.com/HendryAvila/clipvault/internal/security"
)

// Version is set at build time via ldflags.
var Version = "dev"

// sweepInterval paces the background maintenance ticker (private-record
// expiry and rate-limiter cleanup).
const sweepInterval = 5 * time.Minute

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function stops background maintenance and closes
// the store's database connection; it must be called on shutdown
// (typically via defer) and is always non-nil.
func New() (*server.MCPServer, func(), error) {
	// Logging goes to stderr as JSON: stdout belongs to the stdio
	// transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	// Environment probe happens exactly once, here.
	resolver, err := paths.NewResolver()
	if err != nil {
		return nil, noop, fmt.Errorf("creating path resolver: %w", err)
	}

	cfg := config.Load(resolver.DataDir())

	store, err := clipboard.New(cfg.Clipboard, logger)
	if err != nil {
		return nil, noop, fmt.Errorf("opening clipboard store: %w", err)
	}

	cache, err := filecache.New(resolver.DataDir(), cfg.MaxFileSize, logger)
	if err != nil {
		_ = store.Close()
		return nil, noop, fmt.Errorf("creating file cache: %w", err)
	}

	limiter := security.NewRateLimiter(cfg.RateLimits)

	s := server.NewMCPServer(
		"clipvault",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	copyTool := cliptools.NewCopyTool(store, limiter)
	s.AddTool(copyTool.Definition(), copyTool.Handle)

	copyFileTool := cliptools.NewCopyFileTool(store, cache, resolver, limiter)
	s.AddTool(copyFileTool.Definition(), copyFileTool.Handle)

	pasteTool := cliptools.NewPasteTool(store, limiter)
	s.AddTool(pasteTool.Definition(), pasteTool.Handle)

	listTool := cliptools.NewListTool(store, limiter)
	s.AddTool(listTool.Definition(), listTool.Handle)

	searchTool := cliptools.NewSearchTool(store, limiter)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	pinTool := cliptools.NewPinTool(store, limiter)
	s.AddTool(pinTool.Definition(), pinTool.Handle)

	deleteTool := cliptools.NewDeleteTool(store, limiter)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	clearTool := cliptools.NewClearTool(store, limiter)
	s.AddTool(clearTool.Definition(), clearTool.Handle)

	statsTool := cliptools.NewStatsTool(store, cache, limiter)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	lookAtTool := cliptools.NewLookAtTool(store, limiter)
	s.AddTool(lookAtTool.Definition(), lookAtTool.Handle)

	// Background maintenance: the private-expiry sweep also runs at
	// startup inside clipboard.New; the ticker keeps long-lived
	// processes from accumulating stale private records.
	stop := make(chan struct{})
	go maintenanceLoop(store, limiter, logger, stop)

	cleanup := func() {
		close(stop)
		if err := store.Close(); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}

	return s, cleanup, nil
}

// noop is the default cleanup when construction fails.
func noop() {}

// maintenanceLoop periodically expires private records and sweeps idle
// rate-limiter entries until stop is closed.
func maintenanceLoop(store *clipboard.Store, limiter *security.RateLimiter, logger *slog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if n, err := store.ExpirePrivate(); err != nil {
				logger.Warn("private expiry sweep failed", "error", err)
			} else if n > 0 {
				logger.Info("expired private records", "count", n)
			}
			limiter.Sweep()
		}
	}
}

// serverInstructions returns the system instructions that tell the AI
// how to use the clipboard effectively.
func serverInstructions() string {
	return `You have access to clipvault, a persistent clipboard for AI agents.

Items you copy survive between sessions. Use it as durable working memory
for text snippets, HTML fragments, and files.

## Tools
- clip_copy: store text or html. Set private=true for secrets or scratch
  data — private items are hidden from listing/search and auto-expire.
- clip_copy_file: store a file by path. The bytes are cached, so the item
  outlives the original file. Files over the size limit are rejected.
- clip_paste: retrieve an item by id, or the latest item without an id.
- clip_list / clip_search: browse or full-text search the history.
- clip_pin: toggle a pin. Pinned items never fall out of the history
  window; only the newest unpinned items are kept.
- clip_delete / clip_clear: remove one item, or everything (pinned items
  survive clear unless include_pinned=true).
- clip_stats: counts and on-disk sizes.
- clip_look_at: view a file item; images are returned inline.

## Conventions
- Pin anything you will need across sessions: unpinned history is bounded
  and the oldest items are evicted as new ones arrive.
- Use private=true for anything sensitive; private items expire on their
  own and never show up in search.
- File paths must stay inside your home or working directory.`
}
