// clipvault: a persistent clipboard MCP server.
//
// Gives AI coding tools a durable working memory for text and files:
// full-text searchable history, pinning, private auto-expiring items,
// and cached file copies that outlive the originals.
//
// Usage:
//
//	clipvault serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	clipserver "github.com/HendryAvila/clipvault/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("clipvault v%s\n", clipserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := clipserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Run cleanup on interrupt too — the stdio server returns when
	// stdin closes, but a signal can arrive first.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cleanup()
		os.Exit(0)
	}()

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `clipvault v%s — persistent clipboard MCP server

Usage:
  clipvault serve    Start the MCP server (stdio transport)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "clipvault": {
        "command": "clipvault",
        "args": ["serve"]
      }
    }
  }

Environment:
  CLIPVAULT_DATA_DIR       Override the data directory (default ~/.clipvault)
  CLIPVAULT_MAX_RECORDS    History ceiling for unpinned items (default 50)
  CLIPVAULT_PRIVATE_TTL    Private item lifetime, e.g. 30m (default 1h)
  CLIPVAULT_MAX_FILE_SIZE  Per-file size limit in bytes (default 100MB)
  CLIPVAULT_SANDBOX        Set to 1 to force sandboxed path mapping
  CLIPVAULT_HOST_HOME      Host home directory mapped at /host/home (sandbox)
  CLIPVAULT_HOST_CWD       Host working directory mapped at /host/cwd (sandbox)
`, clipserver.Version)
}
