// Package paths translates caller-supplied file paths into concrete,
// accessible filesystem paths and decides where persisted state lives.
//
// Two environments are supported: direct filesystem access (the binary
// runs on the caller's machine) and a sandboxed container where the
// caller's home and working directories are volume-mapped under known
// mount roots. The variant is chosen exactly once at process start.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrAccessDenied is wrapped when a path cannot be mapped into the
// visible filesystem.
var ErrAccessDenied = errors.New("access denied")

// Resolver turns a validated caller path into a path the process can
// actually open, and owns the data-directory decision.
type Resolver interface {
	// Resolve maps a validated absolute caller path to an accessible
	// filesystem path.
	Resolve(input string) (string, error)
	// DataDir is the root directory for the database and file cache.
	DataDir() string
	// Roots lists the caller-side directories paths may live under.
	// Fed to security.ValidatePath.
	Roots() []string
}

const (
	// dataDirEnv overrides the data directory in both variants.
	dataDirEnv = "CLIPVAULT_DATA_DIR"
	// sandboxEnv forces sandbox detection regardless of /.dockerenv.
	sandboxEnv = "CLIPVAULT_SANDBOX"
	// hostHomeEnv and hostCwdEnv tell the sandbox variant which host
	// directories the mounts correspond to.
	hostHomeEnv = "CLIPVAULT_HOST_HOME"
	hostCwdEnv  = "CLIPVAULT_HOST_CWD"

	// Mount points inside the container.
	homeMount = "/host/home"
	cwdMount  = "/host/cwd"

	// sandboxDataDir is the container-internal default data directory.
	sandboxDataDir = "/data"

	// dockerMarker exists inside Docker containers.
	dockerMarker = "/.dockerenv"
)

// Sandboxed reports whether the process runs inside the sandboxed
// container. Checked once by NewResolver, never per call.
func Sandboxed() bool {
	if os.Getenv(sandboxEnv) == "1" {
		return true
	}
	_, err := os.Stat(dockerMarker)
	return err == nil
}

// NewResolver probes the environment and returns the matching variant.
func NewResolver() (Resolver, error) {
	if Sandboxed() {
		return NewSandboxResolver()
	}
	return NewDirectResolver()
}

// ─── Direct variant ──────────────────────────────────────────────────────────

// DirectResolver resolves paths against the process's own filesystem.
type DirectResolver struct {
	home    string
	cwd     string
	dataDir string
}

// NewDirectResolver builds the direct variant. The data directory
// defaults to ~/.clipvault unless CLIPVAULT_DATA_DIR overrides it.
func NewDirectResolver() (*DirectResolver, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("paths: home directory: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("paths: working directory: %w", err)
	}

	dataDir := os.Getenv(dataDirEnv)
	if dataDir == "" {
		dataDir = filepath.Join(home, ".clipvault")
	}

	return &DirectResolver{home: home, cwd: cwd, dataDir: dataDir}, nil
}

// Resolve returns the cleaned absolute form of input.
func (r *DirectResolver) Resolve(input string) (string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("paths: resolve %s: %w", input, err)
	}
	return filepath.Clean(abs), nil
}

// DataDir returns the state directory for the direct variant.
func (r *DirectResolver) DataDir() string { return r.dataDir }

// Roots returns the caller's home and working directories.
func (r *DirectResolver) Roots() []string { return []string{r.home, r.cwd} }

// ─── Sandbox variant ─────────────────────────────────────────────────────────

// mount pairs a host directory with its mount point in the container.
type mount struct {
	hostPrefix string
	mountPoint string
}

// SandboxResolver maps host paths into the container's volume mounts.
type SandboxResolver struct {
	mounts  []mount
	dataDir string

	// stat is a field to allow test injection.
	stat func(string) (os.FileInfo, error)
}

// NewSandboxResolver builds the sandbox variant from the host-directory
// environment markers. At least one mount must be configured.
func NewSandboxResolver() (*SandboxResolver, error) {
	var mounts []mount
	if h := os.Getenv(hostHomeEnv); h != "" {
		mounts = append(mounts, mount{hostPrefix: filepath.Clean(h), mountPoint: homeMount})
	}
	if c := os.Getenv(hostCwdEnv); c != "" {
		mounts = append(mounts, mount{hostPrefix: filepath.Clean(c), mountPoint: cwdMount})
	}
	if len(mounts) == 0 {
		return nil, fmt.Errorf("paths: sandbox mode needs %s or %s", hostHomeEnv, hostCwdEnv)
	}

	dataDir := os.Getenv(dataDirEnv)
	if dataDir == "" {
		dataDir = sandboxDataDir
	}

	return &SandboxResolver{mounts: mounts, dataDir: dataDir, stat: os.Stat}, nil
}

// Resolve maps a host path into one of the known mounts. A path outside
// every mount, or one whose mapped form does not exist in the visible
// filesystem, fails with ErrAccessDenied.
func (r *SandboxResolver) Resolve(input string) (string, error) {
	cleaned := filepath.Clean(input)
	for _, m := range r.mounts {
		rel, ok := underPrefix(cleaned, m.hostPrefix)
		if !ok {
			continue
		}
		mapped := filepath.Join(m.mountPoint, rel)
		if _, err := r.stat(mapped); err != nil {
			return "", fmt.Errorf("%w: %s is not visible inside the sandbox", ErrAccessDenied, input)
		}
		return mapped, nil
	}
	return "", fmt.Errorf("%w: %s is outside the sandbox mounts", ErrAccessDenied, input)
}

// DataDir returns the state directory for the sandbox variant.
func (r *SandboxResolver) DataDir() string { return r.dataDir }

// Roots returns the host-side prefixes of the configured mounts.
func (r *SandboxResolver) Roots() []string {
	roots := make([]string, len(r.mounts))
	for i, m := range r.mounts {
		roots[i] = m.hostPrefix
	}
	return roots
}

// underPrefix reports whether path equals prefix or lives below it, and
// returns the relative remainder.
func underPrefix(path, prefix string) (string, bool) {
	if path == prefix {
		return ".", true
	}
	if strings.HasPrefix(path, prefix+string(filepath.Separator)) {
		return strings.TrimPrefix(path, prefix+string(filepath.Separator)), true
	}
	return "", false
}
