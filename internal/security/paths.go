// Package security validates untrusted caller input before it reaches the
// storage engine or the filesystem: path normalization against a set of
// allowed roots, FTS5 query sanitizing, and per-caller rate limiting.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrInvalidPath is wrapped by every path validation failure.
var ErrInvalidPath = errors.New("invalid path")

// allowedPathChars is the character allow-list for caller-supplied paths.
// Anything outside it (control characters, shell metacharacters, quotes)
// is rejected before the path touches the filesystem layer.
var allowedPathChars = regexp.MustCompile(`^[a-zA-Z0-9 ._\-/~+@()]+$`)

// userHomeDir is a package-level var to allow test injection.
var userHomeDir = os.UserHomeDir

// ValidatePath normalizes a caller-supplied path and verifies it stays
// inside one of the allowed roots. It expands a leading "~" before
// normalization and rejects any parent-directory traversal outright.
//
// The returned path is absolute and cleaned but not checked for
// existence — that is the path resolver's job.
func ValidatePath(input string, roots []string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.ContainsRune(input, 0) {
		return "", fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}
	if !allowedPathChars.MatchString(input) {
		return "", fmt.Errorf("%w: path contains disallowed characters", ErrInvalidPath)
	}
	for _, seg := range strings.Split(filepath.ToSlash(input), "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: parent-directory traversal", ErrInvalidPath)
		}
	}

	expanded := input
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := userHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: cannot expand ~: %v", ErrInvalidPath, err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	abs = filepath.Clean(abs)

	for _, root := range roots {
		if underRoot(abs, root) {
			return abs, nil
		}
	}
	return "", fmt.Errorf("%w: %s is outside the allowed directories", ErrInvalidPath, abs)
}

// underRoot reports whether path is root itself or a descendant of root.
func underRoot(path, root string) bool {
	root = filepath.Clean(root)
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
