// Package config builds the engine configuration from the environment.
// It is read once by the composition root; nothing re-reads env vars at
// request time.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/HendryAvila/clipvault/internal/clipboard"
	"github.com/HendryAvila/clipvault/internal/filecache"
	"github.com/HendryAvila/clipvault/internal/security"
)

// Environment variable names. CLIPVAULT_DATA_DIR and the sandbox
// markers are consumed by the paths package.
const (
	maxRecordsEnv  = "CLIPVAULT_MAX_RECORDS"
	privateTTLEnv  = "CLIPVAULT_PRIVATE_TTL"
	maxFileSizeEnv = "CLIPVAULT_MAX_FILE_SIZE"
)

// Config aggregates the settings of every engine component.
type Config struct {
	Clipboard   clipboard.Config
	MaxFileSize int64
	RateLimits  security.RateLimitConfig
}

// Load returns the configuration for the given data directory, with
// environment overrides applied on top of the defaults.
func Load(dataDir string) Config {
	cc := clipboard.DefaultConfig()
	cc.DataDir = dataDir
	if n := intEnv(maxRecordsEnv); n > 0 {
		cc.MaxRecords = n
	}
	if ttl := durationEnv(privateTTLEnv); ttl > 0 {
		cc.PrivateTTL = ttl
	}

	maxFileSize := filecache.DefaultMaxFileSize
	if n := intEnv(maxFileSizeEnv); n > 0 {
		maxFileSize = int64(n)
	}

	return Config{
		Clipboard:   cc,
		MaxFileSize: maxFileSize,
		RateLimits:  security.DefaultRateLimitConfig(),
	}
}

func intEnv(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func durationEnv(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
