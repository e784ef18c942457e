package security

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is wrapped by every rate-limit rejection.
var ErrRateLimited = errors.New("rate limited")

// RateLimitConfig holds the per-caller ceilings for one fixed window.
type RateLimitConfig struct {
	Window       time.Duration
	GeneralLimit int // all tool calls
	FileLimit    int // file-copy calls, counted independently
}

// DefaultRateLimitConfig returns the default ceilings: 100 general and
// 10 file operations per caller per minute.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:       time.Minute,
		GeneralLimit: 100,
		FileLimit:    10,
	}
}

// RateLimiter counts operations per caller identifier in fixed windows.
// It is constructed once in the composition root and shared by every
// tool handler; the mutex makes it safe under concurrent dispatch.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	callers map[string]*callerWindow

	// now is a field to allow test injection.
	now func() time.Time
}

type callerWindow struct {
	start   time.Time
	general int
	file    int
}

// NewRateLimiter creates a RateLimiter with the given ceilings.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		callers: make(map[string]*callerWindow),
		now:     time.Now,
	}
}

// AllowGeneral records one general operation for the caller and reports
// whether it is within the ceiling.
func (l *RateLimiter) AllowGeneral(caller string) error {
	return l.allow(caller, false)
}

// AllowFile records one file operation for the caller. File operations
// have their own, stricter ceiling and do not count against the general
// window.
func (l *RateLimiter) AllowFile(caller string) error {
	return l.allow(caller, true)
}

func (l *RateLimiter) allow(caller string, file bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.callers[caller]
	if w == nil || now.Sub(w.start) >= l.cfg.Window {
		w = &callerWindow{start: now}
		l.callers[caller] = w
	}

	if file {
		if w.file >= l.cfg.FileLimit {
			return fmt.Errorf("%w: more than %d file operations per %s", ErrRateLimited, l.cfg.FileLimit, l.cfg.Window)
		}
		w.file++
		return nil
	}
	if w.general >= l.cfg.GeneralLimit {
		return fmt.Errorf("%w: more than %d operations per %s", ErrRateLimited, l.cfg.GeneralLimit, l.cfg.Window)
	}
	w.general++
	return nil
}

// Sweep drops callers whose window expired more than one full window
// ago, bounding the map size. Called periodically by the server.
func (l *RateLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-2 * l.cfg.Window)
	for caller, w := range l.callers {
		if w.start.Before(cutoff) {
			delete(l.callers, caller)
		}
	}
}
