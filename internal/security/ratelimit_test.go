package security

import (
	"errors"
	"testing"
	"time"
)

func newTestLimiter(cfg RateLimitConfig) (*RateLimiter, *time.Time) {
	l := NewRateLimiter(cfg)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestRateLimiter_GeneralCeiling(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{Window: time.Minute, GeneralLimit: 3, FileLimit: 1})

	for i := 0; i < 3; i++ {
		if err := l.AllowGeneral("alice"); err != nil {
			t.Fatalf("call %d rejected: %v", i+1, err)
		}
	}
	if err := l.AllowGeneral("alice"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("call 4 error = %v, want ErrRateLimited", err)
	}
}

func TestRateLimiter_FileCeilingIndependent(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{Window: time.Minute, GeneralLimit: 100, FileLimit: 2})

	// Exhaust the file budget; general calls must still pass.
	for i := 0; i < 2; i++ {
		if err := l.AllowFile("alice"); err != nil {
			t.Fatalf("file call %d rejected: %v", i+1, err)
		}
	}
	if err := l.AllowFile("alice"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("file call 3 error = %v, want ErrRateLimited", err)
	}
	if err := l.AllowGeneral("alice"); err != nil {
		t.Errorf("general call after file limit: %v", err)
	}
}

func TestRateLimiter_CallersIsolated(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{Window: time.Minute, GeneralLimit: 1, FileLimit: 1})

	if err := l.AllowGeneral("alice"); err != nil {
		t.Fatalf("alice: %v", err)
	}
	if err := l.AllowGeneral("bob"); err != nil {
		t.Errorf("bob should have a fresh window: %v", err)
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	l, clock := newTestLimiter(RateLimitConfig{Window: time.Minute, GeneralLimit: 1, FileLimit: 1})

	if err := l.AllowGeneral("alice"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := l.AllowGeneral("alice"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second call should be limited, got %v", err)
	}

	*clock = clock.Add(time.Minute)
	if err := l.AllowGeneral("alice"); err != nil {
		t.Errorf("call after window rollover: %v", err)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(RateLimitConfig{Window: time.Minute, GeneralLimit: 10, FileLimit: 10})

	l.AllowGeneral("stale")
	*clock = clock.Add(3 * time.Minute)
	l.AllowGeneral("fresh")

	l.Sweep()

	if _, ok := l.callers["stale"]; ok {
		t.Error("stale caller should have been swept")
	}
	if _, ok := l.callers["fresh"]; !ok {
		t.Error("fresh caller should survive the sweep")
	}
}
