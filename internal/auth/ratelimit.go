package auth

import (
	"strings"
	"sync"
	"time"
)

// RateLimiter throttles login attempts per client IP and login name. It sits
// in front of the per-account lockout so that guessing across many accounts
// from one address is throttled too.
type RateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*attemptRecord
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

type RateLimitConfig struct {
	MaxAttempts     int
	WindowDuration  time.Duration
	LockoutDuration time.Duration
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	return &RateLimiter{
		attempts:    make(map[string]*attemptRecord),
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.WindowDuration,
		lockout:     cfg.LockoutDuration,
		now:         time.Now,
	}
}

func limiterKey(ip, login string) string {
	return ip + "|" + strings.ToLower(strings.TrimSpace(login))
}

// Allow reports whether another attempt may be made, and if not, for how long
// the caller must wait.
func (rl *RateLimiter) Allow(ip, login string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, ok := rl.attempts[limiterKey(ip, login)]
	if !ok {
		return true, 0
	}

	now := rl.now()
	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.firstAttempt) > rl.window {
		return true, 0
	}
	return record.count < rl.maxAttempts, 0
}

// RecordFailure counts a failed attempt and reports whether it triggered a lockout.
func (rl *RateLimiter) RecordFailure(ip, login string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.prune()

	key := limiterKey(ip, login)
	now := rl.now()
	record, ok := rl.attempts[key]
	if !ok || (now.Sub(record.firstAttempt) > rl.window && !now.Before(record.lockedUntil)) {
		record = &attemptRecord{firstAttempt: now}
		rl.attempts[key] = record
	}

	record.count++
	if record.count >= rl.maxAttempts {
		record.lockedUntil = now.Add(rl.lockout)
		return true
	}
	return false
}

func (rl *RateLimiter) RecordSuccess(ip, login string) {
	rl.mu.Lock()
	delete(rl.attempts, limiterKey(ip, login))
	rl.mu.Unlock()
}

// prune drops records whose window and lockout have both passed. Callers hold mu.
func (rl *RateLimiter) prune() {
	now := rl.now()
	for key, record := range rl.attempts {
		if now.Sub(record.firstAttempt) > rl.window && !now.Before(record.lockedUntil) {
			delete(rl.attempts, key)
		}
	}
}
