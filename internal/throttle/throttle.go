package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dcfoodblog/backend/internal/config"
)

// ErrThrottled is matched by every ThrottledError
var ErrThrottled = errors.New("too many requests")

// ThrottledError tells the caller when the key may be used again
type ThrottledError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many requests for %s, retry in %s", e.Key, e.RetryAfter.Round(time.Second))
}

func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}

// Limiter spaces out events per key and locks a key after repeated failures
type Limiter struct {
	config config.ThrottleConfig
	logger *logrus.Entry
	states map[string]*keyState
	mu     sync.Mutex

	// Statistics
	stats Statistics
}

// keyState tracks one key, e.g. a restaurant's claim issuance
type keyState struct {
	lastEvent   time.Time
	lastAccess  time.Time
	failures    int
	lockedUntil time.Time
}

// Statistics holds limiter counters
type Statistics struct {
	Allowed  int64 `json:"allowed"`
	Rejected int64 `json:"rejected"`
	Failures int64 `json:"failures"`
	Lockouts int64 `json:"lockouts"`
	Keys     int   `json:"keys"`
}

func NewLimiter(cfg config.ThrottleConfig, logger *logrus.Entry) *Limiter {
	if logger == nil {
		logger = logrus.WithField("component", "throttle")
	}
	return &Limiter{
		config: cfg,
		logger: logger,
		states: make(map[string]*keyState),
	}
}

// Allow reports whether key may be used at now. It does not record an event;
// call Record once the guarded action succeeds.
func (l *Limiter) Allow(key string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.check(key, now)
	return err
}

// Reserve checks key and records an event at now in one step, so concurrent
// callers cannot both pass the interval check. The returned release restores
// the previous event time when the guarded action fails.
func (l *Limiter) Reserve(key string, now time.Time) (release func(), err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.check(key, now)
	if err != nil {
		return nil, err
	}
	previous := state.lastEvent
	state.lastEvent = now

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if s, ok := l.states[key]; ok && s.lastEvent.Equal(now) {
			s.lastEvent = previous
		}
	}, nil
}

// check must be called with l.mu held
func (l *Limiter) check(key string, now time.Time) (*keyState, error) {
	state := l.getOrCreateState(key, now)

	if now.Before(state.lockedUntil) {
		l.stats.Rejected++
		return state, &ThrottledError{Key: key, RetryAfter: state.lockedUntil.Sub(now)}
	}

	if !state.lastEvent.IsZero() && l.config.MinInterval > 0 {
		if elapsed := now.Sub(state.lastEvent); elapsed < l.config.MinInterval {
			l.stats.Rejected++
			return state, &ThrottledError{Key: key, RetryAfter: l.config.MinInterval - elapsed}
		}
	}

	l.stats.Allowed++
	return state, nil
}

// Record marks a successful event for key
func (l *Limiter) Record(key string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.getOrCreateState(key, now).lastEvent = now
}

// Failure counts a failed attempt. Reaching MaxFailures locks the key for Lockout.
func (l *Limiter) Failure(key string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := l.getOrCreateState(key, now)
	state.failures++
	l.stats.Failures++

	if l.config.MaxFailures > 0 && state.failures >= l.config.MaxFailures {
		state.lockedUntil = now.Add(l.config.Lockout)
		state.failures = 0
		l.stats.Lockouts++
		l.logger.WithFields(logrus.Fields{
			"key":          key,
			"locked_until": state.lockedUntil,
		}).Warn("Too many failed attempts, key locked")
	}
}

// Reset forgets the failures and lockout of key
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if state, ok := l.states[key]; ok {
		state.failures = 0
		state.lockedUntil = time.Time{}
	}
}

// Run removes idle keys every CleanupInterval until ctx is done
func (l *Limiter) Run(ctx context.Context) {
	if l.config.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	l.logger.Info("Cleanup worker started")
	defer l.logger.Info("Cleanup worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			l.Cleanup(t)
		}
	}
}

// Cleanup drops keys idle for longer than StateExpiry that are not locked
func (l *Limiter) Cleanup(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var expired []string
	for key, state := range l.states {
		if now.Sub(state.lastAccess) > l.config.StateExpiry && !now.Before(state.lockedUntil) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		delete(l.states, key)
	}

	if len(expired) > 0 {
		l.logger.WithField("expired_keys", len(expired)).Debug("Cleanup completed")
	}
	return len(expired)
}

func (l *Limiter) Statistics() Statistics {
	l.mu.Lock()
	defer l.mu.Unlock()
	stats := l.stats
	stats.Keys = len(l.states)
	return stats
}

// getOrCreateState must be called with l.mu held
func (l *Limiter) getOrCreateState(key string, now time.Time) *keyState {
	state, ok := l.states[key]
	if !ok {
		state = &keyState{}
		l.states[key] = state
	}
	state.lastAccess = now
	return state
}
