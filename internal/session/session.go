package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// Session describes one supervised attempt. TryCount and Backoff are fixed
// at creation; the connected and disconnected flags each flip at most once.
type Session struct {
	tryCount  int
	backoff   time.Duration
	startedAt time.Time

	gattConnected    atomic.Bool
	gattDisconnected atomic.Bool

	mu         sync.Mutex
	outcome    Outcome
	finishedAt time.Time
}

func newSession(tryCount int, backoff time.Duration) *Session {
	return &Session{
		tryCount:  tryCount,
		backoff:   backoff,
		startedAt: time.Now(),
	}
}

// TryCount is the zero-based attempt number within a supervisor run.
func (s *Session) TryCount() int { return s.tryCount }

// Backoff is the pause taken before this attempt connected.
func (s *Session) Backoff() time.Duration { return s.backoff }

func (s *Session) StartedAt() time.Time { return s.startedAt }

// GattConnected reports whether the transport reached the connected state.
func (s *Session) GattConnected() bool { return s.gattConnected.Load() }

// GattDisconnected reports whether the attempt has been torn down.
func (s *Session) GattDisconnected() bool { return s.gattDisconnected.Load() }

// Outcome is the attempt result; the zero Outcome until the session finished.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Duration is the time between start and finish, or since start while running.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finishedAt.IsZero() {
		return time.Since(s.startedAt)
	}
	return s.finishedAt.Sub(s.startedAt)
}

func (s *Session) markConnected() bool {
	return s.gattConnected.CompareAndSwap(false, true)
}

func (s *Session) finish(out Outcome) {
	s.mu.Lock()
	s.outcome = out
	s.finishedAt = time.Now()
	s.mu.Unlock()
	s.gattDisconnected.Store(true)
}
