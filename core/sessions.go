package orchestration

import (
	"context"
	"fmt"
	"sync"
)

// sessionLocks serialises turns per session. Entries are reference counted
// and dropped once no turn holds or waits for them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	slot chan struct{}
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: map[string]*sessionLock{}}
}

// acquire blocks until the session is free, or fails immediately with
// ErrSessionBusy when reject is set. Waiters are served in arrival order.
func (l *sessionLocks) acquire(ctx context.Context, sessionID string, reject bool) (release func(), err error) {
	l.mu.Lock()
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sessionLock{slot: make(chan struct{}, 1)}
		l.locks[sessionID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	if reject {
		select {
		case lock.slot <- struct{}{}:
		default:
			l.unref(sessionID, lock)
			return nil, fmt.Errorf("%w: %s", ErrSessionBusy, sessionID)
		}
	} else {
		select {
		case lock.slot <- struct{}{}:
		case <-ctx.Done():
			l.unref(sessionID, lock)
			return nil, fmt.Errorf("waiting for session %q: %w", sessionID, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.slot
			l.unref(sessionID, lock)
		})
	}, nil
}

func (l *sessionLocks) unref(sessionID string, lock *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, sessionID)
	}
}

func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
