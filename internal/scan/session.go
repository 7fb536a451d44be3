package scan

import (
	"context"
	"errors"
	"sync"

	"github.com/dvloznov/dompet/internal/domain"
)

// ErrSessionUsed is returned when Run is called twice on one session.
var ErrSessionUsed = errors.New("scan session already used")

type sessionState int

const (
	sessionIdle sessionState = iota
	sessionRunning
	sessionDone
	sessionDismissed
)

// Session is a single scan attempt tied to a capture resource such as a camera stream or an
// open file. The release function runs exactly once: when Run returns or when Dismiss is called,
// whichever comes first. A dismissed session never yields a draft.
type Session struct {
	svc     *Service
	release func()
	once    sync.Once

	mu     sync.Mutex
	state  sessionState
	cancel context.CancelFunc
}

// NewSession starts a session. release may be nil.
func (s *Service) NewSession(release func()) *Session {
	return &Session{svc: s, release: release}
}

// Run performs the scan. If the session is dismissed while the model call is in flight,
// the call is cancelled and its result discarded.
func (sess *Session) Run(ctx context.Context, req Request) (*domain.Draft, error) {
	sess.mu.Lock()
	switch sess.state {
	case sessionDismissed:
		sess.mu.Unlock()
		return nil, ErrAbandoned
	case sessionRunning, sessionDone:
		sess.mu.Unlock()
		return nil, ErrSessionUsed
	}
	ctx, cancel := context.WithCancel(ctx)
	sess.cancel = cancel
	sess.state = sessionRunning
	sess.mu.Unlock()

	defer cancel()
	defer sess.releaseOnce()

	draft, err := sess.svc.Scan(ctx, req)

	sess.mu.Lock()
	dismissed := sess.state == sessionDismissed
	if !dismissed {
		sess.state = sessionDone
	}
	sess.mu.Unlock()

	if dismissed {
		return nil, ErrAbandoned
	}
	return draft, err
}

// Dismiss abandons the session. It is safe to call at any time and more than once.
func (sess *Session) Dismiss() {
	sess.mu.Lock()
	if sess.state == sessionDone {
		sess.mu.Unlock()
		sess.releaseOnce()
		return
	}
	sess.state = sessionDismissed
	cancel := sess.cancel
	sess.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	sess.releaseOnce()
}

func (sess *Session) releaseOnce() {
	sess.once.Do(func() {
		if sess.release != nil {
			sess.release()
		}
	})
}
