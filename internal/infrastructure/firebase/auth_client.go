package firebase

import (
	"context"
	"sync"

	"firebase.google.com/go/v4/auth"

	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
	"marketsync/pkg/stream"
)

// TokenVerifier is the part of *auth.Client the session tracker needs.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// SessionTracker follows one client's Firebase Auth session. Each verified
// ID token publishes its uid; SignOut publishes "".
type SessionTracker struct {
	verifier TokenVerifier

	mu      sync.Mutex
	uid     string
	changed chan struct{}
}

func NewSessionTracker(verifier TokenVerifier) *SessionTracker {
	return &SessionTracker{
		verifier: verifier,
		changed:  make(chan struct{}),
	}
}

// SignIn verifies the ID token and switches the session to its uid.
func (s *SessionTracker) SignIn(ctx context.Context, idToken string) (string, error) {
	token, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	s.set(token.UID)
	logger.Debug("Session signed in: uid=%s", token.UID)
	return token.UID, nil
}

func (s *SessionTracker) SignOut() {
	s.set("")
}

func (s *SessionTracker) CurrentUID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}

func (s *SessionTracker) set(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uid == uid {
		return
	}
	s.uid = uid
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *SessionTracker) snapshot() (string, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid, s.changed
}

// Subscribe emits the current uid immediately and then every change.
func (s *SessionTracker) Subscribe(ctx context.Context) *stream.Stream[string] {
	return stream.Start(ctx, func(ctx context.Context, emit func(string)) error {
		for {
			uid, changed := s.snapshot()
			emit(uid)
			select {
			case <-ctx.Done():
				return nil
			case <-changed:
			}
		}
	})
}
