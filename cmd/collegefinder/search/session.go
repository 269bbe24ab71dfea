package search

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned by Session.Query when a newer search of the same
// session started before this one finished.
var ErrSuperseded = errors.New("search superseded by a newer search")

// Session serialises the searches of one user. Starting a search cancels
// the one in flight, and only the latest search may deliver a result.
type Session struct {
	svc *Service

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	lastUsed   time.Time
}

func NewSession(svc *Service) *Session {
	return &Session{svc: svc, lastUsed: time.Now()}
}

// Query runs req as the session's newest search.
func (s *Session) Query(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.lastUsed = time.Now()
	s.mu.Unlock()

	resp, err := s.svc.Query(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrSuperseded
	}
	s.cancel = nil
	return resp, err
}

// Generation is the number of searches started so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// LastUsed is when the latest search started.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
