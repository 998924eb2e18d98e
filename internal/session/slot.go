package session

import (
	"context"
	"sync"

	"yousef/internal/protocol"
)

// slot is a single-shot callback the host's own intents resolve.
type slot[T any] struct {
	mu sync.Mutex
	ch chan T
}

func (s *slot[T]) open() (chan T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch != nil {
		return nil, protocol.ErrWaitPending
	}
	s.ch = make(chan T, 1)
	return s.ch, nil
}

func (s *slot[T]) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch != nil
}

func (s *slot[T]) resolve(v T) bool {
	s.mu.Lock()
	ch := s.ch
	s.ch = nil
	s.mu.Unlock()

	if ch == nil {
		return false
	}
	ch <- v
	return true
}

func (s *slot[T]) wait(ctx context.Context, ch chan T) (T, error) {
	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		s.mu.Lock()
		if s.ch == ch {
			s.ch = nil
		}
		s.mu.Unlock()
		var zero T
		return zero, ctx.Err()
	}
}
