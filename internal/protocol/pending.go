package protocol

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrWaitPending = errors.New("WAIT_PENDING: a response of this type is already awaited")
	ErrClosed      = errors.New("CONNECTION_CLOSED: connection closed while waiting")
)

// Pending correlates inbound responses with the single waiter registered for
// their type on one connection.
type Pending struct {
	mu      sync.Mutex
	waiters map[MessageType]*Waiter
	closed  chan struct{}
	once    sync.Once
}

func NewPending() *Pending {
	return &Pending{
		waiters: make(map[MessageType]*Waiter),
		closed:  make(chan struct{}),
	}
}

// Waiter resolves with the first envelope of any of its types.
type Waiter struct {
	pending *Pending
	types   []MessageType
	ch      chan Envelope
}

// Expect registers a waiter for types. Register before sending the request
// that provokes the response, otherwise a fast reply is dispatched as a
// broadcast.
func (p *Pending) Expect(types ...MessageType) (*Waiter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.closed:
		return nil, ErrClosed
	default:
	}

	for _, t := range types {
		if _, exists := p.waiters[t]; exists {
			return nil, ErrWaitPending
		}
	}

	w := &Waiter{pending: p, types: types, ch: make(chan Envelope, 1)}
	for _, t := range types {
		p.waiters[t] = w
	}
	return w, nil
}

// Resolve hands env to its waiter, if any, and reports whether it was consumed.
func (p *Pending) Resolve(env Envelope) bool {
	p.mu.Lock()
	w, ok := p.waiters[env.Type]
	if ok {
		p.remove(w)
	}
	p.mu.Unlock()

	if !ok {
		return false
	}
	w.ch <- env
	return true
}

// Close fails every current and future wait with ErrClosed.
func (p *Pending) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		close(p.closed)
		clear(p.waiters)
	})
}

func (p *Pending) Waiting(t MessageType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.waiters[t]
	return ok
}

// caller holds p.mu
func (p *Pending) remove(w *Waiter) {
	for _, t := range w.types {
		if p.waiters[t] == w {
			delete(p.waiters, t)
		}
	}
}

// Wait suspends until the response arrives, the connection closes or ctx ends.
func (w *Waiter) Wait(ctx context.Context) (Envelope, error) {
	select {
	case env := <-w.ch:
		return env, nil
	case <-w.pending.closed:
		select {
		case env := <-w.ch:
			return env, nil
		default:
			return Envelope{}, ErrClosed
		}
	case <-ctx.Done():
		w.Cancel()
		return Envelope{}, ctx.Err()
	}
}

// Cancel unregisters the waiter without resolving it.
func (w *Waiter) Cancel() {
	w.pending.mu.Lock()
	defer w.pending.mu.Unlock()
	w.pending.remove(w)
}
