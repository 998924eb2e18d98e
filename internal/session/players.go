package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/golang/glog"

	"yousef/internal/peer"
	"yousef/internal/protocol"
	"yousef/internal/store"
)

var ErrNotYourTurn = errors.New("NOT_YOUR_TURN: no selection is being awaited")

// HostPlayer is the host's own seat. Messages addressed to it are applied to
// the host's store; its turn waits are resolved by SelectCards and SelectDraw.
type HostPlayer struct {
	mu    sync.RWMutex
	name  string
	store *store.Store
	cards slot[[]int]
	draw  slot[protocol.DrawSource]
}

func newHostPlayer(st *store.Store) *HostPlayer {
	return &HostPlayer{store: st}
}

func (h *HostPlayer) Name() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.name
}

func (h *HostPlayer) setName(name string) {
	h.mu.Lock()
	h.name = name
	h.mu.Unlock()
	h.store.SetSelf(name)
}

func (h *HostPlayer) Send(ctx context.Context, t protocol.MessageType, payload any) error {
	env, err := protocol.NewEnvelope(t, payload)
	if err != nil {
		return err
	}
	if err := h.store.Apply(env); err != nil {
		return fmt.Errorf("apply %s locally: %w", t, err)
	}
	return nil
}

func (h *HostPlayer) RequestCardSelection(ctx context.Context, turn protocol.TurnUpdate) ([]int, error) {
	ch, err := h.cards.open()
	if err != nil {
		return nil, err
	}
	if err := h.Send(ctx, protocol.TypeTurnUpdate, turn); err != nil {
		glog.Errorf("Failed to announce turn to host: %v", err)
	}
	return h.cards.wait(ctx, ch)
}

func (h *HostPlayer) RequestDrawChoice(ctx context.Context, prompt protocol.ChatMessage) (protocol.DrawSource, error) {
	ch, err := h.draw.open()
	if err != nil {
		return "", err
	}
	if err := h.Send(ctx, protocol.TypeIncomingChat, prompt); err != nil {
		glog.Errorf("Failed to prompt host for a draw: %v", err)
	}
	return h.draw.wait(ctx, ch)
}

func (h *HostPlayer) DrawFinished(ctx context.Context) error {
	return h.Send(ctx, protocol.TypeDrawFinished, nil)
}

// SelectCards submits hand indices to discard; an empty list calls.
func (h *HostPlayer) SelectCards(indices []int) error {
	if len(indices) > 0 && h.cards.isOpen() {
		h.store.SetUserState(store.Drawing)
	}
	if !h.cards.resolve(slices.Clone(indices)) {
		return ErrNotYourTurn
	}
	return nil
}

func (h *HostPlayer) SelectDraw(source protocol.DrawSource) error {
	if !h.draw.resolve(source) {
		return ErrNotYourTurn
	}
	return nil
}

// RemotePlayer is a joined connection. Its name is fixed once negotiated.
type RemotePlayer struct {
	conn *peer.Conn
	name string
}

func (p *RemotePlayer) Name() string {
	return p.name
}

func (p *RemotePlayer) Send(ctx context.Context, t protocol.MessageType, payload any) error {
	return p.conn.Send(ctx, t, payload)
}

func (p *RemotePlayer) RequestCardSelection(ctx context.Context, turn protocol.TurnUpdate) ([]int, error) {
	for {
		env, err := p.conn.Request(ctx, protocol.TypeTurnUpdate, turn, protocol.TypeCardSelect)
		if err != nil {
			return nil, err
		}
		var sel protocol.CardSelect
		if err := env.Into(&sel); err != nil {
			glog.Warningf("Dropping %s from %s: %v", env.Type, p.name, err)
			continue
		}
		// Only an explicit empty list calls; a missing list is malformed.
		if sel.Hands == nil {
			glog.Warningf("Dropping %s from %s: no hands", env.Type, p.name)
			continue
		}
		return sel.Hands, nil
	}
}

func (p *RemotePlayer) RequestDrawChoice(ctx context.Context, prompt protocol.ChatMessage) (protocol.DrawSource, error) {
	for {
		env, err := p.conn.Request(ctx, protocol.TypeIncomingChat, prompt, protocol.TypeDrawSelect)
		if err != nil {
			return "", err
		}
		var sel protocol.DrawSelect
		if err := env.Into(&sel); err != nil {
			glog.Warningf("Dropping %s from %s: %v", env.Type, p.name, err)
			continue
		}
		return sel.Value, nil
	}
}

func (p *RemotePlayer) DrawFinished(ctx context.Context) error {
	return p.conn.Send(ctx, protocol.TypeDrawFinished, nil)
}
