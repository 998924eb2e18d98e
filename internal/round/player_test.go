package round

import (
	"context"
	"sync"

	"yousef/internal/protocol"
)

// scriptedPlayer answers requests from fixed queues. An exhausted selection
// queue calls; an exhausted draw queue draws from the deck.
type scriptedPlayer struct {
	name string

	mu         sync.Mutex
	selections [][]int
	draws      []protocol.DrawSource
	sent       []protocol.Envelope
	turns      int
	prompts    int
	finished   int
	failWith   error
}

func newScripted(name string, selections ...[]int) *scriptedPlayer {
	return &scriptedPlayer{name: name, selections: selections}
}

func (p *scriptedPlayer) Name() string { return p.name }

func (p *scriptedPlayer) Send(ctx context.Context, t protocol.MessageType, payload any) error {
	env, err := protocol.NewEnvelope(t, payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, env)
	return nil
}

func (p *scriptedPlayer) RequestCardSelection(ctx context.Context, turn protocol.TurnUpdate) ([]int, error) {
	if err := p.Send(ctx, protocol.TypeTurnUpdate, turn); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.turns++
	if p.failWith != nil {
		return nil, p.failWith
	}
	if len(p.selections) == 0 {
		return nil, nil
	}
	next := p.selections[0]
	p.selections = p.selections[1:]
	return next, nil
}

func (p *scriptedPlayer) RequestDrawChoice(ctx context.Context, prompt protocol.ChatMessage) (protocol.DrawSource, error) {
	if err := p.Send(ctx, protocol.TypeIncomingChat, prompt); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts++
	if len(p.draws) == 0 {
		return protocol.DrawDeck, nil
	}
	next := p.draws[0]
	p.draws = p.draws[1:]
	return next, nil
}

func (p *scriptedPlayer) DrawFinished(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished++
	return nil
}

// received returns every envelope of type t sent to the player.
func (p *scriptedPlayer) received(t protocol.MessageType) []protocol.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []protocol.Envelope
	for _, env := range p.sent {
		if env.Type == t {
			out = append(out, env)
		}
	}
	return out
}

func (p *scriptedPlayer) chats() []string {
	var lines []string
	for _, env := range p.received(protocol.TypeIncomingChat) {
		var msg protocol.ChatMessage
		_ = env.Into(&msg)
		lines = append(lines, msg.Data)
	}
	return lines
}

func (p *scriptedPlayer) lastUpdate() protocol.RoundUpdate {
	updates := p.received(protocol.TypeRoundUpdate)
	var upd protocol.RoundUpdate
	if len(updates) > 0 {
		_ = updates[len(updates)-1].Into(&upd)
	}
	return upd
}
