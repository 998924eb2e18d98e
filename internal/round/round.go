package round

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/golang/glog"

	"yousef/internal/cards"
	"yousef/internal/protocol"
)

type Phase int

const (
	Dealing Phase = iota
	AwaitingTurn
	AwaitingDraw
	Called
	Scored
)

var phaseString = map[Phase]string{
	Dealing:      "dealing",
	AwaitingTurn: "awaiting_turn",
	AwaitingDraw: "awaiting_draw",
	Called:       "called",
	Scored:       "scored",
}

func (p Phase) String() string {
	return phaseString[p]
}

var (
	ErrIndexOutOfRange = errors.New("INVALID_SELECTION: card index out of range")
	ErrDuplicateIndex  = errors.New("INVALID_SELECTION: card selected more than once")
	ErrIllegalDiscard  = errors.New("INVALID_SELECTION: discard must be a single card, a set or a straight")
	ErrPileEmpty       = errors.New("INVALID_DRAW: the pile is empty, draw from the deck")
	ErrDeckEmpty       = errors.New("INVALID_DRAW: no cards left to draw")
	ErrBadDrawSource   = errors.New("INVALID_DRAW: choose pile or deck")
)

const drawPrompt = "choose where you want to draw a card from (pile or deck)"

// Round is one deal: from dealing the hands to scoring a call.
type Round struct {
	game      *Game
	number    int
	deck      *cards.Stack
	pile      *cards.Stack
	hands     [][]cards.Card
	turnCount int
	phase     Phase
}

// NewRound shuffles a fresh deck for the next round.
func (g *Game) NewRound() *Round {
	r := &Round{
		game:   g,
		number: len(g.scoreboard) + 1,
		deck:   cards.NewStack(cards.MakeDeck(g.settings.DeckCount, g.settings.UseJokers, g.rng)),
		pile:   cards.NewStack(nil),
		hands:  make([][]cards.Card, len(g.players)),
		phase:  Dealing,
	}
	return r
}

func (r *Round) Number() int {
	return r.number
}

func (r *Round) Phase() Phase {
	return r.phase
}

func (r *Round) TurnCount() int {
	return r.turnCount
}

// RoundNumber counts full passes around the table, starting at 1.
func (r *Round) RoundNumber() int {
	return r.turnCount/len(r.game.players) + 1
}

// CurrentSeat rotates from the previous round's winner.
func (r *Round) CurrentSeat() int {
	return (r.turnCount + r.game.prevWinner) % len(r.game.players)
}

func (r *Round) CurrentPlayer() Player {
	return r.game.players[r.CurrentSeat()]
}

func (r *Round) Hand(seat int) []cards.Card {
	return slices.Clone(r.hands[seat])
}

func (r *Round) DeckCount() int {
	return r.deck.Count()
}

func (r *Round) PileIDs() []int {
	return r.pile.IDs()
}

// Play deals, runs turns until someone calls, and scores the call.
func (r *Round) Play(ctx context.Context) (Outcome, error) {
	if err := r.Deal(ctx); err != nil {
		return Outcome{}, err
	}
	for {
		called, err := r.PlayTurn(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if called {
			return r.Score(ctx), nil
		}
	}
}

// Deal hands out cards one per player per pass and seeds the pile.
func (r *Round) Deal(ctx context.Context) error {
	if r.phase != Dealing {
		return fmt.Errorf("INVALID_STATE: cannot deal during %s", r.phase)
	}

	for range r.game.settings.CardsPerPlayer {
		for seat := range r.hands {
			card, ok := r.deck.Pop()
			if !ok {
				return ErrDeckTooSmall
			}
			r.hands[seat] = append(r.hands[seat], card)
		}
	}
	seed, ok := r.deck.Pop()
	if !ok {
		return ErrDeckTooSmall
	}
	r.pile.Push(seed)

	r.phase = AwaitingTurn
	glog.Infof("Round %d dealt, %s leads", r.number, r.CurrentPlayer().Name())

	r.sendUpdates(ctx)
	r.game.systemChat(ctx, fmt.Sprintf("round %d is starting!", r.number))
	return nil
}

// PlayTurn runs one turn for the current player and reports whether they called.
func (r *Round) PlayTurn(ctx context.Context) (called bool, err error) {
	if r.phase != AwaitingTurn {
		return false, fmt.Errorf("INVALID_STATE: cannot take a turn during %s", r.phase)
	}

	seat := r.CurrentSeat()
	player := r.game.players[seat]
	turn := protocol.TurnUpdate{PlayerTurn: player.Name()}
	glog.V(1).Infof("Turn %d: %s", r.turnCount, player.Name())

	for i, other := range r.game.players {
		if i != seat {
			r.game.send(ctx, other, protocol.TypeTurnUpdate, turn)
		}
	}

	hand := r.hands[seat]
	discarded, called, err := r.awaitDiscard(ctx, seat, turn)
	if err != nil {
		return false, err
	}
	if called {
		if r.RoundNumber() <= r.game.settings.RoundsBeforeCall {
			glog.Infof("%s called in round %d, before the advised %d rounds", player.Name(), r.RoundNumber(), r.game.settings.RoundsBeforeCall)
		}
		r.phase = Called
		return true, nil
	}

	r.phase = AwaitingDraw
	if err := r.awaitDraw(ctx, seat, discarded); err != nil {
		r.hands[seat] = hand
		r.phase = AwaitingTurn
		return false, err
	}

	r.turnCount++
	r.phase = AwaitingTurn
	r.sendUpdates(ctx)
	if err := player.DrawFinished(ctx); err != nil {
		glog.Errorf("Failed to acknowledge draw to %s: %v", player.Name(), err)
	}
	return false, nil
}

// awaitDiscard asks until the player submits a legal discard or calls.
func (r *Round) awaitDiscard(ctx context.Context, seat int, turn protocol.TurnUpdate) ([]cards.Card, bool, error) {
	player := r.game.players[seat]
	for {
		indices, err := player.RequestCardSelection(ctx, turn)
		if err != nil {
			return nil, false, fmt.Errorf("card selection from %s: %w", player.Name(), err)
		}
		if len(indices) == 0 {
			return nil, true, nil
		}

		discarded, err := r.discard(seat, indices)
		if err == nil {
			glog.V(1).Infof("%s discarded %v", player.Name(), cards.IDs(discarded))
			return discarded, false, nil
		}

		glog.Warningf("Rejected discard %v from %s: %v", indices, player.Name(), err)
		r.game.send(ctx, player, protocol.TypeIncomingChat, protocol.ChatMessage{Data: err.Error()})
	}
}

// discard removes the cards at indices from the seat's hand, keeping hand order.
func (r *Round) discard(seat int, indices []int) ([]cards.Card, error) {
	hand := r.hands[seat]
	picked := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(hand) {
			return nil, ErrIndexOutOfRange
		}
		if picked[i] {
			return nil, ErrDuplicateIndex
		}
		picked[i] = true
	}

	kept := make([]cards.Card, 0, len(hand)-len(indices))
	discarded := make([]cards.Card, 0, len(indices))
	for i, card := range hand {
		if picked[i] {
			discarded = append(discarded, card)
		} else {
			kept = append(kept, card)
		}
	}

	if !cards.IsValidSelection(discarded, r.game.settings.SelectionRules()) {
		return nil, ErrIllegalDiscard
	}

	r.hands[seat] = kept
	return discarded, nil
}

// awaitDraw asks until the player picks a source that can be drawn from.
func (r *Round) awaitDraw(ctx context.Context, seat int, discarded []cards.Card) error {
	player := r.game.players[seat]
	prompt := protocol.ChatMessage{Data: drawPrompt}
	for {
		source, err := player.RequestDrawChoice(ctx, prompt)
		if err != nil {
			return fmt.Errorf("draw choice from %s: %w", player.Name(), err)
		}

		card, rest, err := r.draw(source, discarded)
		if err == nil {
			r.hands[seat] = append(r.hands[seat], card)
			r.pile.Push(rest...)
			glog.V(1).Infof("%s drew from %s", player.Name(), source)
			return nil
		}

		glog.Warningf("Rejected draw %q from %s: %v", source, player.Name(), err)
		r.game.send(ctx, player, protocol.TypeIncomingChat, protocol.ChatMessage{Data: err.Error()})
	}
}

// draw takes a card from source. An empty deck is refilled from the pile; if
// that is empty too the cards being discarded are shuffled in. The returned
// slice is what still goes onto the pile.
func (r *Round) draw(source protocol.DrawSource, discarded []cards.Card) (cards.Card, []cards.Card, error) {
	switch source {
	case protocol.DrawPile:
		card, ok := r.pile.Pop()
		if !ok {
			return cards.Card{}, discarded, ErrPileEmpty
		}
		return card, discarded, nil

	case protocol.DrawDeck:
		if r.deck.IsEmpty() {
			r.recycle()
		}
		if r.deck.IsEmpty() && len(discarded) > 0 {
			r.deck.Push(discarded...)
			cards.Shuffle(r.deck.Cards, r.game.rng)
			discarded = nil
		}
		card, ok := r.deck.Pop()
		if !ok {
			return cards.Card{}, discarded, ErrDeckEmpty
		}
		return card, discarded, nil

	default:
		return cards.Card{}, discarded, ErrBadDrawSource
	}
}

// recycle moves the whole pile into the deck and reshuffles it.
func (r *Round) recycle() {
	r.deck.Push(r.pile.TakeAll()...)
	cards.Shuffle(r.deck.Cards, r.game.rng)
	glog.V(1).Infof("Round %d: recycled pile into deck (%d cards)", r.number, r.deck.Count())
}
