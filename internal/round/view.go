package round

import (
	"context"

	"yousef/internal/cards"
	"yousef/internal/protocol"
)

// BuildUpdate is the round as seen from seat: its own hand in full, opponents
// reduced to name, card count and score, listed in turn order after seat.
func (r *Round) BuildUpdate(seat int) protocol.RoundUpdate {
	players := r.game.players
	n := len(players)

	opponents := make([]protocol.OpponentInfo, 0, n-1)
	for j := 1; j < n; j++ {
		i := (seat + j) % n
		opponents = append(opponents, protocol.OpponentInfo{
			Name:      players[i].Name(),
			CardCount: len(r.hands[i]),
			Score:     r.game.scores[i],
		})
	}

	return protocol.RoundUpdate{
		TurnNum:       r.turnCount,
		RoundNum:      r.RoundNumber(),
		CurrentPlayer: r.CurrentPlayer().Name(),
		Opponents:     opponents,
		Hand:          cards.IDs(r.hands[seat]),
		Score:         r.game.scores[seat],
		Scoreboard:    r.game.Scoreboard(),
		DeckSize:      r.deck.Count(),
		Pile:          r.pile.IDs(),
	}
}

func (r *Round) sendUpdates(ctx context.Context) {
	for seat, p := range r.game.players {
		r.game.send(ctx, p, protocol.TypeRoundUpdate, r.BuildUpdate(seat))
	}
}
