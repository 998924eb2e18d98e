package round

import (
	"context"

	"github.com/golang/glog"

	"yousef/internal/cards"
	"yousef/internal/protocol"
)

// Outcome of a call.
type Outcome struct {
	Caller int
	Sums   []int
	// Correct is set when the caller's hand sum was strictly the lowest.
	Correct bool
	// Winner leads the next round: the caller on a correct call, otherwise the
	// first player after the caller with the lowest sum.
	Winner int
}

// Score settles a call. Non-callers add their hand sum; the caller adds
// nothing on a correct call and punishForIncorrectCall otherwise.
func (r *Round) Score(ctx context.Context) Outcome {
	g := r.game
	n := len(g.players)
	caller := r.CurrentSeat()

	sums := make([]int, n)
	for i, hand := range r.hands {
		sums[i] = cards.Sum(hand)
	}

	out := Outcome{Caller: caller, Sums: sums, Correct: true, Winner: caller}
	if best := lowestAfter(sums, caller); best >= 0 && sums[best] <= sums[caller] {
		out.Correct = false
		out.Winner = best
	}

	for i := range g.players {
		switch {
		case i != caller:
			g.scores[i] += sums[i]
		case !out.Correct:
			g.scores[i] += g.settings.PunishForIncorrectCall
		}
	}

	g.scoreboard = append(g.scoreboard, protocol.RoundScores{Round: r.number, Scores: g.Scores()})
	g.prevWinner = out.Winner
	r.phase = Scored

	alert := protocol.CallAlert{
		Caller:       g.players[caller].Name(),
		CallerCards:  cards.IDs(r.hands[caller]),
		CallerSum:    sums[caller],
		CallerScore:  g.scores[caller],
		OtherPlayers: make([]protocol.CalledHand, 0, n-1),
	}
	if !out.Correct {
		alert.Beat = g.players[out.Winner].Name()
	}
	for j := 1; j < n; j++ {
		i := (caller + j) % n
		alert.OtherPlayers = append(alert.OtherPlayers, protocol.CalledHand{
			Name:  g.players[i].Name(),
			Cards: cards.IDs(r.hands[i]),
			Sum:   sums[i],
			Score: g.scores[i],
		})
	}

	glog.Infof("Round %d: %s called with %d (correct=%t), %s leads next", r.number, alert.Caller, sums[caller], out.Correct, g.players[out.Winner].Name())
	g.broadcast(ctx, protocol.TypeCallAlert, alert)
	return out
}

func lowestAfter(sums []int, caller int) int {
	n := len(sums)
	best := -1
	for j := 1; j < n; j++ {
		i := (caller + j) % n
		if best < 0 || sums[i] < sums[best] {
			best = i
		}
	}
	return best
}
