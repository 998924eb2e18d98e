package round

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/golang/glog"

	"yousef/internal/protocol"
)

var (
	ErrNoPlayers       = errors.New("INVALID_STATE: a game needs at least one player")
	ErrDuplicatePlayer = errors.New("INVALID_STATE: player names must be unique")
	ErrDeckTooSmall    = errors.New("DECK_TOO_SMALL: not enough cards to deal every hand and seed the pile")
)

// Result is the final standing of a finished game.
type Result struct {
	Scores     []protocol.PlayerScore
	Losers     []string
	Rounds     int
	Scoreboard []protocol.RoundScores
}

// Game carries scores and turn order across rounds. It is driven by a single
// goroutine and is not safe for concurrent use.
type Game struct {
	settings   protocol.Settings
	players    []Player
	scores     []int
	scoreboard []protocol.RoundScores
	prevWinner int
	rng        *rand.Rand
}

// CheckDeal reports whether playerCount hands plus the pile seed fit in the deck.
func CheckDeal(settings protocol.Settings, playerCount int) error {
	if playerCount < 1 {
		return ErrNoPlayers
	}
	if playerCount*settings.CardsPerPlayer+1 > settings.DeckSize() {
		return fmt.Errorf("%w: %d players x %d cards with a %d card deck",
			ErrDeckTooSmall, playerCount, settings.CardsPerPlayer, settings.DeckSize())
	}
	return nil
}

// NewGame seats players in order with zeroed scores. A nil rng is seeded from the clock.
func NewGame(settings protocol.Settings, players []Player, rng *rand.Rand) (*Game, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := CheckDeal(settings, len(players)); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if seen[p.Name()] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePlayer, p.Name())
		}
		seen[p.Name()] = true
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Game{
		settings:   settings,
		players:    slices.Clone(players),
		scores:     make([]int, len(players)),
		scoreboard: make([]protocol.RoundScores, 0),
		rng:        rng,
	}, nil
}

// Run plays rounds until a running score reaches ptsToLose, then broadcasts game_end.
func (g *Game) Run(ctx context.Context) (Result, error) {
	for {
		r := g.NewRound()
		if _, err := r.Play(ctx); err != nil {
			return Result{}, err
		}

		if losers := g.Losers(); len(losers) > 0 {
			res := Result{
				Scores:     g.Scores(),
				Losers:     losers,
				Rounds:     len(g.scoreboard),
				Scoreboard: g.Scoreboard(),
			}
			glog.Infof("Game over after %d rounds, losers: %v", res.Rounds, res.Losers)
			g.broadcast(ctx, protocol.TypeGameEnd, protocol.GameEnd{
				Scores: res.Scores,
				Losers: res.Losers,
				Rounds: res.Rounds,
			})
			return res, nil
		}
	}
}

// PrevWinner is the seat that leads the next round.
func (g *Game) PrevWinner() int {
	return g.prevWinner
}

func (g *Game) Scores() []protocol.PlayerScore {
	scores := make([]protocol.PlayerScore, len(g.players))
	for i, p := range g.players {
		scores[i] = protocol.PlayerScore{Name: p.Name(), Score: g.scores[i]}
	}
	return scores
}

func (g *Game) Scoreboard() []protocol.RoundScores {
	return slices.Clone(g.scoreboard)
}

// Losers are the players whose running score reached ptsToLose.
func (g *Game) Losers() []string {
	var losers []string
	for i, p := range g.players {
		if g.scores[i] >= g.settings.PtsToLose {
			losers = append(losers, p.Name())
		}
	}
	return losers
}

func (g *Game) broadcast(ctx context.Context, t protocol.MessageType, payload any) {
	for _, p := range g.players {
		g.send(ctx, p, t, payload)
	}
}

func (g *Game) send(ctx context.Context, p Player, t protocol.MessageType, payload any) {
	if err := p.Send(ctx, t, payload); err != nil {
		glog.Errorf("Failed to send %s to %s: %v", t, p.Name(), err)
	}
}

func (g *Game) systemChat(ctx context.Context, text string) {
	g.broadcast(ctx, protocol.TypeIncomingChat, protocol.ChatMessage{Data: text})
}
