package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"yousef/internal/cards"
	"yousef/internal/protocol"
	"yousef/internal/store"
)

// renderer prints store changes as terminal lines.
type renderer struct {
	st  *store.Store
	out io.Writer

	mu       sync.Mutex
	seenChat int
}

func newRenderer(st *store.Store, out io.Writer) *renderer {
	return &renderer{st: st, out: out}
}

func (r *renderer) render(t protocol.MessageType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch t {
	case protocol.TypeIncomingChat, protocol.TypeTurnUpdate:
		chat := r.st.Chat()
		for _, msg := range chat[min(r.seenChat, len(chat)):] {
			if msg.Sender == "" {
				fmt.Fprintf(r.out, "* %s\n", msg.Data)
			} else {
				fmt.Fprintf(r.out, "<%s> %s\n", msg.Sender, msg.Data)
			}
		}
		r.seenChat = len(chat)

	case protocol.TypeLobbyUpdate:
		var b strings.Builder
		b.WriteString("lobby:")
		for _, p := range r.st.Lobby() {
			mark := " "
			if p.IsReady {
				mark = "+"
			}
			fmt.Fprintf(&b, " [%s%s]", mark, p.Name)
		}
		fmt.Fprintln(r.out, b.String())

	case protocol.TypeSettingsUpdate:
		fmt.Fprintf(r.out, "settings: %+v\n", r.st.Settings())

	case protocol.TypeGameStart:
		fmt.Fprintln(r.out, "game started")

	case protocol.TypeRoundUpdate:
		upd, ok := r.st.Round()
		if !ok {
			return
		}
		fmt.Fprintf(r.out, "round %d turn %d, %s to play, deck %d, pile top %s\n",
			upd.RoundNum, upd.TurnNum, upd.CurrentPlayer, upd.DeckSize, pileTop(upd.Pile))
		for _, o := range upd.Opponents {
			fmt.Fprintf(r.out, "  %s: %d cards, %d points\n", o.Name, o.CardCount, o.Score)
		}
		fmt.Fprintf(r.out, "  your hand (sum %d, score %d): %s\n", handSum(upd.Hand), upd.Score, describe(upd.Hand))

	case protocol.TypeCallAlert:
		call, ok := r.st.LastCall()
		if !ok {
			return
		}
		fmt.Fprintf(r.out, "%s called with %s (%d)\n", call.Caller, describe(call.CallerCards), call.CallerSum)
		if call.Beat != "" {
			fmt.Fprintf(r.out, "  beaten by %s\n", call.Beat)
		}
		for _, o := range call.OtherPlayers {
			fmt.Fprintf(r.out, "  %s: %s (%d), score %d\n", o.Name, describe(o.Cards), o.Sum, o.Score)
		}

	case protocol.TypeGameEnd:
		end, ok := r.st.GameEnd()
		if !ok {
			return
		}
		fmt.Fprintf(r.out, "game over after %d rounds, losers: %s\n", end.Rounds, strings.Join(end.Losers, ", "))
		for _, s := range end.Scores {
			fmt.Fprintf(r.out, "  %s: %d\n", s.Name, s.Score)
		}

	case protocol.TypeLobbyReturn:
		fmt.Fprintln(r.out, "back in the lobby")
	}
}

func describe(ids []int) string {
	names := make([]string, 0, len(ids))
	for i, id := range ids {
		card, ok := cards.ByID(id)
		if !ok {
			names = append(names, fmt.Sprintf("%d:?", i))
			continue
		}
		names = append(names, fmt.Sprintf("%d:%s", i, card))
	}
	return strings.Join(names, " ")
}

func handSum(ids []int) int {
	hand := make([]cards.Card, 0, len(ids))
	for _, id := range ids {
		if card, ok := cards.ByID(id); ok {
			hand = append(hand, card)
		}
	}
	return cards.Sum(hand)
}

func pileTop(pile []int) string {
	if len(pile) == 0 {
		return "none"
	}
	card, ok := cards.ByID(pile[len(pile)-1])
	if !ok {
		return "?"
	}
	return card.String()
}
