package cards_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"yousef/internal/cards"
)

// Catalog ids used below: hearts 0-12, diamonds 13-25, clubs 26-38,
// spades 39-51, ace first in each suit.
const (
	aceHearts    = 0
	twoHearts    = 1
	threeHearts  = 2
	fourHearts   = 3
	fiveHearts   = 4
	sixHearts    = 5
	sevenHearts  = 6
	eightHearts  = 7
	nineHearts   = 8
	sevenClubs   = 32
	twoSpades    = 40
	sevenSpades  = 45
	eightSpades  = 46
	sevenDiamond = 19
)

func hand(t *testing.T, ids ...int) []cards.Card {
	t.Helper()
	list := make([]cards.Card, len(ids))
	for i, id := range ids {
		list[i] = card(t, id)
	}
	return list
}

func TestIsValidSelection(t *testing.T) {
	loose := cards.SelectionRules{StraightSuit: false, JokersCanSubInStraight: true}
	suited := cards.SelectionRules{StraightSuit: true, JokersCanSubInStraight: true}
	noSub := cards.SelectionRules{StraightSuit: false, JokersCanSubInStraight: false}

	tests := []struct {
		name  string
		ids   []int
		rules cards.SelectionRules
		valid bool
	}{
		{"empty", nil, loose, false},
		{"single", []int{sevenHearts}, loose, true},
		{"single joker", []int{cards.SmallJokerID}, loose, true},
		{"pair", []int{sevenHearts, sevenSpades}, loose, true},
		{"mismatched pair", []int{sevenHearts, eightSpades}, loose, false},
		{"two card straight", []int{sevenHearts, eightHearts}, loose, false},
		{"pair of jokers", []int{cards.SmallJokerID, cards.BigJokerID}, loose, true},
		{"three of a kind", []int{sevenHearts, sevenSpades, sevenClubs}, suited, true},
		{"four of a kind", []int{sevenHearts, sevenSpades, sevenClubs, sevenDiamond}, loose, true},
		{"suited straight", []int{aceHearts, twoHearts, threeHearts}, suited, true},
		{"unsorted suited straight", []int{threeHearts, aceHearts, twoHearts}, suited, true},
		{"mixed suit straight with suit rule", []int{aceHearts, twoSpades, threeHearts}, suited, false},
		{"mixed suit straight", []int{aceHearts, twoSpades, threeHearts}, loose, true},
		{"gap without joker", []int{fiveHearts, sevenHearts, eightHearts}, loose, false},
		{"pair plus neighbour", []int{sevenHearts, sevenSpades, eightSpades}, loose, false},
		{"joker fills gap", []int{fiveHearts, cards.SmallJokerID, sevenHearts}, loose, true},
		{"joker fills gap suited", []int{fiveHearts, cards.BigJokerID, sevenHearts}, suited, true},
		{"joker not allowed", []int{fiveHearts, cards.SmallJokerID, sevenHearts}, noSub, false},
		{"joker extends run", []int{fiveHearts, sixHearts, cards.SmallJokerID}, loose, true},
		{"two jokers fill two gaps", []int{fourHearts, cards.SmallJokerID, cards.BigJokerID, sevenHearts}, loose, true},
		{"one joker for two gaps", []int{fourHearts, cards.SmallJokerID, sevenHearts}, loose, false},
		{"duplicate rank with joker", []int{fiveHearts, cards.SmallJokerID, sevenHearts, sevenSpades}, loose, false},
		{"long straight", []int{fiveHearts, sixHearts, sevenHearts, eightHearts, nineHearts}, suited, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cards.IsValidSelection(hand(t, tt.ids...), tt.rules)
			assert.Equal(t, tt.valid, got)
		})
	}
}

func TestIsValidSelectionDoesNotReorderInput(t *testing.T) {
	selected := hand(t, threeHearts, cards.SmallJokerID, aceHearts)
	cards.IsValidSelection(selected, cards.SelectionRules{JokersCanSubInStraight: true})

	assert.Equal(t, []int{threeHearts, cards.SmallJokerID, aceHearts}, cards.IDs(selected))
}
