package cards_test

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"yousef/internal/cards"
)

func TestPointValues(t *testing.T) {
	var tests = []struct {
		id   int
		want int
	}{
		{0, 1},   // ace of hearts
		{6, 7},   // 7 of hearts
		{9, 10},  // 10 of hearts
		{10, 10}, // jack of hearts
		{25, 10}, // king of diamonds
		{cards.SmallJokerID, 0},
		{cards.BigJokerID, 0},
	}

	for _, tt := range tests {
		card, ok := cards.ByID(tt.id)
		assert.True(t, ok)
		t.Run(card.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, card.Value())
		})
	}
}

func TestCatalog(t *testing.T) {
	catalog := cards.Catalog()

	assert.Len(t, catalog, cards.CatalogSize)
	for i, card := range catalog {
		assert.Equal(t, i, card.ID, "catalog index and id must agree")
	}

	jokers := 0
	for _, card := range catalog {
		if card.IsJoker() {
			jokers++
			assert.Equal(t, 0, card.RankValue())
		}
	}
	assert.Equal(t, 2, jokers)

	_, ok := cards.ByID(54)
	assert.False(t, ok)
	_, ok = cards.ByID(-1)
	assert.False(t, ok)
}

func TestMakeDeck(t *testing.T) {
	tests := []struct {
		multiplier int
		jokers     bool
		want       int
	}{
		{1, false, 52},
		{1, true, 54},
		{2, false, 104},
		{3, true, 162},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("x%d jokers=%v", tt.multiplier, tt.jokers), func(t *testing.T) {
			deck := cards.MakeDeck(tt.multiplier, tt.jokers, rand.New(rand.NewSource(1)))
			assert.Len(t, deck, tt.want)

			counts := make(map[int]int)
			for _, card := range deck {
				counts[card.ID]++
			}

			size := cards.StandardSize
			if tt.jokers {
				size = cards.CatalogSize
			}
			assert.Len(t, counts, size)
			for id, count := range counts {
				assert.Equal(t, tt.multiplier, count, "card %d", id)
			}
		})
	}
}

func TestShuffle(t *testing.T) {
	deckA := cards.Catalog()
	deckB := cards.Catalog()

	if !slices.Equal(deckA, deckB) {
		t.Error("Your decks aren't equal to start")
	}

	cards.Shuffle(deckB, rand.New(rand.NewSource(42)))

	if slices.Equal(deckA, deckB) {
		t.Error("Shuffling didn't work")
	}
}

func TestShuffleDeterministic(t *testing.T) {
	deckA := cards.MakeDeck(1, true, rand.New(rand.NewSource(7)))
	deckB := cards.MakeDeck(1, true, rand.New(rand.NewSource(7)))

	assert.Equal(t, cards.IDs(deckA), cards.IDs(deckB))
}

func TestStack(t *testing.T) {
	assert := assert.New(t)
	stack := cards.NewStack(cards.Catalog()[:5])

	top, ok := stack.Pop()
	assert.True(ok)
	assert.Equal(4, top.ID)
	assert.Equal(4, stack.Count())

	stack.Push(top)
	assert.Equal([]int{0, 1, 2, 3, 4}, stack.IDs())

	all := stack.TakeAll()
	assert.Len(all, 5)
	assert.True(stack.IsEmpty())

	_, ok = stack.Pop()
	assert.False(ok)
}

func TestSum(t *testing.T) {
	hand := []cards.Card{card(t, 0), card(t, 12), card(t, cards.BigJokerID), card(t, 4)}
	assert.Equal(t, 1+10+0+5, cards.Sum(hand))
}

func card(t *testing.T, id int) cards.Card {
	t.Helper()
	c, ok := cards.ByID(id)
	if !ok {
		t.Fatalf("no card with id %d", id)
	}
	return c
}
