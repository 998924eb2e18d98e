package cards

import (
	"fmt"
	"math/rand"
)

type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
	Small
	Big
)

var suitString = map[Suit]string{
	Hearts:   "hearts",
	Diamonds: "diamonds",
	Clubs:    "clubs",
	Spades:   "spades",
	Small:    "small",
	Big:      "big",
}

func (s Suit) String() string {
	return suitString[s]
}

// Rank doubles as the rank value used for straights. Jokers sort lowest.
type Rank int

const (
	Joker Rank = iota
	Ace
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankString = map[Rank]string{
	Joker: "joker",
	Ace:   "ace",
	Two:   "2",
	Three: "3",
	Four:  "4",
	Five:  "5",
	Six:   "6",
	Seven: "7",
	Eight: "8",
	Nine:  "9",
	Ten:   "10",
	Jack:  "jack",
	Queen: "queen",
	King:  "king",
}

func (r Rank) String() string {
	return rankString[r]
}

const (
	StandardSize = 52
	CatalogSize  = 54

	SmallJokerID = 52
	BigJokerID   = 53
)

type Card struct {
	ID   int  `json:"id"`
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

func (c Card) IsJoker() bool {
	return c.Rank == Joker
}

func (c Card) RankValue() int {
	return int(c.Rank)
}

// Value is the weight of the card in a hand sum.
func (c Card) Value() int {
	if c.Rank > Ten {
		return 10
	}
	return int(c.Rank)
}

func (c Card) String() string {
	if c.IsJoker() {
		return fmt.Sprintf("%s joker", c.Suit)
	}
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

var catalog = buildCatalog()

func buildCatalog() [CatalogSize]Card {
	var list [CatalogSize]Card
	suits := []Suit{Hearts, Diamonds, Clubs, Spades}

	id := 0
	for _, suit := range suits {
		for rank := Ace; rank <= King; rank++ {
			list[id] = Card{ID: id, Rank: rank, Suit: suit}
			id++
		}
	}
	list[SmallJokerID] = Card{ID: SmallJokerID, Rank: Joker, Suit: Small}
	list[BigJokerID] = Card{ID: BigJokerID, Rank: Joker, Suit: Big}

	return list
}

// ByID looks a card up in the catalog.
func ByID(id int) (Card, bool) {
	if id < 0 || id >= CatalogSize {
		return Card{}, false
	}
	return catalog[id], true
}

// Catalog returns a copy of all 54 cards in id order.
func Catalog() []Card {
	list := make([]Card, CatalogSize)
	copy(list, catalog[:])
	return list
}

// MakeDeck builds multiplier copies of the 52 (or 54 with jokers) catalog
// cards and shuffles them.
func MakeDeck(multiplier int, includeJokers bool, rng *rand.Rand) []Card {
	if multiplier < 1 {
		multiplier = 1
	}
	size := StandardSize
	if includeJokers {
		size = CatalogSize
	}

	deck := make([]Card, 0, size*multiplier)
	for i := range size {
		for range multiplier {
			deck = append(deck, catalog[i])
		}
	}

	Shuffle(deck, rng)
	return deck
}

// Shuffle is an in-place Fisher–Yates shuffle. A nil rng uses the global source.
func Shuffle(deck []Card, rng *rand.Rand) {
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

func IDs(cards []Card) []int {
	ids := make([]int, len(cards))
	for i, card := range cards {
		ids[i] = card.ID
	}
	return ids
}

// Sum adds up the hand values of cards.
func Sum(cards []Card) (total int) {
	for _, card := range cards {
		total += card.Value()
	}
	return
}
