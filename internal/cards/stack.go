package cards

// Stack is an ordered pile of cards; the last element is the top.
type Stack struct {
	Cards []Card `json:"cards"`
}

func NewStack(cards []Card) *Stack {
	return &Stack{Cards: cards}
}

func (s *Stack) Count() int {
	return len(s.Cards)
}

func (s *Stack) IsEmpty() bool {
	return len(s.Cards) == 0
}

func (s *Stack) Push(cards ...Card) {
	s.Cards = append(s.Cards, cards...)
}

func (s *Stack) Pop() (Card, bool) {
	if len(s.Cards) == 0 {
		return Card{}, false
	}
	card := s.Cards[len(s.Cards)-1]
	s.Cards = s.Cards[:len(s.Cards)-1]
	return card, true
}

// TakeAll empties the stack and returns its cards bottom first.
func (s *Stack) TakeAll() []Card {
	cards := s.Cards
	s.Cards = nil
	return cards
}

func (s *Stack) IDs() []int {
	return IDs(s.Cards)
}
