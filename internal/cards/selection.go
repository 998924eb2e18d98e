package cards

import "slices"

// SelectionRules are the room settings that affect what may be discarded together.
type SelectionRules struct {
	StraightSuit           bool
	JokersCanSubInStraight bool
}

// IsValidSelection reports whether cards form a legal discard: a single card,
// a set of one rank, or a straight of three or more.
func IsValidSelection(selected []Card, rules SelectionRules) bool {
	switch len(selected) {
	case 0:
		return false
	case 1:
		return true
	case 2:
		return selected[0].Rank == selected[1].Rank
	}

	sameRank := true
	for _, card := range selected[1:] {
		if card.Rank != selected[0].Rank {
			sameRank = false
			break
		}
	}
	if sameRank {
		return true
	}

	return isStraight(selected, rules)
}

func isStraight(selected []Card, rules SelectionRules) bool {
	sorted := slices.Clone(selected)
	slices.SortStableFunc(sorted, func(a, b Card) int {
		return a.RankValue() - b.RankValue()
	})

	jokers := 0
	for jokers < len(sorted) && sorted[jokers].IsJoker() {
		jokers++
	}
	natural := sorted[jokers:]

	if jokers == 0 && natural[len(natural)-1].RankValue()-natural[0].RankValue() <= 1 {
		return false
	}

	if rules.StraightSuit {
		for _, card := range natural[1:] {
			if card.Suit != natural[0].Suit {
				return false
			}
		}
	}

	if jokers == 0 {
		for i, card := range natural {
			if card.RankValue() != natural[0].RankValue()+i {
				return false
			}
		}
		return true
	}

	if !rules.JokersCanSubInStraight {
		return false
	}

	gaps := 0
	for i := 1; i < len(natural); i++ {
		diff := natural[i].RankValue() - natural[i-1].RankValue()
		if diff == 0 {
			return false
		}
		gaps += diff - 1
	}

	return gaps <= jokers
}
