package protocol

import (
	"errors"

	"yousef/internal/cards"
)

// Settings are fixed per room while a game runs and only editable in the lobby.
type Settings struct {
	UseJokers              bool `json:"useJokers" yaml:"useJokers"`
	JokersCanSubInStraight bool `json:"jokersCanSubInStraight" yaml:"jokersCanSubInStraight"`
	StraightSuit           bool `json:"straightSuit" yaml:"straightSuit"`
	DeckCount              int  `json:"deckCount" yaml:"deckCount"`
	CardsPerPlayer         int  `json:"cardsPerPlayer" yaml:"cardsPerPlayer"`
	PtsToLose              int  `json:"ptsToLose" yaml:"ptsToLose"`
	PunishForIncorrectCall int  `json:"punishForIncorrectCall" yaml:"punishForIncorrectCall"`
	// RoundsBeforeCall is advisory; early calls are accepted.
	RoundsBeforeCall int `json:"roundsBeforeCall" yaml:"roundsBeforeCall"`
}

func DefaultSettings() Settings {
	return Settings{
		UseJokers:              false,
		JokersCanSubInStraight: true,
		StraightSuit:           false,
		DeckCount:              1,
		CardsPerPlayer:         4,
		PtsToLose:              100,
		PunishForIncorrectCall: 30,
		RoundsBeforeCall:       3,
	}
}

func (s Settings) Validate() error {
	if s.DeckCount < 1 {
		return errors.New("INVALID_SETTINGS: deckCount must be at least 1")
	}
	if s.CardsPerPlayer < 1 {
		return errors.New("INVALID_SETTINGS: cardsPerPlayer must be at least 1")
	}
	if s.PtsToLose < 1 {
		return errors.New("INVALID_SETTINGS: ptsToLose must be at least 1")
	}
	if s.PunishForIncorrectCall < 0 {
		return errors.New("INVALID_SETTINGS: punishForIncorrectCall cannot be negative")
	}
	if s.RoundsBeforeCall < 0 {
		return errors.New("INVALID_SETTINGS: roundsBeforeCall cannot be negative")
	}
	return nil
}

// DeckSize is the number of cards a round is played with.
func (s Settings) DeckSize() int {
	size := cards.StandardSize
	if s.UseJokers {
		size = cards.CatalogSize
	}
	return size * s.DeckCount
}

func (s Settings) SelectionRules() cards.SelectionRules {
	return cards.SelectionRules{
		StraightSuit:           s.StraightSuit,
		JokersCanSubInStraight: s.JokersCanSubInStraight,
	}
}
