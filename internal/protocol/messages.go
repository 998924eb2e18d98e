package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

type MessageType string

const (
	TypeVerify         MessageType = "yousef_ver"
	TypeName           MessageType = "name"
	TypeGoodName       MessageType = "good_name"
	TypeBadName        MessageType = "bad_name"
	TypeChat           MessageType = "msg"
	TypeIncomingChat   MessageType = "in_msg"
	TypeLobbyReady     MessageType = "lobby_rd"
	TypeLobbyUpdate    MessageType = "lobby_upd"
	TypeSettingsUpdate MessageType = "sett_upd"
	TypeGameStart      MessageType = "game_start"
	TypeRoundUpdate    MessageType = "round_upd"
	TypeTurnUpdate     MessageType = "turn_upd"
	TypeCardSelect     MessageType = "card_select"
	TypeDrawSelect     MessageType = "draw_select"
	TypeDrawFinished   MessageType = "draw_finished"
	TypeCallAlert      MessageType = "call_alert"
	TypeGameEnd        MessageType = "game_end"
	TypeLobbyReturn    MessageType = "lobby_return"
)

var ErrMalformed = errors.New("MALFORMED_MESSAGE: missing or non-string type")

// Envelope is the frame exchanged over a peer connection.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an envelope. A nil payload is omitted.
func NewEnvelope(t MessageType, payload any) (Envelope, error) {
	env := Envelope{Type: t}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return env, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	env.Payload = data
	return env, nil
}

func Encode(t MessageType, payload any) ([]byte, error) {
	env, err := NewEnvelope(t, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode parses a frame, rejecting anything without a string discriminator.
func Decode(data []byte) (Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	rawType, ok := fields["type"]
	if !ok {
		return Envelope{}, ErrMalformed
	}
	var t string
	if err := json.Unmarshal(rawType, &t); err != nil || t == "" {
		return Envelope{}, ErrMalformed
	}

	env := Envelope{Type: MessageType(t)}
	if payload, ok := fields["payload"]; ok && string(payload) != "null" {
		env.Payload = payload
	}
	return env, nil
}

// Into unmarshals the payload into v. An absent payload leaves v untouched.
func (e Envelope) Into(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", e.Type, err)
	}
	return nil
}

// ============================================================================
// LOBBY
// ============================================================================

type NameRequest struct {
	Name string `json:"name"`
}

type ChatRequest struct {
	Data string `json:"data"`
}

// ChatMessage is a chat line. System messages carry no sender.
type ChatMessage struct {
	Sender string `json:"sender,omitempty"`
	Data   string `json:"data"`
}

type LobbyPlayer struct {
	Name    string `json:"name"`
	IsReady bool   `json:"isReady"`
}

type LobbyUpdate struct {
	Data []LobbyPlayer `json:"data"`
}

type SettingsUpdate struct {
	Settings Settings `json:"settings"`
}

// ============================================================================
// ROUND
// ============================================================================

type DrawSource string

const (
	DrawDeck DrawSource = "deck"
	DrawPile DrawSource = "pile"
)

func (d DrawSource) Valid() bool {
	return d == DrawDeck || d == DrawPile
}

type TurnUpdate struct {
	PlayerTurn string `json:"player_turn"`
}

// CardSelect carries hand indices to discard. Empty means the player calls.
type CardSelect struct {
	Hands []int `json:"hands"`
}

type DrawSelect struct {
	Value DrawSource `json:"value"`
}

type OpponentInfo struct {
	Name      string `json:"name"`
	CardCount int    `json:"cardCount"`
	Score     int    `json:"score"`
}

type PlayerScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// RoundScores is one scoreboard row: running scores after a round.
type RoundScores struct {
	Round  int           `json:"round"`
	Scores []PlayerScore `json:"scores"`
}

// RoundUpdate is the per-player view of a round. Hand holds only the
// recipient's cards; opponents are reduced to counts.
type RoundUpdate struct {
	TurnNum       int            `json:"turn_num"`
	RoundNum      int            `json:"round_num"`
	CurrentPlayer string         `json:"current_player"`
	Opponents     []OpponentInfo `json:"opponents"`
	Hand          []int          `json:"hand"`
	Score         int            `json:"score"`
	Scoreboard    []RoundScores  `json:"scoreboard"`
	DeckSize      int            `json:"deck_size"`
	Pile          []int          `json:"pile"`
}

type CalledHand struct {
	Name  string `json:"name"`
	Cards []int  `json:"cards"`
	Sum   int    `json:"sum"`
	Score int    `json:"score"`
}

type CallAlert struct {
	Caller       string       `json:"caller"`
	CallerCards  []int        `json:"caller_cards"`
	CallerSum    int          `json:"caller_sum"`
	CallerScore  int          `json:"caller_score"`
	Beat         string       `json:"beat,omitempty"`
	OtherPlayers []CalledHand `json:"otherPlayers"`
}

type GameEnd struct {
	Scores []PlayerScore `json:"scores"`
	Losers []string      `json:"losers"`
	Rounds int           `json:"rounds"`
}
