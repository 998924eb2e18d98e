package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"yousef/internal/protocol"
)

var ErrUnhandledType = errors.New("UNHANDLED_TYPE: message type has no local state")

// UserState is what the local player is expected to do next.
type UserState int

const (
	Idle UserState = iota
	Selecting
	Drawing
)

var userStateString = map[UserState]string{
	Idle:      "idle",
	Selecting: "selecting",
	Drawing:   "drawing",
}

func (s UserState) String() string {
	return userStateString[s]
}

// Store is the observable state a participant renders: chat, lobby, settings
// and the latest round snapshot. Every participant keeps one, the host
// included; it is fed by Apply.
type Store struct {
	mu        sync.RWMutex
	self      string
	chat      []protocol.ChatMessage
	lobby     []protocol.LobbyPlayer
	settings  protocol.Settings
	inGame    bool
	round     *protocol.RoundUpdate
	turn      string
	userState UserState
	lastCall  *protocol.CallAlert
	gameEnd   *protocol.GameEnd

	subMu       sync.Mutex
	nextSub     int
	subscribers map[int]func(protocol.MessageType)
}

func New() *Store {
	return &Store{
		settings:    protocol.DefaultSettings(),
		subscribers: make(map[int]func(protocol.MessageType)),
	}
}

// SetSelf records the local player's name so turn announcements can be phrased.
func (s *Store) SetSelf(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self = name
}

// Apply folds one inbound message into the state and notifies subscribers.
func (s *Store) Apply(env protocol.Envelope) error {
	if err := s.apply(env); err != nil {
		return err
	}
	s.notify(env.Type)
	return nil
}

func (s *Store) apply(env protocol.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch env.Type {
	case protocol.TypeIncomingChat:
		var msg protocol.ChatMessage
		if err := env.Into(&msg); err != nil {
			return err
		}
		s.chat = append(s.chat, msg)

	case protocol.TypeLobbyUpdate:
		var upd protocol.LobbyUpdate
		if err := env.Into(&upd); err != nil {
			return err
		}
		s.lobby = upd.Data

	case protocol.TypeSettingsUpdate:
		var upd protocol.SettingsUpdate
		if err := env.Into(&upd); err != nil {
			return err
		}
		s.settings = upd.Settings

	case protocol.TypeGameStart:
		s.inGame = true
		s.gameEnd = nil
		s.lastCall = nil
		s.round = nil

	case protocol.TypeLobbyReturn:
		s.inGame = false
		s.round = nil
		s.turn = ""
		s.userState = Idle

	case protocol.TypeRoundUpdate:
		var upd protocol.RoundUpdate
		if err := env.Into(&upd); err != nil {
			return err
		}
		s.round = &upd

	case protocol.TypeTurnUpdate:
		var upd protocol.TurnUpdate
		if err := env.Into(&upd); err != nil {
			return err
		}
		s.turn = upd.PlayerTurn
		if upd.PlayerTurn == s.self {
			s.userState = Selecting
			s.chat = append(s.chat, protocol.ChatMessage{Data: "it's your turn."})
		} else {
			s.userState = Idle
			s.chat = append(s.chat, protocol.ChatMessage{Data: fmt.Sprintf("it's now %s's turn", upd.PlayerTurn)})
		}

	case protocol.TypeDrawFinished:
		s.userState = Idle

	case protocol.TypeCallAlert:
		var alert protocol.CallAlert
		if err := env.Into(&alert); err != nil {
			return err
		}
		s.lastCall = &alert
		s.userState = Idle

	case protocol.TypeGameEnd:
		var end protocol.GameEnd
		if err := env.Into(&end); err != nil {
			return err
		}
		s.gameEnd = &end
		s.userState = Idle

	default:
		return fmt.Errorf("%w: %s", ErrUnhandledType, env.Type)
	}
	return nil
}

// SetUserState records a local transition, such as moving to Drawing once a
// discard has been submitted.
func (s *Store) SetUserState(state UserState) {
	s.mu.Lock()
	s.userState = state
	s.mu.Unlock()
	s.notify("")
}

// Subscribe registers fn to run after every change with the message type that
// caused it. Local transitions report an empty type.
func (s *Store) Subscribe(fn func(protocol.MessageType)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) notify(t protocol.MessageType) {
	s.subMu.Lock()
	subs := make([]func(protocol.MessageType), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(t)
	}
}

func (s *Store) Self() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.self
}

func (s *Store) Chat() []protocol.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chat)
}

func (s *Store) Lobby() []protocol.LobbyPlayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lobby)
}

func (s *Store) Settings() protocol.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Store) InGame() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inGame
}

// Round returns the latest snapshot, if a round has started.
func (s *Store) Round() (protocol.RoundUpdate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.round == nil {
		return protocol.RoundUpdate{}, false
	}
	return *s.round, true
}

func (s *Store) Turn() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turn
}

func (s *Store) UserState() UserState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userState
}

func (s *Store) LastCall() (protocol.CallAlert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastCall == nil {
		return protocol.CallAlert{}, false
	}
	return *s.lastCall, true
}

func (s *Store) GameEnd() (protocol.GameEnd, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gameEnd == nil {
		return protocol.GameEnd{}, false
	}
	return *s.gameEnd, true
}
