package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"

	"yousef/internal/history"
	"yousef/internal/lobby"
	"yousef/internal/peer"
	"yousef/internal/protocol"
	"yousef/internal/round"
	"yousef/internal/store"
)

const sendTimeout = 5 * time.Second

var (
	ErrInvalidState = errors.New("INVALID_STATE: operation not allowed in the current room state")
	ErrHostUnnamed  = errors.New("INVALID_STATE: the host has not chosen a name")
	ErrNotAllReady  = errors.New("NOT_READY: every player must be ready")
	ErrNotOpen      = errors.New("INVALID_STATE: room is not open")
)

// State is the room's position in the lobby, game, results cycle.
type State int

const (
	StateLobby State = iota
	StateGame
	StateResults
)

var stateString = map[State]string{
	StateLobby:   "lobby",
	StateGame:    "game",
	StateResults: "results",
}

func (s State) String() string {
	return stateString[s]
}

type Options struct {
	// AdvertiseAddr is the address shown to players, when it differs from the bound one.
	AdvertiseAddr string
	RateLimit     int
	History       history.Recorder
	Rand          *rand.Rand
}

// Room is the host side of a session. It owns the lobby, runs the game
// engine and relays chat. The host plays through Store and the intent
// methods; remote players join through the listener.
type Room struct {
	opts Options

	// sendMu orders deliveries so peers see snapshots in the order they were taken.
	sendMu sync.Mutex

	mu          sync.Mutex
	state       State
	settings    protocol.Settings
	lobby       *lobby.Lobby
	host        *HostPlayer
	store       *store.Store
	remotes     map[string]*RemotePlayer
	listener    *peer.Listener
	cancelGame  context.CancelFunc
	gameDone    chan struct{}
	abortReason string
	result      *round.Result
	closed      bool
}

func NewRoom(settings protocol.Settings, opts Options) (*Room, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if opts.History == nil {
		opts.History = history.Nop{}
	}

	st := store.New()
	r := &Room{
		opts:     opts,
		state:    StateLobby,
		settings: settings,
		lobby:    lobby.New(),
		host:     newHostPlayer(st),
		store:    st,
		remotes:  make(map[string]*RemotePlayer),
	}
	if err := r.host.Send(context.Background(), protocol.TypeSettingsUpdate, protocol.SettingsUpdate{Settings: settings}); err != nil {
		return nil, err
	}
	return r, nil
}

// Open starts accepting peers on addr.
func (r *Room) Open(ctx context.Context, addr string) error {
	l, err := peer.Listen(ctx, addr, r, peer.Options{RateLimit: r.opts.RateLimit, Rand: r.opts.Rand})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.listener = l
	r.mu.Unlock()
	return nil
}

func (r *Room) Code() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return ""
	}
	return r.listener.Code()
}

// Addr is the address peers should dial.
func (r *Room) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opts.AdvertiseAddr != "" {
		return r.opts.AdvertiseAddr
	}
	if r.listener == nil {
		return ""
	}
	return r.listener.Addr()
}

// Store is the host's own view of the session.
func (r *Room) Store() *store.Store {
	return r.store
}

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) Settings() protocol.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// Result is the outcome of the last finished game.
func (r *Room) Result() (round.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return round.Result{}, false
	}
	return *r.result, true
}

// GameDone is closed when the running game ends, or is nil before the first start.
func (r *Room) GameDone() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameDone
}

// ============================================================================
// Host intents
// ============================================================================

// SetHostName names the host, who always sits first.
func (r *Room) SetHostName(ctx context.Context, name string) error {
	r.mu.Lock()
	if r.state != StateLobby {
		r.mu.Unlock()
		return ErrInvalidState
	}
	name, err := r.lobby.SetHost(name)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.host.setName(name)
	r.unlockAndSend(ctx, delivery{to: r.recipientsLocked(), t: protocol.TypeLobbyUpdate, payload: r.lobby.Snapshot()})
	return nil
}

func (r *Room) ToggleHostReady(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateLobby {
		r.mu.Unlock()
		return ErrInvalidState
	}
	if _, err := r.lobby.ToggleReady(r.lobby.HostName()); err != nil {
		r.mu.Unlock()
		return ErrHostUnnamed
	}
	r.unlockAndSend(ctx, delivery{to: r.recipientsLocked(), t: protocol.TypeLobbyUpdate, payload: r.lobby.Snapshot()})
	return nil
}

func (r *Room) SendChat(ctx context.Context, text string) error {
	r.mu.Lock()
	name := r.lobby.HostName()
	if name == "" {
		r.mu.Unlock()
		return ErrHostUnnamed
	}
	msg := protocol.ChatMessage{Sender: name, Data: text}
	r.unlockAndSend(ctx, delivery{to: r.recipientsLocked(), t: protocol.TypeIncomingChat, payload: msg})
	return nil
}

// UpdateSettings replaces the game settings and announces them. Lobby only.
func (r *Room) UpdateSettings(ctx context.Context, settings protocol.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	if r.state != StateLobby {
		r.mu.Unlock()
		return ErrInvalidState
	}
	r.settings = settings
	r.unlockAndSend(ctx, delivery{to: r.recipientsLocked(), t: protocol.TypeSettingsUpdate, payload: protocol.SettingsUpdate{Settings: settings}})
	return nil
}

// StartGame seats the lobby in order and runs the game in the background.
func (r *Room) StartGame(ctx context.Context) error {
	r.mu.Lock()
	switch {
	case r.closed:
		r.mu.Unlock()
		return ErrNotOpen
	case r.state != StateLobby:
		r.mu.Unlock()
		return ErrInvalidState
	case r.lobby.HostName() == "":
		r.mu.Unlock()
		return ErrHostUnnamed
	case !r.lobby.AllReady():
		r.mu.Unlock()
		return ErrNotAllReady
	}

	g, err := round.NewGame(r.settings, r.seatedLocked(), r.opts.Rand)
	if err != nil {
		r.mu.Unlock()
		return err
	}

	gameCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.state = StateGame
	r.cancelGame = cancel
	r.gameDone = done
	r.abortReason = ""
	r.result = nil
	glog.Infof("Room %s starting a game with %d players", r.codeLocked(), r.lobby.Len())

	r.unlockAndSend(ctx, delivery{to: r.recipientsLocked(), t: protocol.TypeGameStart})
	go r.runGame(gameCtx, g, done)
	return nil
}

// ResetToLobby leaves the results screen with every ready flag cleared.
func (r *Room) ResetToLobby(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateResults {
		r.mu.Unlock()
		return ErrInvalidState
	}
	r.state = StateLobby
	r.lobby.ResetAll()
	to := r.recipientsLocked()
	r.unlockAndSend(ctx,
		delivery{to: to, t: protocol.TypeLobbyReturn},
		delivery{to: to, t: protocol.TypeLobbyUpdate, payload: r.lobby.Snapshot()},
	)
	return nil
}

// SelectCards discards the given hand indices on the host's turn.
func (r *Room) SelectCards(indices []int) error {
	if len(indices) == 0 {
		return r.Call()
	}
	return r.host.SelectCards(indices)
}

// Call ends the round on the host's turn.
func (r *Room) Call() error {
	return r.host.SelectCards(nil)
}

func (r *Room) SelectDraw(source protocol.DrawSource) error {
	return r.host.SelectDraw(source)
}

// Close aborts any game and disconnects every peer.
func (r *Room) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	cancel := r.cancelGame
	done := r.gameDone
	l := r.listener
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if l != nil {
		err = l.Close()
	}
	if done != nil {
		<-done
	}
	return err
}

func (r *Room) runGame(ctx context.Context, g *round.Game, done chan struct{}) {
	defer close(done)

	res, err := g.Run(ctx)

	r.mu.Lock()
	r.cancelGame = nil
	code := r.codeLocked()
	if err != nil {
		glog.Warningf("Game in room %s aborted: %v", code, err)
		r.state = StateLobby
		r.lobby.ResetAll()
		if r.closed {
			r.mu.Unlock()
			return
		}
		reason := r.abortReason
		if reason == "" {
			reason = "a player disconnected, returning to the lobby"
		}
		to := r.recipientsLocked()
		r.unlockAndSend(context.Background(),
			delivery{to: to, t: protocol.TypeLobbyReturn},
			delivery{to: to, t: protocol.TypeIncomingChat, payload: protocol.ChatMessage{Data: reason}},
			delivery{to: to, t: protocol.TypeLobbyUpdate, payload: r.lobby.Snapshot()},
		)
		return
	}
	r.state = StateResults
	r.result = &res
	r.mu.Unlock()

	saveCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := r.opts.History.SaveResult(saveCtx, history.Result{
		RoomCode: code,
		Rounds:   res.Rounds,
		Scores:   res.Scores,
		Losers:   res.Losers,
	}); err != nil {
		glog.Errorf("Failed to record result for room %s: %v", code, err)
	}
}

// ============================================================================
// peer.ConnectionHandler
// ============================================================================

func (r *Room) HandleConnect(c *peer.Conn) {
	r.mu.Lock()
	r.remotes[c.ID()] = &RemotePlayer{conn: c}
	r.mu.Unlock()
	glog.V(1).Infof("Peer %s connected to room %s", c.ID(), r.Code())
}

func (r *Room) HandleDisconnect(c *peer.Conn) {
	r.mu.Lock()
	p := r.remotes[c.ID()]
	delete(r.remotes, c.ID())
	if p == nil || p.name == "" || r.closed {
		r.mu.Unlock()
		return
	}
	glog.Infof("Player %s left room %s", p.name, r.codeLocked())
	r.lobby.Leave(p.name)

	var cancel context.CancelFunc
	if r.state == StateGame && r.cancelGame != nil {
		r.abortReason = fmt.Sprintf("%s disconnected, returning to the lobby", p.name)
		cancel = r.cancelGame
	}
	r.unlockAndSend(context.Background(), delivery{to: r.recipientsLocked(), t: protocol.TypeLobbyUpdate, payload: r.lobby.Snapshot()})

	if cancel != nil {
		cancel()
	}
}

func (r *Room) HandleMessage(c *peer.Conn, env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeName:
		r.handleName(c, env)
	case protocol.TypeChat:
		r.handleChat(c, env)
	case protocol.TypeLobbyReady:
		r.handleReady(c)
	default:
		glog.Warningf("Unexpected message type '%s' from %s", env.Type, c.ID())
	}
}

func (r *Room) handleName(c *peer.Conn, env protocol.Envelope) {
	var req protocol.NameRequest
	if err := env.Into(&req); err != nil {
		glog.Warningf("Bad name request from %s: %v", c.ID(), err)
		r.rejectName(c)
		return
	}

	r.mu.Lock()
	p := r.remotes[c.ID()]
	if p == nil || p.name != "" || r.state != StateLobby {
		r.mu.Unlock()
		r.rejectName(c)
		return
	}
	name, err := r.lobby.Join(req.Name)
	if err != nil {
		r.mu.Unlock()
		glog.V(1).Infof("Rejected name %q from %s: %v", req.Name, c.ID(), err)
		r.rejectName(c)
		return
	}
	p.name = name
	glog.Infof("Player %s joined room %s", name, r.codeLocked())

	self := []round.Player{p}
	r.unlockAndSend(context.Background(),
		delivery{to: self, t: protocol.TypeGoodName},
		delivery{to: self, t: protocol.TypeSettingsUpdate, payload: protocol.SettingsUpdate{Settings: r.settings}},
		delivery{to: r.recipientsLocked(), t: protocol.TypeLobbyUpdate, payload: r.lobby.Snapshot()},
	)
}

func (r *Room) rejectName(c *peer.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := c.Send(ctx, protocol.TypeBadName, nil); err != nil {
		glog.Errorf("Failed to send bad_name to %s: %v", c.ID(), err)
	}
}

func (r *Room) handleChat(c *peer.Conn, env protocol.Envelope) {
	var req protocol.ChatRequest
	if err := env.Into(&req); err != nil {
		glog.Warningf("Dropping chat from %s: %v", c.ID(), err)
		return
	}

	r.mu.Lock()
	p := r.remotes[c.ID()]
	if p == nil || p.name == "" {
		r.mu.Unlock()
		glog.Warningf("Chat from unnamed connection %s, closing", c.ID())
		c.Close()
		return
	}
	msg := protocol.ChatMessage{Sender: p.name, Data: req.Data}
	r.unlockAndSend(context.Background(), delivery{to: r.recipientsLocked(), t: protocol.TypeIncomingChat, payload: msg})
}

func (r *Room) handleReady(c *peer.Conn) {
	r.mu.Lock()
	p := r.remotes[c.ID()]
	if p == nil || p.name == "" || r.state != StateLobby {
		r.mu.Unlock()
		glog.Warningf("Ignoring lobby_rd from %s", c.ID())
		return
	}
	if _, err := r.lobby.ToggleReady(p.name); err != nil {
		r.mu.Unlock()
		glog.Errorf("Failed to toggle ready for %s: %v", p.name, err)
		return
	}
	r.unlockAndSend(context.Background(), delivery{to: r.recipientsLocked(), t: protocol.TypeLobbyUpdate, payload: r.lobby.Snapshot()})
}

// ============================================================================
// Delivery
// ============================================================================

type delivery struct {
	to      []round.Player
	t       protocol.MessageType
	payload any
}

// unlockAndSend releases r.mu and sends each delivery in order. Deliveries
// from concurrent callers never interleave.
func (r *Room) unlockAndSend(ctx context.Context, ds ...delivery) {
	r.sendMu.Lock()
	r.mu.Unlock()
	defer r.sendMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	for _, d := range ds {
		for _, p := range d.to {
			if err := p.Send(ctx, d.t, d.payload); err != nil {
				glog.Errorf("Failed to send %s to %s: %v", d.t, p.Name(), err)
			}
		}
	}
}

// recipientsLocked lists the host and every named remote.
func (r *Room) recipientsLocked() []round.Player {
	out := []round.Player{r.host}
	for _, p := range r.remotes {
		if p.name != "" {
			out = append(out, p)
		}
	}
	return out
}

// seatedLocked orders players as they appear in the lobby, host first.
func (r *Room) seatedLocked() []round.Player {
	byName := make(map[string]round.Player, len(r.remotes)+1)
	byName[r.host.Name()] = r.host
	for _, p := range r.remotes {
		if p.name != "" {
			byName[p.name] = p
		}
	}

	names := r.lobby.Names()
	seated := make([]round.Player, 0, len(names))
	for _, name := range names {
		if p, ok := byName[name]; ok {
			seated = append(seated, p)
		}
	}
	return seated
}

func (r *Room) codeLocked() string {
	if r.listener == nil {
		return ""
	}
	return r.listener.Code()
}
