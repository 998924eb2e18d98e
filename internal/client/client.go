package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"yousef/internal/peer"
	"yousef/internal/protocol"
	"yousef/internal/store"
)

const DefaultJoinTimeout = 1500 * time.Millisecond

var ErrNoConnection = errors.New("NO_CONNECTION: not connected to a room")

// Client is the joining side of a session. Everything the host sends is
// folded into Store; the methods below are the player's intents.
type Client struct {
	store       *store.Store
	joinTimeout time.Duration

	mu   sync.Mutex
	conn *peer.Conn
}

// New returns a client that gives up on a join after joinTimeout. Zero uses DefaultJoinTimeout.
func New(joinTimeout time.Duration) *Client {
	if joinTimeout <= 0 {
		joinTimeout = DefaultJoinTimeout
	}
	return &Client{
		store:       store.New(),
		joinTimeout: joinTimeout,
	}
}

func (c *Client) Store() *store.Store {
	return c.store
}

// Join dials the room and reports whether the host verified itself in time.
func (c *Client) Join(ctx context.Context, addr, code string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.joinTimeout)
	defer cancel()

	conn, err := peer.Dial(ctx, addr, code, c, peer.Options{})
	if err != nil {
		glog.Warningf("Failed to join room %s at %s: %v", code, addr, err)
		return false
	}

	c.mu.Lock()
	old := c.conn
	c.conn = conn
	c.mu.Unlock()
	if old != nil {
		old.Close()
	}
	glog.Infof("Joined room %s at %s", peer.NormalizeRoomCode(code), addr)
	return true
}

// SetName asks the host for a seat and reports whether the name was accepted.
func (c *Client) SetName(ctx context.Context, name string) bool {
	conn, err := c.connection()
	if err != nil {
		glog.Warningf("Cannot send %s: %v", protocol.TypeName, err)
		return false
	}

	env, err := conn.Request(ctx, protocol.TypeName, protocol.NameRequest{Name: name}, protocol.TypeGoodName, protocol.TypeBadName)
	if err != nil {
		glog.Warningf("Name request failed: %v", err)
		return false
	}
	if env.Type != protocol.TypeGoodName {
		return false
	}
	c.store.SetSelf(strings.TrimSpace(name))
	return true
}

func (c *Client) SendChat(ctx context.Context, text string) error {
	return c.send(ctx, protocol.TypeChat, protocol.ChatRequest{Data: text})
}

func (c *Client) ToggleReady(ctx context.Context) error {
	return c.send(ctx, protocol.TypeLobbyReady, nil)
}

// SelectCards discards the given hand indices. An empty list calls.
func (c *Client) SelectCards(ctx context.Context, indices []int) error {
	if len(indices) == 0 {
		return c.Call(ctx)
	}
	prev := c.store.UserState()
	c.store.SetUserState(store.Drawing)
	if err := c.send(ctx, protocol.TypeCardSelect, protocol.CardSelect{Hands: indices}); err != nil {
		c.store.SetUserState(prev)
		return err
	}
	return nil
}

func (c *Client) Call(ctx context.Context) error {
	return c.send(ctx, protocol.TypeCardSelect, protocol.CardSelect{Hands: []int{}})
}

func (c *Client) SelectDraw(ctx context.Context, source protocol.DrawSource) error {
	return c.send(ctx, protocol.TypeDrawSelect, protocol.DrawSelect{Value: source})
}

func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (c *Client) send(ctx context.Context, t protocol.MessageType, payload any) error {
	conn, err := c.connection()
	if err != nil {
		glog.Warningf("Cannot send %s: %v", t, err)
		return err
	}
	return conn.Send(ctx, t, payload)
}

func (c *Client) connection() (*peer.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.Closed() {
		return nil, ErrNoConnection
	}
	return c.conn, nil
}

func (c *Client) HandleConnect(conn *peer.Conn) {
	glog.V(1).Infof("Connection %s verified", conn.ID())
}

func (c *Client) HandleMessage(conn *peer.Conn, env protocol.Envelope) {
	if err := c.store.Apply(env); err != nil {
		glog.Warningf("Dropping %s from host: %v", env.Type, err)
	}
}

func (c *Client) HandleDisconnect(conn *peer.Conn) {
	glog.Infof("Connection %s to the host closed", conn.ID())
	env, err := protocol.NewEnvelope(protocol.TypeIncomingChat, protocol.ChatMessage{Data: "disconnected from the host"})
	if err != nil {
		return
	}
	if err := c.store.Apply(env); err != nil {
		glog.Errorf("Failed to record disconnect: %v", err)
	}
}
