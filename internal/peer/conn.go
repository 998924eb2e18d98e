package peer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"yousef/internal/protocol"
)

// closeTimeout bounds the close handshake with a peer that stopped reading.
const closeTimeout = time.Second

// MessageHandler receives every inbound frame that no waiter claimed.
type MessageHandler interface {
	HandleMessage(c *Conn, env protocol.Envelope)
}

// ConnectionHandler is notified over the whole life of a connection.
type ConnectionHandler interface {
	MessageHandler
	HandleConnect(c *Conn)
	HandleDisconnect(c *Conn)
}

// Conn is one ordered, reliable, bidirectional message channel.
type Conn struct {
	id      string
	ws      *websocket.Conn
	pending *protocol.Pending
	limiter *RateLimiter

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, limiter *RateLimiter) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		id:      uuid.New().String(),
		ws:      ws,
		pending: protocol.NewPending(),
		limiter: limiter,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *Conn) ID() string {
	return c.id
}

// Done is closed once the connection is closed from either side.
func (c *Conn) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Conn) Closed() bool {
	return c.ctx.Err() != nil
}

func (c *Conn) Send(ctx context.Context, t protocol.MessageType, payload any) error {
	if c.Closed() {
		return protocol.ErrClosed
	}
	data, err := protocol.Encode(t, payload)
	if err != nil {
		return err
	}
	glog.V(2).Infof("-> %s %s", c.id, data)
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("send %s to %s: %w", t, c.id, err)
	}
	return nil
}

// Expect registers interest in the next frame of any of types.
func (c *Conn) Expect(types ...protocol.MessageType) (*protocol.Waiter, error) {
	return c.pending.Expect(types...)
}

// Request sends a frame and suspends until one of the expected reply types arrives.
func (c *Conn) Request(ctx context.Context, t protocol.MessageType, payload any, expect ...protocol.MessageType) (protocol.Envelope, error) {
	w, err := c.pending.Expect(expect...)
	if err != nil {
		return protocol.Envelope{}, err
	}
	if err := c.Send(ctx, t, payload); err != nil {
		w.Cancel()
		return protocol.Envelope{}, err
	}
	return w.Wait(ctx)
}

// Serve runs the read loop until the connection closes. Frames that resolve a
// waiter bypass the rate limit and the handler.
func (c *Conn) Serve(h MessageHandler) error {
	defer c.Close()

	for {
		msgType, data, err := c.ws.Read(c.ctx)
		if err != nil {
			if c.Closed() || websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return nil
			}
			return fmt.Errorf("read from %s: %w", c.id, err)
		}

		if msgType != websocket.MessageText {
			glog.Warningf("Non-text input from %s", c.id)
			continue
		}

		env, err := protocol.Decode(data)
		if err != nil {
			glog.Warningf("Dropping frame from %s: %v", c.id, err)
			continue
		}
		glog.V(2).Infof("<- %s %s", c.id, data)

		if c.pending.Resolve(env) {
			continue
		}

		if c.limiter != nil && !c.limiter.Allow(c.id) {
			glog.Warningf("Rate limited %s, dropping %s", c.id, env.Type)
			continue
		}

		h.HandleMessage(c, env)
	}
}

// Close fails every pending wait and closes the socket, sending a close frame
// first. Safe to call repeatedly.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.pending.Close()

		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := c.ws.Close(websocket.StatusNormalClosure, ""); err != nil {
				glog.V(2).Infof("Close %s: %v", c.id, err)
			}
		}()
		select {
		case <-done:
		case <-time.After(closeTimeout):
			glog.V(1).Infof("Close handshake with %s timed out", c.id)
			c.ws.CloseNow()
		}
		c.release()
	})
}

// abort drops the connection without a close handshake.
func (c *Conn) abort() {
	c.closeOnce.Do(func() {
		c.pending.Close()
		c.cancel()
		c.ws.CloseNow()
		c.release()
	})
}

func (c *Conn) release() {
	c.cancel()
	if c.limiter != nil {
		c.limiter.RemoveConnection(c.id)
	}
}
