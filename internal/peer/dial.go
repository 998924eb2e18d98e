package peer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/golang/glog"

	"yousef/internal/protocol"
)

// RoomURL is the websocket endpoint of room code on addr.
func RoomURL(addr, code string) string {
	return fmt.Sprintf("ws://%s/room/%s", addr, NormalizeRoomCode(code))
}

// Dial connects to the room and suspends until the host has verified itself
// with yousef_ver or ctx ends. The handler only sees the connection once it is
// verified.
func Dial(ctx context.Context, addr, code string, h ConnectionHandler, opts Options) (*Conn, error) {
	if err := ValidateRoomCode(NormalizeRoomCode(code)); err != nil {
		return nil, err
	}

	socket, _, err := websocket.Dial(ctx, RoomURL(addr, code), nil)
	if err != nil {
		return nil, fmt.Errorf("dial room %s: %w", NormalizeRoomCode(code), err)
	}

	var limiter *RateLimiter
	if opts.RateLimit > 0 {
		limiter = NewRateLimiter(opts.RateLimit, time.Second)
	}
	c := newConn(socket, limiter)

	verify, err := c.Expect(protocol.TypeVerify)
	if err != nil {
		c.abort()
		return nil, err
	}

	var verified atomic.Bool
	go func() {
		if err := c.Serve(h); err != nil {
			glog.Warningf("Connection %s read error: %v", c.ID(), err)
		}
		if verified.Load() {
			h.HandleDisconnect(c)
		}
	}()

	if _, err := verify.Wait(ctx); err != nil {
		c.abort()
		return nil, fmt.Errorf("verify room %s: %w", NormalizeRoomCode(code), err)
	}

	verified.Store(true)
	h.HandleConnect(c)
	glog.Infof("Connected to room %s as %s", NormalizeRoomCode(code), c.ID())
	return c, nil
}
