package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yousef/internal/peer"
	"yousef/internal/protocol"
)

type hostSide struct {
	connected chan *peer.Conn
}

func (h *hostSide) HandleConnect(c *peer.Conn)                  { h.connected <- c }
func (h *hostSide) HandleDisconnect(*peer.Conn)                 {}
func (h *hostSide) HandleMessage(*peer.Conn, protocol.Envelope) {}

// answerer replies to each turn update with the next canned card_select.
type answerer struct {
	replies []any
	turns   atomic.Int32
}

func (a *answerer) HandleConnect(*peer.Conn)    {}
func (a *answerer) HandleDisconnect(*peer.Conn) {}
func (a *answerer) HandleMessage(c *peer.Conn, env protocol.Envelope) {
	if env.Type != protocol.TypeTurnUpdate {
		return
	}
	n := int(a.turns.Add(1)) - 1
	if n < len(a.replies) {
		c.Send(context.Background(), protocol.TypeCardSelect, a.replies[n])
	}
}

func TestRemoteCardSelectionNeedsHands(t *testing.T) {
	tests := []struct {
		name    string
		replies []any
		want    []int
		turns   int32
	}{
		{"empty object", []any{struct{}{}, protocol.CardSelect{Hands: []int{}}}, []int{}, 2},
		{"null hands", []any{map[string]any{"hands": nil}, protocol.CardSelect{Hands: []int{2}}}, []int{2}, 2},
		{"explicit call", []any{protocol.CardSelect{Hands: []int{}}}, []int{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			host := &hostSide{connected: make(chan *peer.Conn, 1)}
			l, err := peer.Listen(ctx, "127.0.0.1:0", host, peer.Options{})
			require.NoError(t, err)
			t.Cleanup(func() { l.Close() })

			guest := &answerer{replies: tt.replies}
			conn, err := peer.Dial(ctx, l.Addr(), l.Code(), guest, peer.Options{})
			require.NoError(t, err)
			t.Cleanup(conn.Close)

			var hostConn *peer.Conn
			select {
			case hostConn = <-host.connected:
			case <-ctx.Done():
				t.Fatal("guest never connected")
			}

			p := &RemotePlayer{conn: hostConn, name: "Ann"}
			hands, err := p.RequestCardSelection(ctx, protocol.TurnUpdate{})
			require.NoError(t, err)
			assert.NotNil(hands)
			assert.Equal(tt.want, hands)
			assert.Equal(tt.turns, guest.turns.Load())
		})
	}
}
