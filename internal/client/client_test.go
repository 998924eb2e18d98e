package client_test

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yousef/internal/client"
	"yousef/internal/protocol"
	"yousef/internal/session"
	"yousef/internal/store"
)

func openRoom(t *testing.T) *session.Room {
	t.Helper()
	room, err := session.NewRoom(protocol.DefaultSettings(), session.Options{})
	require.NoError(t, err)
	require.NoError(t, room.Open(context.Background(), "127.0.0.1:0"))
	t.Cleanup(func() { room.Close() })
	require.NoError(t, room.SetHostName(context.Background(), "Host"))
	return room
}

// silentHost accepts websocket upgrades and never verifies itself.
func silentHost(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	release := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})}
	go srv.Serve(ln)
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	return ln.Addr().String()
}

func TestSendWithoutConnection(t *testing.T) {
	assert := assert.New(t)
	c := client.New(0)
	ctx := context.Background()

	assert.ErrorIs(c.SendChat(ctx, "hi"), client.ErrNoConnection)
	assert.ErrorIs(c.ToggleReady(ctx), client.ErrNoConnection)
	assert.ErrorIs(c.Call(ctx), client.ErrNoConnection)
	assert.ErrorIs(c.SelectCards(ctx, []int{0}), client.ErrNoConnection)
	assert.ErrorIs(c.SelectDraw(ctx, protocol.DrawDeck), client.ErrNoConnection)
	assert.False(c.SetName(ctx, "Ann"))
	assert.Equal(store.Idle, c.Store().UserState())
	c.Close()
}

func TestJoinTimesOut(t *testing.T) {
	addr := silentHost(t)

	tests := []struct {
		name    string
		timeout time.Duration
		bound   time.Duration
	}{
		{"short", 200 * time.Millisecond, time.Second},
		{"default", 0, client.DefaultJoinTimeout + 500*time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := client.New(tt.timeout)
			start := time.Now()
			assert.False(t, c.Join(context.Background(), addr, "ABCD"))
			assert.Less(t, time.Since(start), tt.bound)
		})
	}
}

func TestJoinRejectsBadCode(t *testing.T) {
	room := openRoom(t)
	c := client.New(0)

	assert.False(t, c.Join(context.Background(), room.Addr(), "AB"))
	other := "ZZZZ"
	if room.Code() == other {
		other = "YYYY"
	}
	assert.False(t, c.Join(context.Background(), room.Addr(), other), "unknown room")
}

func TestJoinAndName(t *testing.T) {
	assert := assert.New(t)
	room := openRoom(t)
	c := client.New(0)
	t.Cleanup(c.Close)

	require.True(t, c.Join(context.Background(), room.Addr(), room.Code()))
	assert.False(c.SetName(context.Background(), "Host"))
	require.True(t, c.SetName(context.Background(), "  Ann  "))
	assert.Equal("Ann", c.Store().Self())

	require.Eventually(t, func() bool {
		return len(c.Store().Lobby()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(protocol.DefaultSettings(), c.Store().Settings())

	require.NoError(t, c.ToggleReady(context.Background()))
	require.Eventually(t, func() bool {
		lobby := room.Store().Lobby()
		return len(lobby) == 2 && lobby[1].IsReady
	}, time.Second, 10*time.Millisecond)
}
