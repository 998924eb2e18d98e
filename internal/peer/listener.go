package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/golang/glog"

	"yousef/internal/protocol"
)

type Options struct {
	// RateLimit caps unsolicited messages per second per connection. Zero disables it.
	RateLimit int
	Rand      *rand.Rand
}

// Listener accepts inbound connections for a single room.
type Listener struct {
	code    string
	ln      net.Listener
	srv     *http.Server
	handler ConnectionHandler
	limiter *RateLimiter

	mu     sync.Mutex
	conns  map[string]*Conn
	closed bool
	done   chan struct{}
}

// limiterSweep is how often idle connections are dropped from the rate limiter.
const limiterSweep = time.Minute

// Listen binds addr and returns once the room is reachable at Addr and Code.
func Listen(ctx context.Context, addr string, h ConnectionHandler, opts Options) (*Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	l := &Listener{
		code:    GenerateRoomCode(opts.Rand, nil),
		ln:      ln,
		handler: h,
		conns:   make(map[string]*Conn),
		done:    make(chan struct{}),
	}
	if opts.RateLimit > 0 {
		l.limiter = NewRateLimiter(opts.RateLimit, time.Second)
		go l.sweep(limiterSweep)
	}

	l.srv = &http.Server{
		Handler:           l.routes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := l.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			glog.Errorf("Room %s listener stopped: %v", l.code, err)
		}
	}()

	glog.Infof("Room %s listening on %s", l.code, l.Addr())
	return l, nil
}

func (l *Listener) Code() string {
	return l.code
}

func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

func (l *Listener) ConnectionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

// Close stops accepting and closes every open connection.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	conns := make([]*Conn, 0, len(l.conns))
	for _, c := range l.conns {
		conns = append(conns, c)
	}
	l.mu.Unlock()

	close(l.done)

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()
	return l.srv.Close()
}

func (l *Listener) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.limiter.Cleanup()
		}
	}
}

func (l *Listener) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", l.healthHandler)
	mux.HandleFunc("GET /room/{code}", l.websocketHandler)
	return mux
}

func (l *Listener) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(map[string]any{
		"status":      "up",
		"room":        l.code,
		"connections": l.ConnectionCount(),
	})
	if err != nil {
		http.Error(w, "Failed to marshal health check response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(resp); err != nil {
		glog.Warningf("Failed to write response: %v", err)
	}
}

func (l *Listener) websocketHandler(w http.ResponseWriter, r *http.Request) {
	if NormalizeRoomCode(r.PathValue("code")) != l.code {
		http.NotFound(w, r)
		return
	}

	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		glog.Warningf("Failed to open websocket: %v", err)
		return
	}

	c := newConn(socket, l.limiter)
	if !l.track(c) {
		c.Close()
		return
	}
	defer l.untrack(c)

	glog.Infof("New connection: %s", c.ID())

	if err := c.Send(r.Context(), protocol.TypeVerify, nil); err != nil {
		glog.Errorf("Failed to send %s to %s: %v", protocol.TypeVerify, c.ID(), err)
		c.Close()
		return
	}

	l.handler.HandleConnect(c)
	if err := c.Serve(l.handler); err != nil {
		glog.Warningf("Connection %s read error: %v", c.ID(), err)
	}
	glog.Infof("Connection closed: %s", c.ID())
	l.handler.HandleDisconnect(c)
}

func (l *Listener) track(c *Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.conns[c.ID()] = c
	return true
}

func (l *Listener) untrack(c *Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.conns, c.ID())
}
