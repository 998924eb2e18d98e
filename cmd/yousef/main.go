package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/golang/glog"

	"yousef/internal/client"
	"yousef/internal/config"
	"yousef/internal/history"
	"yousef/internal/peer"
	"yousef/internal/protocol"
	"yousef/internal/session"
	"yousef/internal/store"
)

var (
	name = flag.String("name", "", "display name")
	join = flag.String("join", "", "room code to join; hosts a new room when empty")
	addr = flag.String("addr", "", "host address to join, or listen address when hosting")
)

// player is what the command loop drives, on either side of a session.
type player interface {
	Store() *store.Store
	ToggleReady(ctx context.Context) error
	SendChat(ctx context.Context, text string) error
	SelectCards(ctx context.Context, indices []int) error
	Call(ctx context.Context) error
	SelectDraw(ctx context.Context, source protocol.DrawSource) error
}

// host adapts a room to the command loop.
type host struct {
	*session.Room
}

func (h host) ToggleReady(ctx context.Context) error {
	return h.ToggleHostReady(ctx)
}

func (h host) SelectCards(_ context.Context, indices []int) error {
	return h.Room.SelectCards(indices)
}

func (h host) Call(context.Context) error {
	return h.Room.Call()
}

func (h host) SelectDraw(_ context.Context, source protocol.DrawSource) error {
	return h.Room.SelectDraw(source)
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: yousef -name NAME [-join CODE -addr HOST:PORT]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		glog.Exitf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *join == "" {
		err = runHost(ctx, cfg)
	} else {
		err = runJoin(ctx, cfg)
	}
	if err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func runHost(ctx context.Context, cfg config.Config) error {
	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return err
	}

	var ledger history.Recorder = history.Nop{}
	if cfg.DatabaseURL != "" {
		pg, err := history.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		ledger = pg
	}
	defer ledger.Close()

	room, err := session.NewRoom(settings, session.Options{
		AdvertiseAddr: cfg.AdvertiseAddr,
		RateLimit:     cfg.RateLimit,
		History:       ledger,
	})
	if err != nil {
		return err
	}
	unsubscribe := room.Store().Subscribe(newRenderer(room.Store(), os.Stdout).render)
	defer unsubscribe()

	listenAddr := cfg.ListenAddr
	if *addr != "" {
		listenAddr = *addr
	}
	if err := room.Open(ctx, listenAddr); err != nil {
		return err
	}
	defer room.Close()

	if err := room.SetHostName(ctx, *name); err != nil {
		return err
	}
	fmt.Printf("hosting room %s at %s\n", room.Code(), room.Addr())

	return commandLoop(ctx, host{room}, func(ctx context.Context, cmd string, args []string) (bool, error) {
		switch cmd {
		case "start":
			return true, room.StartGame(ctx)
		case "lobby":
			return true, room.ResetToLobby(ctx)
		case "settings":
			if len(args) != 1 {
				return true, fmt.Errorf("usage: settings <yaml-file>")
			}
			s, err := config.LoadSettings(args[0])
			if err != nil {
				return true, err
			}
			return true, room.UpdateSettings(ctx, s)
		case "history":
			results, err := ledger.Recent(ctx, 5)
			if err != nil {
				return true, err
			}
			for _, r := range results {
				fmt.Printf("%s  room %s  %d rounds  losers %s\n",
					r.FinishedAt.Format("2006-01-02 15:04"), r.RoomCode, r.Rounds, strings.Join(r.Losers, ", "))
			}
			return true, nil
		}
		return false, nil
	})
}

func runJoin(ctx context.Context, cfg config.Config) error {
	if *addr == "" {
		return fmt.Errorf("-addr is required to join a room")
	}

	c := client.New(cfg.JoinTimeout)
	unsubscribe := c.Store().Subscribe(newRenderer(c.Store(), os.Stdout).render)
	defer unsubscribe()

	if !c.Join(ctx, *addr, *join) {
		return fmt.Errorf("could not join room %s at %s", *join, *addr)
	}
	defer c.Close()

	if !c.SetName(ctx, *name) {
		return fmt.Errorf("name %q was rejected", *name)
	}
	fmt.Printf("joined room %s as %s\n", peer.NormalizeRoomCode(*join), *name)

	return commandLoop(ctx, c, nil)
}

// commandLoop reads commands from stdin until quit, EOF or ctx ends. extra
// handles side-specific commands and reports whether it recognized cmd.
func commandLoop(ctx context.Context, p player, extra func(ctx context.Context, cmd string, args []string) (bool, error)) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" {
			return nil
		}

		var err error
		handled := true
		switch cmd {
		case "ready":
			err = p.ToggleReady(ctx)
		case "say":
			err = p.SendChat(ctx, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "say")))
		case "call":
			err = p.Call(ctx)
		case "discard":
			var indices []int
			if indices, err = parseIndices(args); err == nil {
				err = p.SelectCards(ctx, indices)
			}
		case "draw":
			if len(args) != 1 || !protocol.DrawSource(args[0]).Valid() {
				err = fmt.Errorf("usage: draw deck|pile")
			} else {
				err = p.SelectDraw(ctx, protocol.DrawSource(args[0]))
			}
		default:
			handled = false
			if extra != nil {
				handled, err = extra(ctx, cmd, args)
			}
		}
		if !handled {
			fmt.Printf("unknown command %q\n", cmd)
			continue
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func parseIndices(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("usage: discard <i> [<j>...]")
	}
	indices := make([]int, 0, len(args))
	for _, a := range args {
		i, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid card index %q", a)
		}
		indices = append(indices, i)
	}
	return indices, nil
}
