package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nstehr/vimy/vimy-tactics/agent"
	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/core"
	"github.com/nstehr/vimy/vimy-tactics/ipc"
)

const banner = `
██╗   ██╗██╗███╗   ███╗██╗   ██╗
██║   ██║██║████╗ ████║╚██╗ ██╔╝
██║   ██║██║██╔████╔██║ ╚████╔╝
╚██╗ ██╔╝██║██║╚██╔╝██║  ╚██╔╝
 ╚████╔╝ ██║██║ ╚═╝ ██║   ██║
  ╚═══╝  ╚═╝╚═╝     ╚═╝   ╚═╝

Tactical Coordination Core`

func main() {
	configPath := flag.String("config", "", "tunables YAML file (defaults when empty)")
	socketPath := flag.String("socket", "/tmp/vimy.sock", "unix socket to listen on")
	traceDir := flag.String("trace", "", "directory for per-match decision traces")
	debug := flag.Bool("debug", false, "log per-tick decisions")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	// Fail fast on bad rules rather than on the first connection.
	if _, err := core.New(cfg); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.Info("starting vimy", "config", *configPath, "requestRules", len(cfg.Requests), "trace", *traceDir)

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(*socketPath); err != nil {
		slog.Error("failed to clean up socket", "path", *socketPath, "error", err)
		os.Exit(1)
	}

	listener, err := net.Listen("unix", *socketPath)
	if err != nil {
		slog.Error("failed to listen on socket", "path", *socketPath, "error", err)
		os.Exit(1)
	}
	defer os.Remove(*socketPath)

	slog.Info("listening on domain socket", "path", *socketPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Error("failed to accept connection", "error", err)
			continue
		}
		slog.Info("new connection accepted")
		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConn(ctx, conn, cfg, *traceDir)
		}()
	}

	slog.Info("shutting down")
	wg.Wait()
}

// handleConn serves one player with its own core; no state is shared
// between matches.
func handleConn(ctx context.Context, conn net.Conn, cfg config.Config, traceDir string) {
	c := ipc.NewConnection(conn, nil)
	tc, err := core.New(cfg)
	if err != nil {
		slog.Error("failed to build core", "error", err)
		conn.Close()
		return
	}
	a := agent.New(c, tc, traceDir)
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("failed to close trace", "player", a.Player, "error", err)
		}
		if f := tc.Faults(); len(f) > 0 {
			slog.Warn("component faults this match", "player", a.Player, "faults", f)
		}
	}()
	c.RegisterHandler(ipc.TypeHello, a.HandleHello)
	c.RegisterHandler(ipc.TypeGameState, a.HandleGameState)
	c.ReadLoop(ctx)
}
