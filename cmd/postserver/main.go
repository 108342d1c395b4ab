// Command postserver loads a tree of markdown posts into memory and serves
// them over a read-only JSON API.
//
// Posts live at {posts-dir}/{lang}/{id}.md with optional YAML front matter
// (title, date, tags, excerpt). The tree is read once at startup; there is
// no reload.
//
// Usage:
//
//	go run ./cmd/postserver [--config configs/development.yaml] [-p DIR] [-H HOST] [-P PORT]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/eihrteam/postserver/pkg/logger"
	"github.com/eihrteam/postserver/pkg/metrics"
)

var version = "dev"

// errExit signals that --help or --version already produced the output.
var errExit = errors.New("exit requested")

func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errExit) {
			return
		}
		fmt.Fprintf(os.Stderr, "postserver: %v\n", err)
		os.Exit(1)
	}
}

// run parses flags, loads posts, binds the listener and serves until ctx is
// cancelled. Any error before the listener is up is fatal.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli, err := parseCLI(args, stdout, stderr)
	if err != nil {
		return err
	}
	cfg, err := cli.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting post server",
		"version", version,
		"posts_dir", cfg.Content.PostsDir,
		"default_lang", cfg.Content.DefaultLang,
		"addr", cfg.Server.Addr(),
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		shutdown := m.StartServer(cfg.Metrics.Port)
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	app, err := NewApp(ctx, cfg, m)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("binding %s: %w", cfg.Server.Addr(), err)
	}

	if err := app.Serve(ctx, ln); err != nil {
		return err
	}
	slog.Info("post server stopped")
	return nil
}
