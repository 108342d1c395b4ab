package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/eihrteam/postserver/internal/api/handler"
	apimw "github.com/eihrteam/postserver/internal/api/middleware"
	"github.com/eihrteam/postserver/internal/api/router"
	"github.com/eihrteam/postserver/internal/content/index"
	"github.com/eihrteam/postserver/internal/content/ingest"
	"github.com/eihrteam/postserver/internal/content/query"
	"github.com/eihrteam/postserver/pkg/config"
	"github.com/eihrteam/postserver/pkg/health"
	"github.com/eihrteam/postserver/pkg/metrics"
)

const serviceName = "postserver"

// App is a fully loaded server: the index is built and the handler chain
// is ready before anything listens.
type App struct {
	cfg     *config.Config
	index   *index.Index
	stats   ingest.Stats
	limiter *apimw.ClientLimiter
	handler http.Handler
}

// NewApp ingests the content tree and wires the HTTP handler. It fails only
// when the content root cannot be read.
func NewApp(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*App, error) {
	walker := ingest.New(
		ingest.WithExtension(cfg.Content.Extension),
		ingest.WithWorkers(cfg.Content.IngestWorkers),
		ingest.WithMetrics(m),
	)
	idx, stats, err := walker.Ingest(ctx, cfg.Content.PostsDir)
	if err != nil {
		return nil, fmt.Errorf("loading posts: %w", err)
	}

	posts := query.New(idx, cfg.Content.DefaultLang)

	checker := health.NewChecker(serviceName)
	checker.Register("post_index", health.PostIndexCheck(idx.DocCount))

	var limiter *apimw.ClientLimiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = apimw.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	h := handler.New(handler.Config{
		Name:          cfg.Site.Name,
		Version:       cfg.Site.Version,
		Environment:   cfg.Site.Environment,
		SiteURL:       cfg.Site.URL,
		SitemapMaxAge: cfg.Cache.SitemapMaxAge,
	}, posts, m)

	chain := router.New(h, checker, router.Options{
		CORS:      apimw.CORSFromConfig(cfg.CORS),
		Limiter:   limiter,
		Metrics:   m,
		APIMaxAge: cfg.Cache.APIMaxAge,
		Timeout:   cfg.Server.WriteTimeout,
	})

	return &App{
		cfg:     cfg,
		index:   idx,
		stats:   stats,
		limiter: limiter,
		handler: chain,
	}, nil
}

// Stats reports what the startup ingestion loaded and skipped.
func (a *App) Stats() ingest.Stats {
	return a.stats
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	if a.limiter != nil {
		go a.limiter.Run(ctx, time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("post server listening", "addr", ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
