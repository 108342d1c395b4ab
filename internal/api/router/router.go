// Package router wires up all post API routes and applies the middleware
// chain (RequestID → Metrics → CORS → RateLimit → CacheControl → Timeout).
package router

import (
	"net/http"
	"time"

	apimw "github.com/eihrteam/postserver/internal/api/middleware"
	"github.com/eihrteam/postserver/internal/api/handler"
	"github.com/eihrteam/postserver/pkg/health"
	"github.com/eihrteam/postserver/pkg/metrics"
	pkgmw "github.com/eihrteam/postserver/pkg/middleware"
)

// Options carries the optional pieces of the middleware chain. Zero values
// disable the corresponding middleware.
type Options struct {
	CORS      apimw.CORSConfig
	Limiter   *apimw.ClientLimiter
	Metrics   *metrics.Metrics
	APIMaxAge time.Duration
	Timeout   time.Duration
}

// New builds the full HTTP handler with all routes and middleware.
//
// Route table:
//
//	GET /api/posts          → list posts      (?lang=)
//	GET /api/posts/{id}     → get post        (?lang=)
//	GET /posts              → list posts      (alias)
//	GET /posts/{id}         → get post        (alias)
//	GET /sitemap.xml        → sitemap
//	GET /health/live        → liveness
//	GET /health/ready       → readiness
//	GET /                   → service info
//
// Middleware chain (outermost first):
//
//	RequestID → Metrics → CORS → RateLimit → CacheControl → Timeout → handler
func New(h *handler.Handler, checker *health.Checker, opts Options) http.Handler {
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	// Post API
	mux.HandleFunc("GET /api/posts", h.ListPosts)
	mux.HandleFunc("GET /api/posts/{id}", h.GetPost)
	mux.HandleFunc("GET /posts", h.ListPosts)
	mux.HandleFunc("GET /posts/{id}", h.GetPost)

	mux.HandleFunc("GET /sitemap.xml", h.Sitemap)
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("/", h.NotFound)

	// Middleware chain, applied inside-out.
	var chain http.Handler = mux
	chain = pkgmw.Timeout(opts.Timeout)(chain)
	chain = pkgmw.CacheControl(opts.APIMaxAge)(chain)
	chain = apimw.RateLimit(opts.Limiter, opts.Metrics)(chain)
	chain = apimw.CORS(opts.CORS)(chain)
	if opts.Metrics != nil {
		chain = pkgmw.Metrics(opts.Metrics)(chain)
	}
	chain = pkgmw.RequestID(chain)

	return chain
}
