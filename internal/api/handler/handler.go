package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eihrteam/postserver/internal/content"
	"github.com/eihrteam/postserver/internal/content/query"
	"github.com/eihrteam/postserver/internal/sitemap"
	apperrors "github.com/eihrteam/postserver/pkg/errors"
	"github.com/eihrteam/postserver/pkg/logger"
	"github.com/eihrteam/postserver/pkg/metrics"
)

// Config holds the site details the handlers report and link to.
type Config struct {
	Name          string
	Version       string
	Environment   string
	SiteURL       string
	SitemapMaxAge time.Duration
}

// Handler implements the post API's HTTP endpoints over a query.Service.
type Handler struct {
	posts   *query.Service
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Handler. m may be nil when metrics are disabled.
func New(cfg Config, posts *query.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		posts:   posts,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "post-handler"),
	}
}

// listResponse is the body of GET /api/posts.
type listResponse struct {
	Posts []content.Document `json:"posts"`
}

// ---------- Post handlers ----------

// ListPosts returns every post of the requested language without content,
// newest first. An unknown language yields an empty list.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	posts := h.posts.List(lang)

	logger.FromContext(r.Context()).Debug("listed posts",
		"lang", h.posts.Lang(lang),
		"count", len(posts),
	)
	h.writeJSON(w, http.StatusOK, listResponse{Posts: posts})
}

// GetPost returns a single post with its content, or 404.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lang := r.URL.Query().Get("lang")

	doc, err := h.posts.Get(lang, id)
	if err != nil {
		h.recordLookup("miss")
		if !apperrors.Is(err, apperrors.ErrPostNotFound) {
			logger.FromContext(r.Context()).Error("failed to fetch post", "id", id, "lang", lang, "error", err)
		}
		h.writeAppError(w, err)
		return
	}
	h.recordLookup("hit")

	if etag := doc.ETag(); etag != "" {
		w.Header().Set("ETag", etag)
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// Sitemap renders sitemap.xml for every post id across languages.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	origin := sitemap.Origin(h.cfg.SiteURL, h.cfg.Environment, r)
	body, err := sitemap.Render(origin, sitemap.URLs(h.posts.All()))
	if err != nil {
		logger.FromContext(r.Context()).Error("failed to render sitemap", "error", err)
		h.writeAppError(w, fmt.Errorf("%w: %w", apperrors.ErrSitemapBuilding, err))
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if h.cfg.SitemapMaxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cfg.SitemapMaxAge.Seconds())))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write sitemap", "error", err)
	}
}

// ---------- Service info ----------

// Root describes the service.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"name":        h.cfg.Name,
		"version":     h.cfg.Version,
		"status":      "ok",
		"environment": h.cfg.Environment,
	})
}

// NotFound answers any unrouted path with a JSON 404.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusNotFound, "Not found")
}

// ---------- Helpers ----------

func (h *Handler) recordLookup(result string) {
	if h.metrics != nil {
		h.metrics.PostLookupsTotal.WithLabelValues(result).Inc()
	}
}

// etagMatches implements the If-None-Match comparison for a strong tag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	h.writeError(w, apperrors.HTTPStatusCode(err), apperrors.PublicMessage(err))
}
