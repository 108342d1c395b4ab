// Package ingest loads the post tree from disk into an index.Index.
//
// The layout is {root}/{language}/{id}{ext}. Anything else under root is
// ignored, and a file that cannot be read or decoded is logged and skipped
// so that one bad post never prevents the rest from loading.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/eihrteam/postserver/internal/content"
	"github.com/eihrteam/postserver/internal/content/excerpt"
	"github.com/eihrteam/postserver/internal/content/index"
	"github.com/eihrteam/postserver/internal/content/parser"
	apperrors "github.com/eihrteam/postserver/pkg/errors"
	"github.com/eihrteam/postserver/pkg/metrics"
)

const (
	DefaultExtension = ".md"
	DefaultWorkers   = 8
)

// Skip reasons, used as metric labels and in Stats.
const (
	SkipRead     = "read_error"
	SkipEncoding = "invalid_utf8"
)

// Stats summarises one ingestion run.
type Stats struct {
	Candidates int
	Indexed    int
	Replaced   int
	Skipped    map[string]int
	Languages  int
	Duration   time.Duration
}

// SkippedTotal returns the number of candidate files that were not indexed.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

type Walker struct {
	ext     string
	workers int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Walker)

// WithExtension sets the file suffix recognised as a post, including the dot.
func WithExtension(ext string) Option {
	return func(w *Walker) {
		if ext != "" {
			w.ext = ext
		}
	}
}

// WithWorkers bounds how many files are read and parsed at once.
func WithWorkers(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.workers = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Walker) {
		w.metrics = m
	}
}

func New(opts ...Option) *Walker {
	w := &Walker{
		ext:     DefaultExtension,
		workers: DefaultWorkers,
		logger:  slog.Default().With("component", "ingest"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// candidate is a file whose path matched {lang}/{id}{ext}. seq is its
// position in walk order.
type candidate struct {
	seq  int
	path string
	lang string
	id   string
}

type loaded struct {
	doc    *content.Document
	reason string
	err    error
}

// Ingest loads every post under root. The only error it returns is for a
// root that is missing, unreadable or not a directory, or a cancelled ctx.
func (w *Walker) Ingest(ctx context.Context, root string) (*index.Index, Stats, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %s: %w", apperrors.ErrContentRoot, root, err)
	}
	if !info.IsDir() {
		return nil, Stats{}, fmt.Errorf("%w: %s is not a directory", apperrors.ErrContentRoot, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %s: %w", apperrors.ErrContentRoot, root, err)
	}
	return w.IngestFS(ctx, os.DirFS(root))
}

// IngestFS is Ingest over an arbitrary file system rooted at fsys.
func (w *Walker) IngestFS(ctx context.Context, fsys fs.FS) (*index.Index, Stats, error) {
	start := time.Now()
	stats := Stats{Skipped: make(map[string]int)}

	candidates, err := w.collect(fsys)
	if err != nil {
		return nil, stats, err
	}
	stats.Candidates = len(candidates)

	results := make([]loaded, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for _, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[c.seq] = w.load(fsys, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, fmt.Errorf("ingesting posts: %w", err)
	}

	idx := index.New()
	for i, res := range results {
		c := candidates[i]
		if res.doc == nil {
			w.logger.Warn("skipping post file", "path", c.path, "reason", res.reason, "error", res.err)
			stats.Skipped[res.reason]++
			if w.metrics != nil {
				w.metrics.PostsSkippedTotal.WithLabelValues(res.reason).Inc()
			}
			continue
		}
		if idx.Put(c.lang, res.doc) {
			w.logger.Warn("duplicate post replaced", "lang", c.lang, "id", c.id, "path", c.path)
			stats.Replaced++
			if w.metrics != nil {
				w.metrics.PostsReplacedTotal.Inc()
			}
		}
		stats.Indexed++
	}

	langs := idx.Languages()
	stats.Languages = len(langs)
	stats.Duration = time.Since(start)

	if w.metrics != nil {
		w.metrics.PostsIndexedTotal.Add(float64(stats.Indexed))
		w.metrics.IngestDuration.Observe(stats.Duration.Seconds())
		for _, lang := range langs {
			w.metrics.IndexedPosts.WithLabelValues(lang).Set(float64(idx.LangCount(lang)))
		}
	}

	w.logger.Info("posts loaded",
		"posts", idx.DocCount(),
		"languages", stats.Languages,
		"skipped", stats.SkippedTotal(),
		"duration", stats.Duration,
	)
	return idx, stats, nil
}

// collect walks fsys and returns the post files in walk order. Entries the
// walk itself cannot read are skipped.
func (w *Walker) collect(fsys fs.FS) ([]candidate, error) {
	var candidates []candidate
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return fmt.Errorf("%w: %w", apperrors.ErrContentRoot, err)
			}
			w.logger.Debug("walk error, skipping entry", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		depth := strings.Count(p, "/") + 1
		if d.IsDir() {
			// {lang}/{sub} and below can never hold a post.
			if p != "." && depth >= 2 {
				return fs.SkipDir
			}
			return nil
		}
		lang, id, ok := w.key(p)
		if !ok {
			return nil
		}
		candidates = append(candidates, candidate{
			seq:  len(candidates),
			path: p,
			lang: lang,
			id:   id,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// key derives (lang, id) from a slash-separated path relative to the root.
// Only paths with exactly two components and the post extension qualify.
func (w *Walker) key(rel string) (lang, id string, ok bool) {
	parts := strings.Split(rel, "/")
	if len(parts) != 2 {
		return "", "", false
	}
	if path.Ext(parts[1]) != w.ext {
		return "", "", false
	}
	id = strings.TrimSuffix(parts[1], w.ext)
	if id == "" {
		return "", "", false
	}
	return parts[0], id, true
}

func (w *Walker) load(fsys fs.FS, c candidate) loaded {
	data, err := fs.ReadFile(fsys, c.path)
	if err != nil {
		return loaded{reason: SkipRead, err: err}
	}
	if !utf8.Valid(data) {
		return loaded{reason: SkipEncoding, err: fmt.Errorf("%s is not valid UTF-8", c.path)}
	}
	return loaded{doc: Build(c.id, string(data))}
}

// Build turns the raw text of a post file into a Document.
func Build(id, raw string) *content.Document {
	header, body := parser.Parse(raw)

	h := content.DefaultHeader(id)
	if header != nil {
		h = *header
		if h.Title == "" {
			h.Title = id
		}
		if h.Tags == nil {
			h.Tags = []string{}
		}
	}

	return content.NewDocument(
		id,
		h.Title,
		content.NormalizeDate(h.Date),
		h.Tags,
		excerpt.Derive(body, h.Excerpt),
		body,
		ETag(raw),
	)
}

// ETag returns a strong entity tag for raw file content.
func ETag(raw string) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64String(raw))
}
