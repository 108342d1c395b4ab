package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eihrteam/postserver/internal/content/ingest"
	apperrors "github.com/eihrteam/postserver/pkg/errors"
	"github.com/eihrteam/postserver/pkg/metrics"
)

func writeFile(t *testing.T, root, rel, data string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestIngest_IndexesTwoLevelPaths(t *testing.T) {
	t.Parallel()

	// Given a content tree with valid and misplaced files
	root := t.TempDir()
	writeFile(t, root, "zh/hello.md", "---\ntitle: 你好\ndate: 2024-01-15\ntags: [intro]\n---\n# 正文\n")
	writeFile(t, root, "en/world.md", "plain body, no header")
	writeFile(t, root, "top.md", "directly under root")
	writeFile(t, root, "zh/drafts/deep.md", "nested too deep")
	writeFile(t, root, "zh/notes.txt", "wrong extension")

	// When the tree is ingested
	idx, stats, err := ingest.New().Ingest(context.Background(), root)

	// Then only {lang}/{id}.md files are indexed
	require.NoError(t, err)
	assert.Equal(t, 2, idx.DocCount())
	assert.Equal(t, []string{"en", "zh"}, idx.Languages())
	assert.Equal(t, 2, stats.Candidates)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 0, stats.SkippedTotal())

	hello, ok := idx.Get("zh", "hello")
	require.True(t, ok)
	assert.Equal(t, "hello", hello.ID)
	assert.Equal(t, "你好", hello.Title)
	assert.Equal(t, "2024.01.15", hello.Date)
	assert.Equal(t, []string{"intro"}, hello.Tags)
	assert.Equal(t, "正文", hello.Excerpt)
	assert.NotEmpty(t, hello.ETag())

	world, ok := idx.Get("en", "world")
	require.True(t, ok)
	assert.Equal(t, "world", world.Title)
	assert.Equal(t, "", world.Date)
	assert.Equal(t, []string{}, world.Tags)
	assert.Equal(t, "plain body, no header", world.Body())

	_, ok = idx.Get("zh", "deep")
	assert.False(t, ok)
	_, ok = idx.Get("zh", "notes")
	assert.False(t, ok)
}

func TestIngest_LanguageIsCaseSensitive(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"EN/a.md": {Data: []byte("upper")},
		"en/a.md": {Data: []byte("lower")},
	}

	idx, _, err := ingest.New().IngestFS(context.Background(), fsys)

	require.NoError(t, err)
	assert.Equal(t, []string{"EN", "en"}, idx.Languages())
	assert.Equal(t, 2, idx.DocCount())
}

func TestIngest_SkipsInvalidUTF8(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "zh/good.md", "fine")
	writeFile(t, root, "zh/bad.md", string([]byte{0xff, 0xfe, 0xfd}))

	m := metrics.New(nil)
	idx, stats, err := ingest.New(ingest.WithMetrics(m)).Ingest(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, 1, idx.DocCount())
	assert.Equal(t, 1, stats.Skipped[ingest.SkipEncoding])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PostsSkippedTotal.WithLabelValues(ingest.SkipEncoding)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PostsIndexedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexedPosts.WithLabelValues("zh")))
}

func TestIngest_MissingRootIsFatal(t *testing.T) {
	t.Parallel()

	_, _, err := ingest.New().Ingest(context.Background(), filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrContentRoot)
}

func TestIngest_RootMustBeDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "file.md", "x")

	_, _, err := ingest.New().Ingest(context.Background(), filepath.Join(root, "file.md"))

	assert.ErrorIs(t, err, apperrors.ErrContentRoot)
}

func TestIngest_EmptyRootGivesEmptyIndex(t *testing.T) {
	t.Parallel()

	idx, stats, err := ingest.New().Ingest(context.Background(), t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 0, idx.DocCount())
	assert.Equal(t, 0, stats.Languages)
}

func TestIngestFS_CustomExtensionAndWorkers(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"en/a.markdown": {Data: []byte("---\ndate: 2024-13-40\n---\nA")},
		"en/b.md":       {Data: []byte("B")},
	}

	idx, _, err := ingest.New(ingest.WithExtension(".markdown"), ingest.WithWorkers(1)).
		IngestFS(context.Background(), fsys)

	require.NoError(t, err)
	assert.Equal(t, 1, idx.DocCount())
	a, ok := idx.Get("en", "a")
	require.True(t, ok)
	assert.Equal(t, "2024.13.40", a.Date, "dates are rewritten without validation")
}

func TestIngestFS_CancelledContext(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"en/a.md": {Data: []byte("A")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ingest.New().IngestFS(ctx, fsys)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_AppliesDefaultsAndDerivesExcerpt(t *testing.T) {
	t.Parallel()

	doc := ingest.Build("no-header", "# Heading\nSome *text*.")

	assert.Equal(t, "no-header", doc.ID)
	assert.Equal(t, "no-header", doc.Title)
	assert.Equal(t, "", doc.Date)
	assert.Equal(t, []string{}, doc.Tags)
	assert.Equal(t, "Heading\nSome  text .", doc.Excerpt)
	assert.Equal(t, "# Heading\nSome *text*.", doc.Body())
}

func TestBuild_MalformedHeaderUsesDefaults(t *testing.T) {
	t.Parallel()

	doc := ingest.Build("post", "---\ntitle: [oops\n---\nbody text")

	assert.Equal(t, "post", doc.Title)
	assert.Equal(t, []string{}, doc.Tags)
	assert.Equal(t, "body text", strings.TrimSpace(doc.Body()))
}

func TestBuild_HeaderWithoutTitleUsesID(t *testing.T) {
	t.Parallel()

	doc := ingest.Build("untitled", "---\ndate: 2023-12-31\n---\nbody")

	assert.Equal(t, "untitled", doc.Title)
	assert.Equal(t, "2023.12.31", doc.Date)
}

func TestBuild_ExplicitEmptyExcerptSuppressesDerivation(t *testing.T) {
	t.Parallel()

	doc := ingest.Build("quiet", "---\ntitle: Quiet\nexcerpt: ''\n---\nA body that would make an excerpt.")

	assert.Equal(t, "", doc.Excerpt)
	assert.Contains(t, doc.Body(), "A body that would make an excerpt.")
}

func TestETag_StableAndContentSensitive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ingest.ETag("a"), ingest.ETag("a"))
	assert.NotEqual(t, ingest.ETag("a"), ingest.ETag("b"))
	assert.True(t, strings.HasPrefix(ingest.ETag("a"), `"`))
}
