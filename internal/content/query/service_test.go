package query_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eihrteam/postserver/internal/content"
	"github.com/eihrteam/postserver/internal/content/index"
	"github.com/eihrteam/postserver/internal/content/query"
	apperrors "github.com/eihrteam/postserver/pkg/errors"
)

func newService(t *testing.T) *query.Service {
	t.Helper()
	idx := index.New()
	idx.Put("zh", content.NewDocument("old", "Old", "2023.12.31", nil, "e", "old body", ""))
	idx.Put("zh", content.NewDocument("new", "New", "2024.01.01", []string{"x"}, "e", "new body", ""))
	idx.Put("zh", content.NewDocument("undated", "Undated", "", nil, "e", "u", ""))
	idx.Put("zh", content.NewDocument("b-same", "B", "2024.01.01", nil, "e", "b", ""))
	idx.Put("en", content.NewDocument("hello", "Hello", "2022.05.05", nil, "e", "hi", ""))
	return query.New(idx, "zh")
}

func TestList_SortedByDateDescending(t *testing.T) {
	t.Parallel()

	posts := newService(t).List("zh")

	require.Len(t, posts, 4)
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"b-same", "new", "old", "undated"}, ids)
}

func TestList_OmitsContent(t *testing.T) {
	t.Parallel()

	for _, p := range newService(t).List("zh") {
		assert.Nil(t, p.Content, "post %s", p.ID)
		assert.NotEmpty(t, p.Excerpt)
	}
}

func TestList_DefaultLanguage(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	assert.Len(t, svc.List(""), 4)
	assert.Equal(t, "zh", svc.Lang(""))
	assert.Equal(t, "en", svc.Lang("en"))
}

func TestList_UnknownLanguageIsEmpty(t *testing.T) {
	t.Parallel()

	posts := newService(t).List("fr")

	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestGet_ReturnsContent(t *testing.T) {
	t.Parallel()

	doc, err := newService(t).Get("en", "hello")

	require.NoError(t, err)
	require.NotNil(t, doc.Content)
	assert.Equal(t, "hi", *doc.Content)
}

func TestGet_DefaultLanguage(t *testing.T) {
	t.Parallel()

	doc, err := newService(t).Get("", "new")

	require.NoError(t, err)
	assert.Equal(t, "New", doc.Title)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	for _, tc := range []struct{ lang, id string }{
		{"zh", "nonexistent"},
		{"fr", "hello"},
		{"en", "new"},
	} {
		_, err := svc.Get(tc.lang, tc.id)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
		assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatusCode(err))
	}
}

func TestNew_EmptyDefaultFallsBackToZh(t *testing.T) {
	t.Parallel()

	svc := query.New(index.New(), "")

	assert.Equal(t, query.DefaultLang, svc.DefaultLang())
	assert.Equal(t, 0, svc.Count())
}

func TestAll_GroupsByLanguage(t *testing.T) {
	t.Parallel()

	all := newService(t).All()

	assert.Len(t, all, 2)
	assert.Len(t, all["zh"], 4)
	assert.Len(t, all["en"], 1)
	assert.Equal(t, []string{"en", "zh"}, newService(t).Languages())
}
