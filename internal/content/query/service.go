// Package query answers the two read operations the API exposes over the
// post index: list a language and fetch one post.
package query

import (
	"net/http"
	"sort"

	"github.com/eihrteam/postserver/internal/content"
	"github.com/eihrteam/postserver/internal/content/index"
	apperrors "github.com/eihrteam/postserver/pkg/errors"
)

// DefaultLang is used when neither the caller nor the configuration names
// a language.
const DefaultLang = "zh"

// Store is the read side of the index the service needs.
type Store interface {
	Get(lang, id string) (content.Document, bool)
	List(lang string) []content.Document
	Languages() []string
	DocCount() int
}

var _ Store = (*index.Index)(nil)

type Service struct {
	store       Store
	defaultLang string
}

func New(store Store, defaultLang string) *Service {
	if defaultLang == "" {
		defaultLang = DefaultLang
	}
	return &Service{store: store, defaultLang: defaultLang}
}

// DefaultLang returns the language used for requests that do not name one.
func (s *Service) DefaultLang() string {
	return s.defaultLang
}

// Lang resolves an optional language to the one actually queried.
func (s *Service) Lang(lang string) string {
	if lang == "" {
		return s.defaultLang
	}
	return lang
}

// List returns every post for lang without its content, newest first.
// Dates are compared as strings, which orders correctly because they are
// normalized to YYYY.MM.DD. Equal dates fall back to id order. An unknown
// language yields an empty, non-nil slice.
func (s *Service) List(lang string) []content.Document {
	docs := s.store.List(s.Lang(lang))
	posts := make([]content.Document, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.WithoutContent())
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Date != posts[j].Date {
			return posts[i].Date > posts[j].Date
		}
		return posts[i].ID < posts[j].ID
	})
	return posts
}

// Get returns the full post stored under (lang, id). A miss on either key
// returns an error matching apperrors.ErrPostNotFound.
func (s *Service) Get(lang, id string) (content.Document, error) {
	lang = s.Lang(lang)
	doc, ok := s.store.Get(lang, id)
	if !ok {
		return content.Document{}, apperrors.Newf(apperrors.ErrPostNotFound, http.StatusNotFound, "lang=%s id=%s", lang, id)
	}
	return doc, nil
}

// Languages returns the languages that have at least one post.
func (s *Service) Languages() []string {
	return s.store.Languages()
}

// Count returns the number of posts across all languages.
func (s *Service) Count() int {
	return s.store.DocCount()
}

// All returns every post of every language without content, grouped by
// language in sorted order.
func (s *Service) All() map[string][]content.Document {
	out := make(map[string][]content.Document)
	for _, lang := range s.store.Languages() {
		out[lang] = s.List(lang)
	}
	return out
}
