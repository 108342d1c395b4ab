// Package index holds the in-memory language → id → post mapping built at
// startup and read by request handlers for the rest of the process.
package index

import (
	"sort"
	"sync"

	"github.com/eihrteam/postserver/internal/content"
)

type Index struct {
	mu       sync.RWMutex
	posts    map[string]map[string]*content.Document
	docCount int
}

func New() *Index {
	return &Index{
		posts: make(map[string]map[string]*content.Document),
	}
}

// Put stores doc under (lang, doc.ID), replacing any earlier entry for the
// same key. It reports whether an entry was replaced.
func (x *Index) Put(lang string, doc *content.Document) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	byID, exists := x.posts[lang]
	if !exists {
		byID = make(map[string]*content.Document)
		x.posts[lang] = byID
	}
	_, replaced := byID[doc.ID]
	byID[doc.ID] = doc
	if !replaced {
		x.docCount++
	}
	return replaced
}

// Get returns a copy of the document stored under (lang, id).
func (x *Index) Get(lang, id string) (content.Document, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	byID, exists := x.posts[lang]
	if !exists {
		return content.Document{}, false
	}
	doc, exists := byID[id]
	if !exists {
		return content.Document{}, false
	}
	return *doc, true
}

// List returns copies of every document for lang in no particular order.
// The result is nil when the language is unknown.
func (x *Index) List(lang string) []content.Document {
	x.mu.RLock()
	defer x.mu.RUnlock()
	byID, exists := x.posts[lang]
	if !exists {
		return nil
	}
	result := make([]content.Document, 0, len(byID))
	for _, doc := range byID {
		result = append(result, *doc)
	}
	return result
}

// Languages returns the language codes present, sorted.
func (x *Index) Languages() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	langs := make([]string, 0, len(x.posts))
	for lang := range x.posts {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func (x *Index) DocCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.docCount
}

// LangCount returns the number of documents stored for lang.
func (x *Index) LangCount(lang string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.posts[lang])
}
