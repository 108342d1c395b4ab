// Package content defines the post types shared by the parser, the
// ingestion walker, the index and the query service.
package content

import "strings"

// Header is the decoded front matter of a post file. Excerpt is nil when the
// header does not mention it, which is different from an explicit empty
// excerpt.
type Header struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Tags    []string `yaml:"tags"`
	Excerpt *string  `yaml:"excerpt"`
}

// DefaultHeader is the header used when a file has no usable front matter.
func DefaultHeader(id string) Header {
	return Header{
		Title: id,
		Tags:  []string{},
	}
}

// Document is a post as held by the index. Content is nil in list views.
type Document struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Tags    []string `json:"tags"`
	Excerpt string   `json:"excerpt"`
	Content *string  `json:"content,omitempty"`

	etag string
}

// NewDocument builds a Document. tags is copied so the caller's slice can
// be reused.
func NewDocument(id, title, date string, tags []string, excerpt, body, etag string) *Document {
	t := make([]string, len(tags))
	copy(t, tags)
	return &Document{
		ID:      id,
		Title:   title,
		Date:    date,
		Tags:    t,
		Excerpt: excerpt,
		Content: &body,
		etag:    etag,
	}
}

// ETag returns the strong entity tag computed from the source file, or ""
// if none was recorded.
func (d Document) ETag() string {
	return d.etag
}

// WithoutContent returns a copy of d suitable for list responses.
func (d Document) WithoutContent() Document {
	d.Content = nil
	return d
}

// Body returns the full text, or "" when the document was built without it.
func (d Document) Body() string {
	if d.Content == nil {
		return ""
	}
	return *d.Content
}

// NormalizeDate rewrites a raw header date into the dotted form used for
// display and ordering. It is a plain substitution: "2024-01-15" becomes
// "2024.01.15" and malformed values pass through with the same rewrite.
func NormalizeDate(raw string) string {
	return strings.ReplaceAll(raw, "-", ".")
}
