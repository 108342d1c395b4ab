// Package parser splits a post file into its YAML front matter and body.
package parser

import (
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/eihrteam/postserver/internal/content"
)

const delimiter = "---"

// result collects what the front-matter callback saw for a single Parse call.
type result struct {
	found  bool
	header *content.Header
}

// Parse extracts the front matter that opens raw on its first line. It never fails: when
// there is no header block, or the block is not valid YAML for a Header,
// the returned header is nil and callers apply defaults.
//
// A block that is present but undecodable is still stripped from the body.
func Parse(raw string) (*content.Header, string) {
	// frontmatter skips leading blank lines; a header must open the file.
	if !strings.HasPrefix(raw, delimiter) {
		return nil, raw
	}
	res := &result{}
	format := frontmatter.NewFormat(delimiter, delimiter, res.unmarshal)

	var sink struct{}
	body, err := frontmatter.Parse(strings.NewReader(raw), &sink, format)
	if err != nil || !res.found {
		return nil, raw
	}
	return res.header, string(body)
}

// unmarshal decodes into a fresh Header so that a partially decoded value
// never leaks out. Decode errors are recorded as "no header" rather than
// returned, which keeps frontmatter from discarding the body.
func (r *result) unmarshal(data []byte, _ any) error {
	r.found = true
	var h content.Header
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil
	}
	r.header = &h
	return nil
}
