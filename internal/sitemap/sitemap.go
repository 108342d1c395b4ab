// Package sitemap renders the sitemap.xml document for the blog front end
// from the posts held in the index.
package sitemap

import (
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/eihrteam/postserver/internal/content"
)

const (
	Namespace     = "http://www.sitemaps.org/schemas/sitemap/0.9"
	DefaultOrigin = "https://eihrteam.org"
)

// URL is one <url> entry.
type URL struct {
	Path       string
	LastMod    string
	ChangeFreq string
	Priority   string
}

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// LastMod converts a post date to the YYYY-MM-DD form sitemaps expect. It
// returns "" for values that are not a real calendar day.
func LastMod(date string) string {
	value := strings.TrimSpace(date)
	if value == "" {
		return ""
	}
	normalized := strings.ReplaceAll(value, ".", "-")
	if dayPattern.MatchString(normalized) {
		if _, err := time.Parse(time.DateOnly, normalized); err == nil {
			return normalized
		}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format(time.DateOnly)
	}
	return ""
}

// URLs lists the pages to advertise: the home page, the blog index and one
// page per distinct post id across all languages. A post's lastmod is the
// newest date among its translations; ids are sorted.
func URLs(posts map[string][]content.Document) []URL {
	newest := make(map[string]string)
	for _, docs := range posts {
		for _, d := range docs {
			lm := LastMod(d.Date)
			if cur, seen := newest[d.ID]; !seen || lm > cur {
				newest[d.ID] = lm
			}
		}
	}

	var latest string
	ids := make([]string, 0, len(newest))
	for id, lm := range newest {
		ids = append(ids, id)
		if lm > latest {
			latest = lm
		}
	}
	sort.Strings(ids)

	urls := []URL{
		{Path: "/", LastMod: latest, ChangeFreq: "weekly", Priority: "1.0"},
		{Path: "/blog", LastMod: latest, ChangeFreq: "daily", Priority: "0.9"},
	}
	for _, id := range ids {
		urls = append(urls, URL{
			Path:       "/blog/" + url.PathEscape(id),
			LastMod:    newest[id],
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}
	return urls
}

// Render writes urls as a sitemap urlset rooted at origin.
func Render(origin string, urls []URL) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	set := doc.CreateElement("urlset")
	set.CreateAttr("xmlns", Namespace)

	for _, u := range urls {
		el := set.CreateElement("url")
		el.CreateElement("loc").SetText(origin + u.Path)
		if u.LastMod != "" {
			el.CreateElement("lastmod").SetText(u.LastMod)
		}
		if u.ChangeFreq != "" {
			el.CreateElement("changefreq").SetText(u.ChangeFreq)
		}
		if u.Priority != "" {
			el.CreateElement("priority").SetText(u.Priority)
		}
	}
	return doc.WriteToBytes()
}

// SanitizeSiteURL reduces a configured site URL to its origin. A bare host
// is assumed to be https. It returns "" when nothing usable remains.
func SanitizeSiteURL(raw string) string {
	input := strings.TrimSpace(raw)
	if input == "" {
		return ""
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Origin picks the absolute origin for sitemap links: the configured site
// URL when usable, the request's own origin outside production, and
// DefaultOrigin otherwise.
func Origin(siteURL, environment string, r *http.Request) string {
	if configured := SanitizeSiteURL(siteURL); configured != "" {
		return configured
	}
	if environment != "production" && r != nil && r.Host != "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		return scheme + "://" + r.Host
	}
	return DefaultOrigin
}
