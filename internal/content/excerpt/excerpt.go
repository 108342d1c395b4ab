// Package excerpt derives the short plain-text summary shown in post lists.
package excerpt

import (
	"strings"
	"unicode/utf8"
)

// MaxRunes is the length a derived excerpt is cut to before the ellipsis.
const MaxRunes = 150

const ellipsis = "..."

var markupStripper = strings.NewReplacer(
	"#", " ",
	"*", " ",
	"`", " ",
	">", " ",
	"-", " ",
)

// Derive returns explicit verbatim when it is non-nil, including the empty
// string. Otherwise it strips markdown punctuation from body, trims it and
// cuts it to MaxRunes characters followed by "...".
func Derive(body string, explicit *string) string {
	if explicit != nil {
		return *explicit
	}
	cleaned := strings.TrimSpace(markupStripper.Replace(body))
	return truncate(cleaned, MaxRunes)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + ellipsis
		}
		n++
	}
	return s
}
