package excerpt_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/eihrteam/postserver/internal/content/excerpt"
)

func ptr(s string) *string { return &s }

func TestDerive_ExplicitWinsVerbatim(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("# not cleaned ", 40)
	assert.Equal(t, long, excerpt.Derive("body", &long))
	assert.Equal(t, "", excerpt.Derive("a body that would otherwise be used", ptr("")))
}

func TestDerive_StripsMarkupAndTrims(t *testing.T) {
	t.Parallel()

	got := excerpt.Derive("# Hello *world*\n> quote `code` - item", nil)

	assert.Equal(t, "Hello  world \n  quote  code    item", got)
	for _, c := range []string{"#", "*", "`", ">", "-"} {
		assert.NotContains(t, got, c)
	}
}

func TestDerive_TruncatesLongBody(t *testing.T) {
	t.Parallel()

	body := "# Hello *world* " + strings.Repeat("this sentence keeps the excerpt growing ", 6)
	got := excerpt.Derive(body, nil)

	assert.Equal(t, excerpt.MaxRunes+3, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, strings.HasPrefix(got, "Hello  world  this sentence"))
	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "*")
}

func TestDerive_BodyUnderLimitAfterCleaning(t *testing.T) {
	t.Parallel()

	body := "# Hello *world* this is a test of the excerpt system that runs long enough to exceed one hundred and fifty characters in total length definitely yes"
	got := excerpt.Derive(body, nil)

	assert.Equal(t, "Hello  world  this is a test of the excerpt system that runs long enough to exceed one hundred and fifty characters in total length definitely yes", got)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), excerpt.MaxRunes)
}

func TestDerive_ShortBodyUntouched(t *testing.T) {
	t.Parallel()

	exact := strings.Repeat("a", excerpt.MaxRunes)
	assert.Equal(t, exact, excerpt.Derive(exact, nil))
	assert.Equal(t, "", excerpt.Derive("  # * - ", nil))
}

func TestDerive_TruncatesByCharacterNotByte(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("中文", 100)
	got := excerpt.Derive(body, nil)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, excerpt.MaxRunes+3, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("中文", excerpt.MaxRunes/2)+"...", got)
}
