// Package sentiment labels social posts by polarity and aggregates the
// results of a search.
package sentiment

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern     = regexp.MustCompile(`\w+://\S+`)
	mentionPattern = regexp.MustCompile(`@[A-Za-z0-9_]+`)
	noisePattern   = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// CleanText drops links, user mentions and punctuation and collapses the
// remaining whitespace. Text is NFKC-normalised first so full-width and
// styled characters reduce to their plain forms.
func CleanText(text string) string {
	text = norm.NFKC.String(text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = mentionPattern.ReplaceAllString(text, " ")
	text = noisePattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
