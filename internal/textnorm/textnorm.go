// Package textnorm contains the text-cleanup helpers applied to tweet text
// before it is handed to the language model. Tweets arrive with HTML
// entities, URLs, @mentions, #hashtags, and emoji; the model prompt wants a
// cleaned body plus the emoji extracted separately.
package textnorm

import (
	"html"
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
)

var (
	urlRe     = regexp.MustCompile(`http\S+|www\S+|https\S+`)
	mentionRe = regexp.MustCompile(`@\w+`)
	hashtagRe = regexp.MustCompile(`#\w+`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Normalize cleans tweet text for analysis: decode HTML entities, strip
// URL-like tokens, strip @mentions and #hashtags, drop emoji (they are
// surfaced separately via ExtractEmojis), collapse runs of whitespace to
// single spaces, and trim. The original text is never modified in the
// store; this is a view for prompting only.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	s := html.UnescapeString(text)
	s = urlRe.ReplaceAllString(s, "")
	s = mentionRe.ReplaceAllString(s, "")
	s = hashtagRe.ReplaceAllString(s, "")
	s = gomoji.RemoveEmojis(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractEmojis returns the emoji characters of text concatenated in order
// of appearance. Non-emoji runes are dropped.
func ExtractEmojis(text string) string {
	var sb strings.Builder
	for _, r := range text {
		if gomoji.ContainsEmoji(string(r)) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
