// Package sanitize turns markdown-ish document text into plain ASCII suitable
// for embedding. The cleanup order is fixed; changing it changes output for
// the same input.
package sanitize

import (
	"regexp"
	"strings"
)

// MinChars is the threshold below which cleaned text is considered too short
// to be worth embedding.
const MinChars = 10

var (
	imageRe       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	refLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\[[^\]]*\]`)
	refDefRe      = regexp.MustCompile(`(?m)^\s*\[[^\]]+\]:\s+\S+.*$`)
	bareParenURLRe = regexp.MustCompile(`\(\s*https?://[^\s)]+\s*\)`)
	emphasisRe    = regexp.MustCompile("[*_`~#>]+")
	spaceRe       = regexp.MustCompile(`\s+`)
)

// Clean normalizes, strips and truncates raw text. It returns the cleaned
// text and false when the result is shorter than MinChars. maxChars is a
// character-count approximation of the embedding model's token budget, not
// an exact token limit.
func Clean(text string, maxChars int) (string, bool) {
	// Line endings first so the markdown regexes see one form.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	// Markdown link syntax resolves to its visible text; images too.
	text = imageRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = refLinkRe.ReplaceAllString(text, "$1")
	text = refDefRe.ReplaceAllString(text, "")
	text = bareParenURLRe.ReplaceAllString(text, " ")

	// Emphasis, code and heading markers carry no embeddable meaning.
	text = emphasisRe.ReplaceAllString(text, " ")

	// Keep printable ASCII only; everything else, newlines included, becomes
	// a space and is collapsed below.
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	text = b.String()

	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if maxChars > 0 && len(text) > maxChars {
		text = strings.TrimSpace(text[:maxChars])
	}

	if len(text) < MinChars {
		return text, false
	}
	return text, true
}
