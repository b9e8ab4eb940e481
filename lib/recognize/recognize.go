// Package recognize wraps text-recognition engines and normalizes their
// output into the plain alphanumeric guesses the portal expects.
package recognize

import (
	"context"
	"image"
	"strings"
	"unicode"
)

// Recognizer reads the text out of a cleaned captcha image. Engines may
// be slow (seconds per call); the scraper invokes them at most once per
// attempt.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// confusables maps glyphs the model is known to emit in place of
// similar-looking letters.
var confusables = map[rune]rune{
	'@': 'a',
	'$': 's',
	'€': 'e',
	'£': 'L',
	'|': 'l',
	'!': 'l',
}

// Normalize post-processes raw engine output into a submission-ready
// guess: whitespace-separated tokens are concatenated, periods and any
// other stray punctuation are dropped, and confusable glyphs are
// rewritten to the letters they usually stand for.
func Normalize(raw string) string {
	var out strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			continue
		}
		if mapped, ok := confusables[r]; ok {
			out.WriteRune(mapped)
		}
	}
	return out.String()
}
