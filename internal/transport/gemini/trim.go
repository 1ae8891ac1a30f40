package gemini

import "strings"

// MaxPostRunes is the platform's single-post length cap.
const MaxPostRunes = 280

// trimFloor is the shortest acceptable word-boundary cut. Below it the text
// is hard-cut instead, so an ellipsis never replaces most of the post.
const trimFloor = 240

// Trim shortens text to at most max runes, preferring a sentence boundary.
// It looks for the last ./?/! inside the cut window; failing that, a space
// past the floor; failing that, a hard cut with an ellipsis.
func Trim(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	window := string(runes[:max-3])

	end := -1
	for _, punct := range []string{".", "?", "!"} {
		if idx := strings.LastIndex(window, punct); idx > end {
			end = idx
		}
	}
	if end > 0 {
		return window[:end+1]
	}

	if space := strings.LastIndex(window, " "); space > trimFloor {
		return window[:space] + "..."
	}

	return window + "..."
}
