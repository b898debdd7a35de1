// Package chunk splits rendered report bodies into transport-sized
// pieces, preferring paragraph boundaries so individual exposure entries
// stay intact.
package chunk

import (
	"iter"
	"strings"
)

// Delimiter is the paragraph boundary between rendered entries.
const Delimiter = "\n\n"

// MaxLength is the default chunk cap: Discord rejects messages over 2000
// characters, and a small margin is left for protocol framing.
const MaxLength = 1990

// Split lazily yields successive chunks of text, none longer than max.
// Each split lands on the last occurrence of delim inside the current
// window and the delimiter itself is consumed. A window with no
// delimiter is hard-cut at max; this only happens for a single entry
// longer than the cap.
func Split(text, delim string, max int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if max <= 0 || text == "" {
			return
		}

		i := 0
		for i < len(text) {
			if i+max >= len(text) {
				yield(text[i:])
				return
			}

			window := text[i : i+max]
			nearest := strings.LastIndex(window, delim)
			if nearest < 0 {
				if !yield(window) {
					return
				}
				i += max
				continue
			}

			if !yield(text[i : i+nearest]) {
				return
			}
			i += nearest + len(delim)
		}
	}
}

// Count returns how many chunks Split would yield for text.
func Count(text, delim string, max int) int {
	n := 0
	for range Split(text, delim, max) {
		n++
	}
	return n
}
