package chunk

import (
	"strings"
	"unicode"
)

// SplitSentences splits text into sentence strings. A boundary is a
// sentence-ending mark (. ! ?) followed by whitespace and an upper-case
// letter. This is a heuristic: abbreviations before a capitalized word
// over-split ("Dr. Smith") and run-on lowercase sentences never split;
// both are accepted lossy behavior. Results are trimmed and empties
// dropped.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var out []string

	start := 0
	i := 0
	for i < len(runes) {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' {
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j > i+1 && j < len(runes) && unicode.IsUpper(runes[j]) {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					out = append(out, s)
				}
				start = j
				i = j
				continue
			}
		}
		i++
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}
