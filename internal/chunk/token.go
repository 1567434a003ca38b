package chunk

import (
	"strings"
	"unicode/utf8"
)

// TokenScheme identifies the counting scheme. Chunk sizing and stored
// token counts depend on exact values, so the scheme is versioned and
// must never change silently.
const TokenScheme = "approx-v1"

// CountTokens maps text to a deterministic non-negative token count.
//
// The scheme approximates byte-pair tokenizers (~4 characters per token):
// the text is split on whitespace and each field costs ceil(runes/4),
// minimum one token. The count is additive across fields, so joining
// strings with single spaces never changes the total. Empty input costs
// zero.
func CountTokens(text string) int {
	n := 0
	for _, field := range strings.Fields(text) {
		n += (utf8.RuneCountInString(field) + 3) / 4
	}
	return n
}
