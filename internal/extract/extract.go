// Package extract is the boundary to document-to-text extraction. The
// pipeline consumes it as a collaborator: richer formats (PDF, DOCX) are
// served by external extractors implementing the same interface.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrUnreadable marks malformed input: corrupted, encrypted or binary
// documents. It is surfaced to the caller immediately and never retried.
var ErrUnreadable = errors.New("document is corrupted, encrypted or not text")

// Extractor turns a raw document into text plus descriptive metadata.
type Extractor interface {
	Extract(data []byte) (text string, meta map[string]string, err error)
}

// PlainText extracts UTF-8 text and markdown documents.
type PlainText struct{}

// Extract validates the payload and returns its text. The first non-empty
// line, stripped of markdown heading markers, doubles as a title guess.
func (PlainText) Extract(data []byte) (string, map[string]string, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("empty document: %w", ErrUnreadable)
	}
	if bytes.IndexByte(data, 0x00) >= 0 {
		return "", nil, fmt.Errorf("binary content: %w", ErrUnreadable)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		return "", nil, fmt.Errorf("invalid utf-8: %w", ErrUnreadable)
	}

	text := string(data)
	meta := map[string]string{
		"chars": strconv.Itoa(utf8.RuneCountInString(text)),
	}
	if title := guessTitle(text); title != "" {
		meta["title"] = title
	}
	return text, meta, nil
}

func guessTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			if len(line) > 200 {
				line = line[:200]
			}
			return line
		}
	}
	return ""
}
