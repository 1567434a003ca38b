package chunk

import (
	"regexp"
	"strings"
)

// Section is one titled span of a document. Title is empty for untitled
// spans (text before the first heading, or a document with no headings).
type Section struct {
	Title string
	Body  string
}

// Sectioner segments a document into titled spans. The chunker depends on
// this capability, not on any particular detection strategy, so heading
// heuristics can be swapped out.
type Sectioner interface {
	Sections(text string) []Section
}

// headingRe matches one heading per line, tried left to right with the
// first alternative winning:
//   - named academic section headers, optionally numbered ("1. Introduction"),
//     matched case-insensitively;
//   - short ALL-CAPS lines (case-sensitive);
//   - numbered headings like "1. X" (the match covers only the numeric
//     prefix and first capital; the remainder of the line stays in the body).
var headingRe = regexp.MustCompile(`(?m)^(?:` +
	`(?i:(?:\d+\.?[ \t]+)?(?:abstract|introduction|background|related work|methodology|methods?|experiments?|results?|discussion|conclusion|references?|appendix))[ \t]*$` +
	`|[A-Z][A-Z \t]{2,}$` +
	`|\d+\.[ \t]+[A-Z]` +
	`)`)

// HeadingDetector is the default Sectioner: a regex scan over common
// academic paper heading patterns.
type HeadingDetector struct{}

// Sections partitions text at detected headings. Matching is
// non-overlapping and left to right. With no heading anywhere the whole
// text is one untitled section. Text before the first heading becomes an
// untitled leading section when non-empty; each heading owns the span up
// to the next heading; empty bodies are dropped. Bodies are trimmed, so
// concatenating them reproduces the document's non-heading content modulo
// surrounding whitespace.
func (HeadingDetector) Sections(text string) []Section {
	matches := headingRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []Section{{Body: text}}
	}

	var sections []Section
	if matches[0][0] > 0 {
		if pre := strings.TrimSpace(text[:matches[0][0]]); pre != "" {
			sections = append(sections, Section{Body: pre})
		}
	}

	for i, m := range matches {
		title := strings.TrimSpace(text[m[0]:m[1]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:end])
		if body == "" {
			continue
		}
		sections = append(sections, Section{Title: title, Body: body})
	}
	return sections
}
