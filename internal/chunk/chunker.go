package chunk

import (
	"strings"

	"github.com/akif987/papersearch/pkg/models"
)

// Config carries everything a Chunker needs. It is built explicitly by the
// caller; there is no process-wide default.
type Config struct {
	// ChunkSize is the token budget per chunk.
	ChunkSize int
	// Overlap is the token budget carried between adjacent chunks of an
	// oversized section. Must be smaller than ChunkSize.
	Overlap int
	// Sectioner segments the document; nil selects HeadingDetector.
	Sectioner Sectioner
	// Counter measures token cost; nil selects CountTokens.
	Counter func(string) int
}

// Chunker turns a document's text into an ordered sequence of bounded,
// overlapping chunks. Small sections become one chunk each; large sections
// are slid over sentence by sentence within the token budget.
type Chunker struct {
	size      int
	overlap   int
	sectioner Sectioner
	count     func(string) int
}

func New(cfg Config) *Chunker {
	c := &Chunker{
		size:      cfg.ChunkSize,
		overlap:   cfg.Overlap,
		sectioner: cfg.Sectioner,
		count:     cfg.Counter,
	}
	if c.sectioner == nil {
		c.sectioner = HeadingDetector{}
	}
	if c.count == nil {
		c.count = CountTokens
	}
	return c
}

// Chunk splits text into chunks. Indices are assigned globally across the
// whole document and are contiguous regardless of section boundaries.
// Empty input yields no chunks. A section whose token count is exactly the
// budget is emitted whole.
func (c *Chunker) Chunk(text string) []models.ChunkData {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []models.ChunkData
	index := 0
	for _, sec := range c.sectioner.Sections(text) {
		body := strings.TrimSpace(sec.Body)
		if body == "" {
			continue
		}
		if n := c.count(body); n <= c.size {
			chunks = append(chunks, models.ChunkData{
				Content:      body,
				SectionTitle: sec.Title,
				Index:        index,
				TokenCount:   n,
			})
			index++
			continue
		}
		sub := c.slide(body, sec.Title, index)
		chunks = append(chunks, sub...)
		index += len(sub)
	}
	return chunks
}

// slide splits one oversized section at sentence boundaries, seeding each
// new buffer with a token-bounded suffix of the previous one for lexical
// continuity. Sentences too large for the budget fall back to word-level
// splitting with no overlap; the trailing word group seeds the next
// sentence buffer.
func (c *Chunker) slide(text, title string, startIndex int) []models.ChunkData {
	var chunks []models.ChunkData
	index := startIndex

	flush := func(parts []string) {
		joined := strings.Join(parts, " ")
		chunks = append(chunks, models.ChunkData{
			Content:      strings.TrimSpace(joined),
			SectionTitle: title,
			Index:        index,
			TokenCount:   c.count(joined),
		})
		index++
	}

	var buf []string
	bufTokens := 0

	for _, sentence := range SplitSentences(text) {
		sentTokens := c.count(sentence)

		if sentTokens > c.size {
			if len(buf) > 0 {
				flush(buf)
				buf, bufTokens = nil, 0
			}
			var words []string
			wordTokens := 0
			for _, w := range strings.Fields(sentence) {
				wt := c.count(w)
				if wordTokens+wt > c.size && len(words) > 0 {
					flush(words)
					words, wordTokens = nil, 0
				}
				words = append(words, w)
				wordTokens += wt
			}
			// The final partial word group seeds the sentence buffer.
			if len(words) > 0 {
				buf, bufTokens = words, wordTokens
			}
			continue
		}

		if bufTokens+sentTokens > c.size && len(buf) > 0 {
			flush(buf)
			buf, bufTokens = c.overlapSuffix(buf, sentTokens)
		}
		buf = append(buf, sentence)
		bufTokens += sentTokens
	}

	if len(buf) > 0 {
		flush(buf)
	}
	return chunks
}

// overlapSuffix takes sentences off the end of a flushed buffer, newest
// last, while they fit the overlap budget. The seed is additionally kept
// small enough that appending the incoming sentence cannot push the next
// buffer past the chunk budget.
func (c *Chunker) overlapSuffix(flushed []string, incomingTokens int) ([]string, int) {
	var keep []string
	kept := 0
	for i := len(flushed) - 1; i >= 0; i-- {
		n := c.count(flushed[i])
		if kept+n > c.overlap || kept+n+incomingTokens > c.size {
			break
		}
		keep = append([]string{flushed[i]}, keep...)
		kept += n
	}
	return keep, kept
}
