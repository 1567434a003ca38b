package chunk

import (
	"strings"
	"testing"
)

// wordCounter makes every whitespace-separated word cost one token, which
// keeps sliding-window arithmetic easy to follow in fixtures.
func wordCounter(s string) int {
	return len(strings.Fields(s))
}

func TestChunkEmptyInput(t *testing.T) {
	c := New(Config{ChunkSize: 512, Overlap: 50})
	for _, text := range []string{"", "   ", "\n\t\n"} {
		if got := c.Chunk(text); got != nil {
			t.Errorf("Chunk(%q) = %+v, want nil", text, got)
		}
	}
}

func TestChunkTwoSmallSections(t *testing.T) {
	text := "Abstract\nShort summary.\n\n1. Introduction\nLong intro sentence one. Long intro sentence two."

	c := New(Config{ChunkSize: 512, Overlap: 50})
	chunks := c.Chunk(text)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %+v", len(chunks), chunks)
	}
	if chunks[0].SectionTitle != "Abstract" || chunks[0].Index != 0 {
		t.Errorf("chunk 0 = %+v, want title Abstract index 0", chunks[0])
	}
	if chunks[0].Content != "Short summary." {
		t.Errorf("chunk 0 content = %q", chunks[0].Content)
	}
	if chunks[1].SectionTitle != "1. Introduction" || chunks[1].Index != 1 {
		t.Errorf("chunk 1 = %+v, want title 1. Introduction index 1", chunks[1])
	}
	if chunks[1].Content != "Long intro sentence one. Long intro sentence two." {
		t.Errorf("chunk 1 content = %q", chunks[1].Content)
	}
}

func TestChunkNoHeadings(t *testing.T) {
	c := New(Config{ChunkSize: 512, Overlap: 50})
	chunks := c.Chunk("A. B. C.")

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %+v", len(chunks), chunks)
	}
	if chunks[0].SectionTitle != "" {
		t.Errorf("section title = %q, want empty", chunks[0].SectionTitle)
	}
	if chunks[0].Content != "A. B. C." {
		t.Errorf("content = %q", chunks[0].Content)
	}
}

func TestChunkExactBudgetNotSplit(t *testing.T) {
	c := New(Config{ChunkSize: 4, Overlap: 1, Counter: wordCounter})
	chunks := c.Chunk("one two three four")

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %+v", len(chunks), chunks)
	}
	if chunks[0].TokenCount != 4 {
		t.Errorf("token count = %d, want 4", chunks[0].TokenCount)
	}
}

func TestChunkSlidingWindow(t *testing.T) {
	// Four sentences of two tokens each against a budget of six: the
	// window fills with three sentences, flushes, and the last flushed
	// sentence seeds the next chunk as overlap.
	text := "Aa bb. Cc dd. Ee ff. Gg hh."

	c := New(Config{ChunkSize: 6, Overlap: 3, Counter: wordCounter})
	chunks := c.Chunk(text)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %+v", len(chunks), chunks)
	}
	if chunks[0].Content != "Aa bb. Cc dd. Ee ff." {
		t.Errorf("chunk 0 content = %q", chunks[0].Content)
	}
	if chunks[1].Content != "Ee ff. Gg hh." {
		t.Errorf("chunk 1 content = %q, want it to open with the overlap sentence", chunks[1].Content)
	}
}

func TestChunkWordFallback(t *testing.T) {
	// One unbreakable ten word sentence against a budget of four: word
	// level splitting with the trailing word group carried forward.
	text := "w1 w2 w3 w4 w5 w6 w7 w8 w9 w10"

	c := New(Config{ChunkSize: 4, Overlap: 2, Counter: wordCounter})
	chunks := c.Chunk(text)

	want := []string{"w1 w2 w3 w4", "w5 w6 w7 w8", "w9 w10"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d: %+v", len(chunks), len(want), chunks)
	}
	for i, w := range want {
		if chunks[i].Content != w {
			t.Errorf("chunk %d content = %q, want %q", i, chunks[i].Content, w)
		}
	}
}

func TestChunkWordFallbackSeedsNextBuffer(t *testing.T) {
	// The remainder of a word-split sentence joins the following sentence
	// in one chunk instead of being flushed alone.
	text := "a b c d e f. Next one."

	c := New(Config{ChunkSize: 4, Overlap: 0, Counter: wordCounter})
	chunks := c.Chunk(text)

	want := []string{"a b c d", "e f. Next one."}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d: %+v", len(chunks), len(want), chunks)
	}
	for i, w := range want {
		if chunks[i].Content != w {
			t.Errorf("chunk %d content = %q, want %q", i, chunks[i].Content, w)
		}
	}
}

func TestChunkIndicesContiguousAcrossSections(t *testing.T) {
	text := "Abstract\nshort.\n\nIntroduction\nAa bb. Cc dd. Ee ff."

	c := New(Config{ChunkSize: 2, Overlap: 0, Counter: wordCounter})
	chunks := c.Chunk(text)

	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4: %+v", len(chunks), chunks)
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
	}
	if chunks[0].SectionTitle != "Abstract" {
		t.Errorf("chunk 0 title = %q", chunks[0].SectionTitle)
	}
	for _, ch := range chunks[1:] {
		if ch.SectionTitle != "Introduction" {
			t.Errorf("chunk %d title = %q, want Introduction", ch.Index, ch.SectionTitle)
		}
	}
}

func TestChunkBudgetRespected(t *testing.T) {
	texts := []string{
		"Aa bb cc. Dd ee. Ff gg hh ii. Jj kk. Ll mm nn. Oo pp qq rr ss tt uu.",
		"Abstract\none two three four five. six seven.\n\nIntroduction\n" +
			strings.Repeat("Alpha beta gamma delta. ", 10),
	}
	c := New(Config{ChunkSize: 6, Overlap: 2, Counter: wordCounter})

	for _, text := range texts {
		for _, ch := range c.Chunk(text) {
			if ch.TokenCount > 6 {
				t.Errorf("chunk %d exceeds budget: %d tokens: %q", ch.Index, ch.TokenCount, ch.Content)
			}
		}
	}
}

func TestChunkTokenCountSelfConsistent(t *testing.T) {
	texts := []string{
		"Abstract\nWe study dense retrieval over academic papers.\n\n" +
			"Introduction\n" + strings.Repeat("Dense retrieval maps text into vectors. ", 40),
		"No headings at all, just a run of prose. It keeps going for a while. And then stops.",
	}
	c := New(Config{ChunkSize: 32, Overlap: 8})

	for _, text := range texts {
		for _, ch := range c.Chunk(text) {
			if got := CountTokens(ch.Content); got != ch.TokenCount {
				t.Errorf("chunk %d: stored count %d, recount %d: %q", ch.Index, ch.TokenCount, got, ch.Content)
			}
		}
	}
}

func TestChunkCoversAllSentences(t *testing.T) {
	text := "Abstract\nFirst claim here. Second claim here. Third claim here. " +
		"Fourth claim here. Fifth claim here."

	c := New(Config{ChunkSize: 6, Overlap: 3, Counter: wordCounter})
	chunks := c.Chunk(text)

	var all strings.Builder
	for _, ch := range chunks {
		all.WriteString(ch.Content)
		all.WriteString(" ")
	}
	for _, sentence := range SplitSentences("First claim here. Second claim here. Third claim here. Fourth claim here. Fifth claim here.") {
		if !strings.Contains(all.String(), sentence) {
			t.Errorf("sentence %q missing from chunk contents", sentence)
		}
	}
}

func TestChunkCustomSectioner(t *testing.T) {
	c := New(Config{ChunkSize: 512, Overlap: 50, Sectioner: fixedSectioner{}})
	chunks := c.Chunk("ignored by the fake")

	if len(chunks) != 1 || chunks[0].SectionTitle != "Fixed" {
		t.Fatalf("chunks = %+v, want one Fixed section", chunks)
	}
}

type fixedSectioner struct{}

func (fixedSectioner) Sections(string) []Section {
	return []Section{{Title: "Fixed", Body: "fixed body"}}
}
