package models

import "time"

// Paper is an ingested document. Raw text is immutable after ingestion;
// deleting a paper cascades to its chunks, embeddings, summaries and any
// cached answers that referenced it.
type Paper struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Filename  string            `json:"filename"`
	RawText   string            `json:"raw_text,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Chunk is a bounded span of a paper's text, the unit of embedding and
// retrieval. Index is zero-based and contiguous within the owning paper.
type Chunk struct {
	ID           string    `json:"id"`
	PaperID      string    `json:"paper_id"`
	Index        int       `json:"chunk_index"`
	Content      string    `json:"content"`
	SectionTitle string    `json:"section_title,omitempty"`
	TokenCount   int       `json:"token_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChunkData is a chunk produced by the chunker, before persistence
// assigns identifiers.
type ChunkData struct {
	Content      string `json:"content"`
	SectionTitle string `json:"section_title,omitempty"`
	Index        int    `json:"chunk_index"`
	TokenCount   int    `json:"token_count"`
}

// RetrievedChunk is one ranked search result. It lives for a single query.
type RetrievedChunk struct {
	ChunkID       string  `json:"chunk_id"`
	PaperID       string  `json:"paper_id"`
	PaperFilename string  `json:"paper_filename,omitempty"`
	Content       string  `json:"content"`
	SectionTitle  string  `json:"section_title,omitempty"`
	ChunkIndex    int     `json:"chunk_index"`
	Score         float64 `json:"score"`
}

// Confidence qualifies a generated answer.
type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceLow      Confidence = "low"
	ConfidenceNotFound Confidence = "not_found"
)

// Answer is the result of the question pipeline. Degraded is set when a
// fallback was used somewhere along the way (compression skipped, partial
// embeddings) so callers can tell fallback output from the real thing.
type Answer struct {
	Text       string     `json:"text"`
	ChunkIDs   []string   `json:"chunk_ids,omitempty"`
	PaperIDs   []string   `json:"paper_ids,omitempty"`
	Confidence Confidence `json:"confidence"`
	Cached     bool       `json:"cached"`
	Degraded   bool       `json:"degraded,omitempty"`
}

// CachedAnswer is one row of the question cache, keyed by the exact
// question string.
type CachedAnswer struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	ChunkIDs  []string  `json:"chunk_ids,omitempty"`
	PaperIDs  []string  `json:"paper_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SummaryKind is the closed set of summary styles a paper can be
// summarized into. It is parsed once at the API boundary.
type SummaryKind string

const (
	SummaryAbstract  SummaryKind = "abstract"
	SummarySections  SummaryKind = "sections"
	SummaryKeyPoints SummaryKind = "keypoints"
)

// ParseSummaryKind resolves a user-supplied kind string, defaulting to
// the abstract style for an empty value.
func ParseSummaryKind(s string) (SummaryKind, bool) {
	switch SummaryKind(s) {
	case SummaryAbstract, SummarySections, SummaryKeyPoints:
		return SummaryKind(s), true
	case "":
		return SummaryAbstract, true
	}
	return "", false
}
