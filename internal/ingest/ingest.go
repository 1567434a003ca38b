// Package ingest turns raw documents into persisted, embedded chunks.
package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/akif987/papersearch/internal/chunk"
	"github.com/akif987/papersearch/internal/extract"
	"github.com/akif987/papersearch/pkg/models"
)

// ChunkStore is the slice of persistence the pipeline needs.
type ChunkStore interface {
	InsertPaper(ctx context.Context, p models.Paper, chunks []models.ChunkData, vectors [][]float32) (string, error)
}

// Embedder embeds chunk contents in input order; degraded marks positions
// holding zero-vector placeholders.
type Embedder interface {
	EmbedAll(ctx context.Context, texts []string) (vecs [][]float32, degraded []bool, err error)
}

// Service runs the ingestion pipeline: extract, chunk, embed, persist.
// The paper, its chunks and their embeddings are written in one
// transaction so readers never observe a chunk without its vector.
type Service struct {
	store     ChunkStore
	extractor extract.Extractor
	embedder  Embedder
	chunker   *chunk.Chunker
}

func New(store ChunkStore, extractor extract.Extractor, embedder Embedder, chunker *chunk.Chunker) *Service {
	return &Service{
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		chunker:   chunker,
	}
}

// Result reports what one ingestion produced.
type Result struct {
	PaperID  string `json:"paper_id"`
	Title    string `json:"title"`
	Chunks   int    `json:"chunks"`
	Degraded int    `json:"degraded_embeddings,omitempty"`
}

// Ingest processes one document. Malformed input (extract.ErrUnreadable)
// is returned immediately and is not retried; embedding failures degrade
// per item rather than failing the paper.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (Result, error) {
	text, meta, err := s.extractor.Extract(data)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", filename, err)
	}

	title := meta["title"]
	if title == "" {
		title = filename
	}

	chunks := s.chunker.Chunk(text)

	contents := make([]string, len(chunks))
	for i, ch := range chunks {
		contents[i] = ch.Content
	}
	vecs, degraded, err := s.embedder.EmbedAll(ctx, contents)
	if err != nil {
		return Result{}, fmt.Errorf("embed %s: %w", filename, err)
	}

	degradedCount := 0
	for _, d := range degraded {
		if d {
			degradedCount++
		}
	}

	paper := models.Paper{
		Title:    title,
		Filename: filename,
		RawText:  text,
		Metadata: meta,
	}
	paperID, err := s.store.InsertPaper(ctx, paper, chunks, vecs)
	if err != nil {
		return Result{}, fmt.Errorf("persist %s: %w", filename, err)
	}

	log.Info().
		Str("paper_id", paperID).
		Str("filename", filename).
		Int("chunks", len(chunks)).
		Int("degraded", degradedCount).
		Msg("paper ingested")

	return Result{
		PaperID:  paperID,
		Title:    title,
		Chunks:   len(chunks),
		Degraded: degradedCount,
	}, nil
}
