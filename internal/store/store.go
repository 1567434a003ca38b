package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/akif987/papersearch/internal/rank"
	"github.com/akif987/papersearch/pkg/models"
)

// Store provides methods to interact with the database.
type Store struct {
	pool *pgxpool.Pool
}

// PaperStore defines the persistence operations the pipelines depend on.
type PaperStore interface {
	Migrate(ctx context.Context, dim int) error
	InsertPaper(ctx context.Context, p models.Paper, chunks []models.ChunkData, vectors [][]float32) (string, error)
	ListPapers(ctx context.Context) ([]PaperInfo, error)
	GetPaper(ctx context.Context, id string) (models.Paper, bool, error)
	DeletePaper(ctx context.Context, id string) error
	ListCandidates(ctx context.Context, paperID string) ([]rank.Candidate, error)
	LookupAnswer(ctx context.Context, question string) (models.CachedAnswer, bool, error)
	StoreAnswer(ctx context.Context, ans models.CachedAnswer) error
	GetSummary(ctx context.Context, paperID string, kind models.SummaryKind) (string, bool, error)
	StoreSummary(ctx context.Context, paperID string, kind models.SummaryKind, content string) error
}

// PaperInfo is a listing row: a paper without its full text.
type PaperInfo struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// New creates a new Store instance connected to the given database URL.
func New(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p}, nil
}

func (s *Store) Close() { s.pool.Close() }

// Ping checks the database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Migrate applies the schema. Deleting a paper cascades to its chunks,
// embeddings, summaries and cached answers. The question cache is keyed
// uniquely by the exact question string, so repeat questions upsert
// instead of accumulating rows.
func (s *Store) Migrate(ctx context.Context, dim int) error {
	q := `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS papers (
  id         TEXT PRIMARY KEY,
  title      TEXT NOT NULL,
  filename   TEXT NOT NULL,
  raw_text   TEXT NOT NULL,
  metadata   JSONB,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chunks (
  id            TEXT PRIMARY KEY,
  paper_id      TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
  chunk_index   INT NOT NULL,
  content       TEXT NOT NULL,
  section_title TEXT,
  token_count   INT NOT NULL,
  created_at    TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS chunks_paper_index_uidx
  ON chunks (paper_id, chunk_index);

CREATE TABLE IF NOT EXISTS embeddings (
  chunk_id  TEXT PRIMARY KEY REFERENCES chunks(id) ON DELETE CASCADE,
  embedding vector(%d) NOT NULL
);

CREATE TABLE IF NOT EXISTS query_cache (
  question   TEXT PRIMARY KEY,
  answer     TEXT NOT NULL,
  chunk_refs JSONB,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE TABLE IF NOT EXISTS summaries (
  paper_id     TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
  summary_type TEXT NOT NULL,
  content      TEXT NOT NULL,
  created_at   TIMESTAMP WITH TIME ZONE DEFAULT now(),
  PRIMARY KEY (paper_id, summary_type)
);
`
	_, err := s.pool.Exec(ctx, fmt.Sprintf(q, dim))
	return err
}

// InsertPaper persists a paper with its chunks and their embeddings in a
// single transaction, so a concurrent reader sees a chunk and its vector
// together or not at all. vectors must align positionally with chunks.
func (s *Store) InsertPaper(ctx context.Context, p models.Paper, chunks []models.ChunkData, vectors [][]float32) (string, error) {
	if len(chunks) != len(vectors) {
		return "", fmt.Errorf("got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	paperID := p.ID
	if paperID == "" {
		paperID = hashID(p.Filename, strconv.FormatInt(time.Now().UnixNano(), 10))
	}

	var meta []byte
	if p.Metadata != nil {
		var err error
		meta, err = json.Marshal(p.Metadata)
		if err != nil {
			return "", fmt.Errorf("encode metadata: %w", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO papers (id, title, filename, raw_text, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		paperID, p.Title, p.Filename, p.RawText, meta,
	)
	if err != nil {
		return "", fmt.Errorf("insert paper: %w", err)
	}

	for i, ch := range chunks {
		chunkID := hashID(paperID, strconv.Itoa(ch.Index))
		_, err = tx.Exec(ctx, `
			INSERT INTO chunks (id, paper_id, chunk_index, content, section_title, token_count)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
			chunkID, paperID, ch.Index, ch.Content, ch.SectionTitle, ch.TokenCount,
		)
		if err != nil {
			return "", fmt.Errorf("insert chunk %d: %w", ch.Index, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO embeddings (chunk_id, embedding) VALUES ($1, $2)`,
			chunkID, pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return "", fmt.Errorf("insert embedding %d: %w", ch.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return paperID, nil
}

// ListPapers returns all papers, newest first, with their chunk counts.
func (s *Store) ListPapers(ctx context.Context) ([]PaperInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.title, p.filename, p.created_at, COUNT(c.id)
		FROM papers p
		LEFT JOIN chunks c ON c.paper_id = p.id
		GROUP BY p.id, p.title, p.filename, p.created_at
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []PaperInfo
	for rows.Next() {
		var info PaperInfo
		if err := rows.Scan(&info.ID, &info.Title, &info.Filename, &info.CreatedAt, &info.ChunkCount); err != nil {
			return nil, err
		}
		papers = append(papers, info)
	}
	return papers, rows.Err()
}

// GetPaper fetches one paper including its raw text.
func (s *Store) GetPaper(ctx context.Context, id string) (models.Paper, bool, error) {
	var p models.Paper
	var meta []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, filename, raw_text, metadata, created_at
		FROM papers WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Filename, &p.RawText, &meta, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Paper{}, false, nil
		}
		return models.Paper{}, false, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return models.Paper{}, false, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return p, true, nil
}

// DeletePaper removes a paper; the schema cascades to chunks, embeddings
// and summaries. Cached answers that cited the paper have no foreign key
// (the cache is keyed by question), so they are cleared here explicitly.
func (s *Store) DeletePaper(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM papers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("paper %s not found", id)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM query_cache WHERE chunk_refs->'paper_ids' @> to_jsonb($1::text)`, id)
	if err != nil {
		return fmt.Errorf("clear cached answers: %w", err)
	}

	return tx.Commit(ctx)
}

// ListCandidates loads every stored (chunk, embedding) pair, in paper and
// chunk order, optionally scoped to one paper. Ranking is brute force in
// the caller, so this is the whole candidate set.
func (s *Store) ListCandidates(ctx context.Context, paperID string) ([]rank.Candidate, error) {
	q := `
		SELECT c.id, c.paper_id, p.filename, c.content, COALESCE(c.section_title, ''), c.chunk_index, e.embedding
		FROM chunks c
		JOIN embeddings e ON e.chunk_id = c.id
		JOIN papers p ON p.id = c.paper_id`
	args := []any{}
	if paperID != "" {
		q += ` WHERE c.paper_id = $1`
		args = append(args, paperID)
	}
	q += ` ORDER BY c.paper_id, c.chunk_index`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cands []rank.Candidate
	for rows.Next() {
		var cand rank.Candidate
		var vec pgvector.Vector
		if err := rows.Scan(
			&cand.Chunk.ChunkID, &cand.Chunk.PaperID, &cand.Chunk.PaperFilename,
			&cand.Chunk.Content, &cand.Chunk.SectionTitle, &cand.Chunk.ChunkIndex, &vec,
		); err != nil {
			return nil, err
		}
		cand.Vector = vec.Slice()
		cands = append(cands, cand)
	}
	return cands, rows.Err()
}

// chunkRefs is the JSONB payload on a cached answer.
type chunkRefs struct {
	ChunkIDs []string `json:"chunk_ids,omitempty"`
	PaperIDs []string `json:"paper_ids,omitempty"`
}

// LookupAnswer finds the cached answer for the exact question string.
// No normalization is applied: casing or whitespace differences miss.
func (s *Store) LookupAnswer(ctx context.Context, question string) (models.CachedAnswer, bool, error) {
	var ans models.CachedAnswer
	var refs []byte
	err := s.pool.QueryRow(ctx, `
		SELECT question, answer, chunk_refs, created_at
		FROM query_cache WHERE question = $1`, question,
	).Scan(&ans.Question, &ans.Answer, &refs, &ans.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CachedAnswer{}, false, nil
		}
		return models.CachedAnswer{}, false, err
	}
	if len(refs) > 0 {
		var r chunkRefs
		if err := json.Unmarshal(refs, &r); err == nil {
			ans.ChunkIDs = r.ChunkIDs
			ans.PaperIDs = r.PaperIDs
		}
	}
	return ans, true, nil
}

// StoreAnswer caches an answer under its exact question, overwriting any
// previous entry for the same string.
func (s *Store) StoreAnswer(ctx context.Context, ans models.CachedAnswer) error {
	refs, err := json.Marshal(chunkRefs{ChunkIDs: ans.ChunkIDs, PaperIDs: ans.PaperIDs})
	if err != nil {
		return fmt.Errorf("encode chunk refs: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO query_cache (question, answer, chunk_refs)
		VALUES ($1, $2, $3)
		ON CONFLICT (question) DO UPDATE SET
			answer     = EXCLUDED.answer,
			chunk_refs = EXCLUDED.chunk_refs,
			created_at = now()`,
		ans.Question, ans.Answer, refs,
	)
	return err
}

// GetSummary fetches a cached summary of the given kind.
func (s *Store) GetSummary(ctx context.Context, paperID string, kind models.SummaryKind) (string, bool, error) {
	var content string
	err := s.pool.QueryRow(ctx, `
		SELECT content FROM summaries WHERE paper_id = $1 AND summary_type = $2`,
		paperID, string(kind),
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return content, true, nil
}

// StoreSummary upserts a summary for (paper, kind).
func (s *Store) StoreSummary(ctx context.Context, paperID string, kind models.SummaryKind, content string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO summaries (paper_id, summary_type, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (paper_id, summary_type) DO UPDATE SET
			content    = EXCLUDED.content,
			created_at = now()`,
		paperID, string(kind), content,
	)
	return err
}

// hashID derives a stable hex identifier from its parts.
func hashID(parts ...string) string {
	h := sha1.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{'#'})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
