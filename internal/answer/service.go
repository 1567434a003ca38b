// Package answer runs the question pipeline: cache gate, query embedding,
// similarity ranking, context compression and answer generation.
package answer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/akif987/papersearch/internal/ai"
	"github.com/akif987/papersearch/internal/rank"
	"github.com/akif987/papersearch/pkg/models"
)

// NoResultsAnswer is returned when ranking finds nothing relevant. It is
// a terminal outcome, not an error.
const NoResultsAnswer = "I couldn't find relevant information in any of your uploaded papers to answer this question. Please make sure you have uploaded relevant documents."

// Store is the slice of persistence the pipeline needs.
type Store interface {
	ListCandidates(ctx context.Context, paperID string) ([]rank.Candidate, error)
	LookupAnswer(ctx context.Context, question string) (models.CachedAnswer, bool, error)
	StoreAnswer(ctx context.Context, ans models.CachedAnswer) error
	GetPaper(ctx context.Context, id string) (models.Paper, bool, error)
	GetSummary(ctx context.Context, paperID string, kind models.SummaryKind) (string, bool, error)
	StoreSummary(ctx context.Context, paperID string, kind models.SummaryKind, content string) error
}

// Service answers questions over the ingested corpus.
type Service struct {
	store      Store
	client     ai.Client
	compressor ai.Compressor
	retry      ai.RetryPolicy
	topK       int
}

func NewService(store Store, client ai.Client, compressor ai.Compressor, retry ai.RetryPolicy, topK int) *Service {
	if compressor == nil {
		compressor = ai.PassthroughCompressor{}
	}
	return &Service{
		store:      store,
		client:     client,
		compressor: compressor,
		retry:      retry,
		topK:       topK,
	}
}

// AskOptions scope one question.
type AskOptions struct {
	// PaperID restricts retrieval to a single paper; empty searches the
	// whole corpus.
	PaperID string
	// TopK overrides the service default when positive.
	TopK int
}

// Ask answers a question over the corpus. The cache is keyed by the
// literal question string; a hit skips embedding, ranking, compression
// and generation entirely. Sources accompany non-cached answers for
// display.
func (s *Service) Ask(ctx context.Context, question string, opts AskOptions) (models.Answer, []models.RetrievedChunk, error) {
	if cached, hit, err := s.store.LookupAnswer(ctx, question); err != nil {
		return models.Answer{}, nil, fmt.Errorf("cache lookup: %w", err)
	} else if hit {
		log.Info().Str("question", truncate(question, 50)).Msg("answer cache hit")
		return models.Answer{
			Text:       cached.Answer,
			ChunkIDs:   cached.ChunkIDs,
			PaperIDs:   cached.PaperIDs,
			Confidence: models.ConfidenceHigh,
			Cached:     true,
		}, nil, nil
	}

	var queryVec []float32
	err := s.retry.Do(ctx, "embed query", func(ctx context.Context) error {
		v, embedErr := s.client.EmbedQuery(ctx, question)
		if embedErr != nil {
			return embedErr
		}
		queryVec = v
		return nil
	})
	if err != nil {
		return models.Answer{}, nil, fmt.Errorf("embedding service unreachable: %w", err)
	}

	candidates, err := s.store.ListCandidates(ctx, opts.PaperID)
	if err != nil {
		return models.Answer{}, nil, fmt.Errorf("load candidates: %w", err)
	}

	k := s.topK
	if opts.TopK > 0 {
		k = opts.TopK
	}
	matches := rank.Rank(queryVec, candidates, k)
	log.Info().Int("candidates", len(candidates)).Int("matches", len(matches)).Str("question", truncate(question, 50)).Msg("retrieval complete")

	if len(matches) == 0 {
		return models.Answer{
			Text:       NoResultsAnswer,
			Confidence: models.ConfidenceLow,
		}, nil, nil
	}

	contents := make([]string, len(matches))
	chunkIDs := make([]string, len(matches))
	paperSeen := make(map[string]bool)
	var paperIDs []string
	for i, m := range matches {
		contents[i] = m.Content
		chunkIDs[i] = m.ChunkID
		if !paperSeen[m.PaperID] {
			paperSeen[m.PaperID] = true
			paperIDs = append(paperIDs, m.PaperID)
		}
	}

	ctxText, compressed := s.compressor.Compress(ctx, contents, question)
	degraded := !compressed

	answerText, err := s.client.Answer(ctx, ctxText, question)
	confidence := assessConfidence(answerText)
	if err != nil {
		// Generation failure degrades to an explanatory answer rather
		// than surfacing a raw provider error as the whole response.
		log.Error().Err(err).Msg("answer generation failed")
		answerText = "I apologize, but I encountered an error generating a response. The generation service may be unavailable; please try again."
		confidence = models.ConfidenceNotFound
		degraded = true
	}

	ans := models.Answer{
		Text:       answerText,
		ChunkIDs:   chunkIDs,
		PaperIDs:   paperIDs,
		Confidence: confidence,
		Degraded:   degraded,
	}

	if err := s.store.StoreAnswer(ctx, models.CachedAnswer{
		Question: question,
		Answer:   ans.Text,
		ChunkIDs: chunkIDs,
		PaperIDs: paperIDs,
	}); err != nil {
		// A failed cache write degrades future latency, not this answer.
		log.Warn().Err(err).Msg("failed to cache answer")
	}

	return ans, matches, nil
}

// Summarize returns the summary of the given kind for a paper, generating
// and caching it on first request. The second return reports a cache hit.
func (s *Service) Summarize(ctx context.Context, paperID string, kind models.SummaryKind) (string, bool, error) {
	if content, hit, err := s.store.GetSummary(ctx, paperID, kind); err != nil {
		return "", false, fmt.Errorf("summary lookup: %w", err)
	} else if hit {
		return content, true, nil
	}

	paper, found, err := s.store.GetPaper(ctx, paperID)
	if err != nil {
		return "", false, fmt.Errorf("load paper: %w", err)
	}
	if !found {
		return "", false, fmt.Errorf("paper %s not found", paperID)
	}

	var summary string
	err = s.retry.Do(ctx, "summarize", func(ctx context.Context) error {
		text, genErr := s.client.Summarize(ctx, paper.RawText, kind)
		if genErr != nil {
			return genErr
		}
		summary = text
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("generation service unreachable: %w", err)
	}

	if err := s.store.StoreSummary(ctx, paperID, kind, summary); err != nil {
		log.Warn().Err(err).Str("paper_id", paperID).Msg("failed to cache summary")
	}
	return summary, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
