package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// BatchEmbedder embeds many texts while respecting provider rate limits.
// Texts go out in fixed-size batches with a pause between them; a failed
// batch falls back to per-item calls with retry, and an item that still
// fails is represented by a zero vector so output positions always align
// with input positions.
type BatchEmbedder struct {
	Client    Client
	Retry     RetryPolicy
	BatchSize int
	// BatchDelay is the pause between consecutive batch calls.
	BatchDelay time.Duration
	// ItemDelay is the pause between sequential fallback calls.
	ItemDelay time.Duration

	// sleep is swapped in tests to avoid real waiting.
	sleep func(ctx context.Context, d time.Duration)
}

// NewBatchEmbedder builds an embedder with conservative pacing: batches
// of ten, two seconds between batches, one second between sequential
// fallback calls.
func NewBatchEmbedder(client Client, retry RetryPolicy) *BatchEmbedder {
	return &BatchEmbedder{
		Client:     client,
		Retry:      retry,
		BatchSize:  10,
		BatchDelay: 2 * time.Second,
		ItemDelay:  time.Second,
	}
}

// EmbedAll embeds texts in order. The returned degraded slice marks each
// position whose vector is a zero-vector placeholder rather than a real
// embedding, so callers can observe fallback without losing alignment.
func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string) (vecs [][]float32, degraded []bool, err error) {
	if len(texts) == 0 {
		return nil, nil, nil
	}

	size := b.BatchSize
	if size <= 0 {
		size = 10
	}

	vecs = make([][]float32, 0, len(texts))
	degraded = make([]bool, len(texts))

	for start := 0; start < len(texts); start += size {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		end := min(start+size, len(texts))
		batch := texts[start:end]

		batchVecs, batchErr := b.Client.EmbedBatch(ctx, batch)
		if batchErr != nil {
			log.Warn().Err(batchErr).Int("batch_start", start).Msg("batch embedding failed, falling back to sequential")
			batchVecs = b.embedSequential(ctx, batch, degraded[start:end])
		}
		vecs = append(vecs, batchVecs...)

		if end < len(texts) {
			b.pause(ctx, b.BatchDelay)
		}
	}
	return vecs, degraded, nil
}

// embedSequential embeds one batch item at a time with retry. Exhausted
// items get a zero vector placeholder, never a removed position.
func (b *BatchEmbedder) embedSequential(ctx context.Context, batch []string, degraded []bool) [][]float32 {
	out := make([][]float32, len(batch))
	for i, text := range batch {
		var vec []float32
		err := b.Retry.Do(ctx, "embed", func(ctx context.Context) error {
			v, embedErr := b.Client.EmbedDocument(ctx, text)
			if embedErr != nil {
				return embedErr
			}
			vec = v
			return nil
		})
		if err != nil {
			log.Error().Err(err).Int("item", i).Msg("sequential embedding exhausted retries, storing zero vector")
			vec = make([]float32, b.Client.Dim())
			degraded[i] = true
		}
		out[i] = vec

		if i < len(batch)-1 {
			b.pause(ctx, b.ItemDelay)
		}
	}
	return out
}

func (b *BatchEmbedder) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	if b.sleep != nil {
		b.sleep(ctx, d)
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
