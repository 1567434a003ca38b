package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/akif987/papersearch/pkg/models"
)

// MockEmbedClient implements the Client interface for testing
type MockEmbedClient struct {
	EmbedDocumentFunc func(ctx context.Context, text string) ([]float32, error)
	EmbedBatchFunc    func(ctx context.Context, texts []string) ([][]float32, error)
	DimFunc           func() int
}

func (m *MockEmbedClient) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedDocumentFunc != nil {
		return m.EmbedDocumentFunc(ctx, text)
	}
	return []float32{0.5, 0.5}, nil
}

func (m *MockEmbedClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.5, 0.5}
	}
	return out, nil
}

func (m *MockEmbedClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.5, 0.5}, nil
}

func (m *MockEmbedClient) Answer(ctx context.Context, ctxText, question string) (string, error) {
	return "", nil
}

func (m *MockEmbedClient) Summarize(ctx context.Context, text string, kind models.SummaryKind) (string, error) {
	return "", nil
}

func (m *MockEmbedClient) Dim() int {
	if m.DimFunc != nil {
		return m.DimFunc()
	}
	return 2
}

func newTestEmbedder(client Client) *BatchEmbedder {
	return &BatchEmbedder{
		Client:    client,
		Retry:     RetryPolicy{MaxAttempts: 2},
		BatchSize: 3,
		sleep:     func(context.Context, time.Duration) {},
	}
}

func TestEmbedAllBatches(t *testing.T) {
	var batchSizes []int
	client := &MockEmbedClient{
		EmbedBatchFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			batchSizes = append(batchSizes, len(texts))
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{float32(i), 1}
			}
			return out, nil
		},
	}

	texts := make([]string, 7)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}

	vecs, degraded, err := newTestEmbedder(client).EmbedAll(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedAll: %v", err)
	}
	if len(vecs) != 7 || len(degraded) != 7 {
		t.Fatalf("got %d vectors and %d flags, want 7 each", len(vecs), len(degraded))
	}
	wantSizes := []int{3, 3, 1}
	if len(batchSizes) != len(wantSizes) {
		t.Fatalf("batch sizes %v, want %v", batchSizes, wantSizes)
	}
	for i, w := range wantSizes {
		if batchSizes[i] != w {
			t.Errorf("batch %d size = %d, want %d", i, batchSizes[i], w)
		}
	}
	for i, d := range degraded {
		if d {
			t.Errorf("position %d marked degraded on the happy path", i)
		}
	}
}

func TestEmbedAllSequentialFallback(t *testing.T) {
	sequentialCalls := 0
	client := &MockEmbedClient{
		EmbedBatchFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("rate limited")
		},
		EmbedDocumentFunc: func(ctx context.Context, text string) ([]float32, error) {
			sequentialCalls++
			return []float32{1, 0}, nil
		},
	}

	vecs, degraded, err := newTestEmbedder(client).EmbedAll(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedAll: %v", err)
	}
	if sequentialCalls != 3 {
		t.Errorf("sequential calls = %d, want 3", sequentialCalls)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	for i, d := range degraded {
		if d {
			t.Errorf("position %d degraded although fallback succeeded", i)
		}
	}
}

func TestEmbedAllZeroVectorPlaceholder(t *testing.T) {
	// The middle item fails even sequentially; its position must hold a
	// zero vector, never disappear.
	client := &MockEmbedClient{
		EmbedBatchFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("rate limited")
		},
		EmbedDocumentFunc: func(ctx context.Context, text string) ([]float32, error) {
			if text == "bad" {
				return nil, errors.New("content rejected")
			}
			return []float32{1, 1}, nil
		},
	}

	vecs, degraded, err := newTestEmbedder(client).EmbedAll(context.Background(), []string{"a", "bad", "c"})
	if err != nil {
		t.Fatalf("EmbedAll: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	if !degraded[1] || degraded[0] || degraded[2] {
		t.Errorf("degraded = %v, want only position 1", degraded)
	}
	for i, v := range vecs[1] {
		if v != 0 {
			t.Errorf("placeholder vector component %d = %v, want 0", i, v)
		}
	}
	if len(vecs[1]) != client.Dim() {
		t.Errorf("placeholder length = %d, want %d", len(vecs[1]), client.Dim())
	}
}

func TestEmbedAllEmptyInput(t *testing.T) {
	vecs, degraded, err := newTestEmbedder(&MockEmbedClient{}).EmbedAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedAll: %v", err)
	}
	if vecs != nil || degraded != nil {
		t.Errorf("got %v, %v for empty input", vecs, degraded)
	}
}

func TestEmbedAllStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newTestEmbedder(&MockEmbedClient{}).EmbedAll(ctx, []string{"a"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
