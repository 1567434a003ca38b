package ai

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"

	"github.com/akif987/papersearch/pkg/models"
)

// Client provides embedding and generation against an external model
// provider. Both call families are network-bound and may fail
// transiently; callers wrap them in a RetryPolicy.
type Client interface {
	// EmbedDocument embeds chunk content for storage.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds several texts in one call, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a search query (retrieval-query task type where
	// the provider distinguishes).
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// Answer generates a grounded answer to question from ctxText.
	Answer(ctx context.Context, ctxText, question string) (string, error)
	// Summarize produces a summary of text in the given style.
	Summarize(ctx context.Context, text string, kind models.SummaryKind) (string, error)
	// Dim is the embedding dimensionality.
	Dim() int
}

// Provider is the enumeration of supported model providers.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderStub   Provider = "stub"
)

// ClientConfig holds provider configuration. It is constructed explicitly
// and passed in; there is no cached process-wide client.
type ClientConfig struct {
	Provider        Provider
	APIKey          string
	EmbedModel      string
	GenerationModel string
	Dim             int
}

// NewClient creates a client for the configured provider.
func NewClient(ctx context.Context, config *ClientConfig) (Client, error) {
	if config == nil {
		return nil, errors.New("client config is required")
	}
	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config)
	case ProviderOpenAI:
		return NewOpenAIClient(config), nil
	case ProviderStub:
		return NewStubClient(config.Dim), nil
	default:
		return nil, errors.New("unsupported provider: " + string(config.Provider))
	}
}

// maxEmbedChars bounds text sent to embedding endpoints.
const maxEmbedChars = 25000

// cleanText collapses whitespace and truncates oversized input before it
// goes to an embedding endpoint.
func cleanText(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) > maxEmbedChars {
		cleaned = cleaned[:maxEmbedChars]
	}
	return cleaned
}

// StubClient is an offline Client for tests and local development.
// Embeddings are deterministic hashes of the input, so identical texts
// land close together and ranking stays exercisable without a network.
type StubClient struct {
	dim int
}

func NewStubClient(dim int) *StubClient {
	if dim <= 0 {
		dim = 8
	}
	return &StubClient{dim: dim}
}

func (s *StubClient) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	return s.hashVector(text), nil
}

func (s *StubClient) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.hashVector(t)
	}
	return out, nil
}

func (s *StubClient) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return s.hashVector(text), nil
}

func (s *StubClient) Answer(_ context.Context, _, question string) (string, error) {
	return "Stub answer for: " + question, nil
}

func (s *StubClient) Summarize(_ context.Context, text string, kind models.SummaryKind) (string, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	head := lines[0]
	if len(head) > 120 {
		head = head[:120]
	}
	return "[" + string(kind) + "] " + head, nil
}

func (s *StubClient) Dim() int {
	return s.dim
}

func (s *StubClient) hashVector(text string) []float32 {
	vec := make([]float32, s.dim)
	for i, field := range strings.Fields(cleanText(text)) {
		h := fnv.New32a()
		h.Write([]byte(field))
		vec[(int(h.Sum32())+i)%s.dim]++
	}
	return vec
}
