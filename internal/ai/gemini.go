package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/akif987/papersearch/pkg/models"
)

// GeminiClient talks to the Google Gemini API for embeddings and
// generation.
type GeminiClient struct {
	config *ClientConfig
	client *genai.Client
}

// NewGeminiClient creates a client for the Gemini API.
func NewGeminiClient(ctx context.Context, config *ClientConfig) (*GeminiClient, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}

	if config.EmbedModel == "" {
		config.EmbedModel = "text-embedding-004"
	}
	if config.GenerationModel == "" {
		config.GenerationModel = "gemini-2.0-flash"
	}
	if config.Dim == 0 {
		config.Dim = 768
	}

	cc := genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(config.APIKey) != "" {
		cc.APIKey = config.APIKey
	}

	client, err := genai.NewClient(ctx, &cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{config: config, client: client}, nil
}

func (c *GeminiClient) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (c *GeminiClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, "RETRIEVAL_QUERY")
}

func (c *GeminiClient) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	cfg := genai.EmbedContentConfig{TaskType: taskType}

	res, err := c.client.Models.EmbedContent(ctx, c.config.EmbedModel, genai.Text(cleanText(text)), &cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if res == nil || len(res.Embeddings) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return res.Embeddings[0].Values, nil
}

func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		cleaned := cleanText(t)
		if cleaned == "" {
			// The API rejects empty parts; a lone space keeps positions
			// aligned with the input.
			cleaned = " "
		}
		contents = append(contents, genai.Text(cleaned)...)
	}

	cfg := genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"}
	res, err := c.client.Models.EmbedContent(ctx, c.config.EmbedModel, contents, &cfg)
	if err != nil {
		return nil, fmt.Errorf("batch embedding failed: %w", err)
	}
	if res == nil || len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("batch embedding returned %d vectors for %d texts", countEmbeddings(res), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, e := range res.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

func countEmbeddings(res *genai.EmbedContentResponse) int {
	if res == nil {
		return 0
	}
	return len(res.Embeddings)
}

func (c *GeminiClient) Answer(ctx context.Context, ctxText, question string) (string, error) {
	return c.generate(ctx, qaPrompt(ctxText, question), 1024)
}

func (c *GeminiClient) Summarize(ctx context.Context, text string, kind models.SummaryKind) (string, error) {
	maxTokens := int32(1024)
	if kind == models.SummarySections {
		maxTokens = 2048
	}
	return c.generate(ctx, summaryPrompt(text, kind), maxTokens)
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	temp := float32(0.3)
	cfg := genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: maxTokens,
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.config.GenerationModel, genai.Text(prompt), &cfg)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content returned")
	}

	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}

func (c *GeminiClient) Dim() int {
	return c.config.Dim
}
