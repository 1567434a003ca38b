package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// chunkSeparator joins retrieved chunks into one context block.
const chunkSeparator = "\n\n---\n\n"

// Compressor shrinks retrieved context before generation while keeping
// the parts relevant to the query. The boolean reports whether
// compression was actually applied; a false return with text is the
// documented uncompressed fallback, not an error.
type Compressor interface {
	Compress(ctx context.Context, chunks []string, query string) (string, bool)
}

// ScaleDownCompressor calls the ScaleDown context-compression API.
// Any failure degrades to the uncompressed concatenation.
type ScaleDownCompressor struct {
	APIKey string
	URL    string
	Model  string

	http *http.Client
}

func NewScaleDownCompressor(apiKey, url string) *ScaleDownCompressor {
	if url == "" {
		url = "https://api.scaledown.xyz/compress/raw/"
	}
	return &ScaleDownCompressor{
		APIKey: strings.TrimSpace(apiKey),
		URL:    url,
		Model:  "gemini-2.0-flash",
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *ScaleDownCompressor) Compress(ctx context.Context, chunks []string, query string) (string, bool) {
	if len(chunks) == 0 {
		return "", false
	}
	joined := strings.Join(chunks, chunkSeparator)

	compressed, err := c.call(ctx, joined, query)
	if err != nil {
		log.Warn().Err(err).Msg("context compression failed, using uncompressed context")
		return joined, false
	}
	log.Info().
		Int("original_chars", len(joined)).
		Int("compressed_chars", len(compressed)).
		Msg("context compressed")
	return compressed, true
}

func (c *ScaleDownCompressor) call(ctx context.Context, ctxText, query string) (string, error) {
	payload := map[string]any{
		"context": ctxText,
		"prompt":  query,
		"model":   c.Model,
		"scaledown": map[string]string{
			"rate": "auto",
		},
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("compression API returned %s", resp.Status)
	}

	var out struct {
		Detail           string          `json:"detail"`
		CompressedPrompt string          `json:"compressed_prompt"`
		Content          string          `json:"content"`
		Results          json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Detail != "" {
		return "", errors.New("compression API error: " + out.Detail)
	}

	// The API has returned results as an object, a list, or at the root
	// across versions; accept any of them.
	if len(out.Results) > 0 {
		if s := extractCompressed(out.Results); s != "" {
			return s, nil
		}
	}
	if out.CompressedPrompt != "" {
		return out.CompressedPrompt, nil
	}
	if out.Content != "" {
		return out.Content, nil
	}
	return "", errors.New("no compressed text in response")
}

func extractCompressed(raw json.RawMessage) string {
	var obj struct {
		CompressedPrompt string `json:"compressed_prompt"`
		Content          string `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.CompressedPrompt != "" {
			return obj.CompressedPrompt
		}
		if obj.Content != "" {
			return obj.Content
		}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		var s string
		if err := json.Unmarshal(list[0], &s); err == nil {
			return s
		}
		return extractCompressed(list[0])
	}
	return ""
}

// PassthroughCompressor is used when no compression API is configured: it
// concatenates chunks unchanged and reports compression as applied so the
// result is not flagged degraded.
type PassthroughCompressor struct{}

func (PassthroughCompressor) Compress(_ context.Context, chunks []string, _ string) (string, bool) {
	if len(chunks) == 0 {
		return "", false
	}
	return strings.Join(chunks, chunkSeparator), true
}
