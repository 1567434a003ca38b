package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/spf13/pflag"

	"github.com/akif987/papersearch/internal/ai"
	"github.com/akif987/papersearch/internal/answer"
	"github.com/akif987/papersearch/internal/auth"
	"github.com/akif987/papersearch/internal/chunk"
	"github.com/akif987/papersearch/internal/config"
	"github.com/akif987/papersearch/internal/extract"
	"github.com/akif987/papersearch/internal/ingest"
	"github.com/akif987/papersearch/internal/store"
	"github.com/akif987/papersearch/pkg/models"
)

// askResponse is the payload of /ask.
type askResponse struct {
	Answer     string            `json:"answer"`
	Confidence models.Confidence `json:"confidence"`
	Cached     bool              `json:"cached"`
	Degraded   bool              `json:"degraded,omitempty"`
	Sources    []sourceChunk     `json:"sources,omitempty"`
}

type sourceChunk struct {
	Paper   string  `json:"paper"`
	Section string  `json:"section,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

func sources(matches []models.RetrievedChunk) []sourceChunk {
	out := make([]sourceChunk, 0, len(matches))
	for _, m := range matches {
		score := m.Score
		if math.IsNaN(score) || math.IsInf(score, 0) {
			score = 0
		}
		out = append(out, sourceChunk{
			Paper:   m.PaperFilename,
			Section: m.SectionTitle,
			Content: m.Content,
			Score:   score,
		})
	}
	return out
}

func main() {
	fs := pflag.NewFlagSet("papersearch-api", pflag.ExitOnError)

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level '%s': %v", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	logger.Info().Str("provider", cfg.Provider).Str("log_level", cfg.LogLevel).Bool("auth_enabled", cfg.Auth.Enabled).Msg("starting papersearch api")

	clientConfig, err := clientConfigFor(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	client, err := ai.NewClient(ctx, clientConfig)
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}

	dim := client.Dim()
	if dim == 0 {
		log.Fatal("embedding dimension must be set")
	}
	logger.Info().Int("embedding_dim", dim).Str("embed_model", clientConfig.EmbedModel).Msg("AI client initialized")

	if err := st.Migrate(ctx, dim); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	var compressor ai.Compressor = ai.PassthroughCompressor{}
	if cfg.CompressAPIKey != "" {
		compressor = ai.NewScaleDownCompressor(cfg.CompressAPIKey, cfg.CompressURL)
	}

	chunker := chunk.New(chunk.Config{ChunkSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap})
	embedder := ai.NewBatchEmbedder(client, ai.DefaultRetry)
	ingestSvc := ingest.New(st, extract.PlainText{}, embedder, chunker)
	answerSvc := answer.NewService(st, client, compressor, ai.DefaultRetry, cfg.TopK)

	authn := auth.New(cfg.Auth.JwtSecret, cfg.Auth.Enabled)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	mux.HandleFunc("GET /papers", authn.Middleware(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		papers, err := st.ListPapers(ctx)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, papers)
	}))

	mux.HandleFunc("POST /papers", authn.Middleware(func(w http.ResponseWriter, r *http.Request) {
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			http.Error(w, "missing query parameter filename", http.StatusBadRequest)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32<<20))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()
		res, err := ingestSvc.Ingest(ctx, filename, body)
		if err != nil {
			if errors.Is(err, extract.ErrUnreadable) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, err.Error(), 500)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, res)
	}))

	mux.HandleFunc("DELETE /papers/{id}", authn.Middleware(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := st.DeletePaper(ctx, r.PathValue("id")); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	mux.HandleFunc("GET /papers/{id}/summary", authn.Middleware(func(w http.ResponseWriter, r *http.Request) {
		kind, ok := models.ParseSummaryKind(r.URL.Query().Get("kind"))
		if !ok {
			http.Error(w, "kind must be abstract, sections or keypoints", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
		defer cancel()
		summary, cached, err := answerSvc.Summarize(ctx, r.PathValue("id"), kind)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, map[string]any{"kind": kind, "summary": summary, "cached": cached})
	}))

	mux.HandleFunc("GET /ask", authn.Middleware(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		q := r.URL.Query().Get("q")
		if q == "" {
			http.Error(w, "missing query parameter q", http.StatusBadRequest)
			return
		}
		opts := answer.AskOptions{PaperID: r.URL.Query().Get("paper")}
		if v := r.URL.Query().Get("k"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				opts.TopK = n
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()
		ans, matches, err := answerSvc.Ask(ctx, q, opts)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}

		writeJSON(w, askResponse{
			Answer:     ans.Text,
			Confidence: ans.Confidence,
			Cached:     ans.Cached,
			Degraded:   ans.Degraded,
			Sources:    sources(matches),
		})

		hlog.FromRequest(r).Info().Str("path", "/ask").Str("q", q).Bool("cached", ans.Cached).Dur("dur", time.Since(start)).Msg("served")
	}))

	handler := hlog.NewHandler(logger)(
		hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
			logger.Info().Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Int("size", size).Dur("dur", dur).Msg("http")
		})(mux),
	)

	address := fmt.Sprintf(":%d", cfg.Port)
	s := &http.Server{Addr: address, Handler: handler}
	logger.Info().Str("addr", s.Addr).Msg("api server listening")
	log.Fatal(s.ListenAndServe())
}

func clientConfigFor(cfg config.Specification) (*ai.ClientConfig, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google":
		return &ai.ClientConfig{
			Provider:        ai.ProviderGemini,
			APIKey:          cfg.APIKey,
			EmbedModel:      cfg.EmbedModel,
			GenerationModel: cfg.GenerationModel,
			Dim:             cfg.Dim,
		}, nil
	case "openai":
		return &ai.ClientConfig{
			Provider:        ai.ProviderOpenAI,
			APIKey:          cfg.APIKey,
			EmbedModel:      cfg.EmbedModel,
			GenerationModel: cfg.GenerationModel,
			Dim:             cfg.Dim,
		}, nil
	case "stub":
		return &ai.ClientConfig{Provider: ai.ProviderStub, Dim: cfg.Dim}, nil
	}
	return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", 500)
	}
}
