package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/akif987/papersearch/internal/ai"
	"github.com/akif987/papersearch/internal/chunk"
	"github.com/akif987/papersearch/internal/config"
	"github.com/akif987/papersearch/internal/extract"
	"github.com/akif987/papersearch/internal/ingest"
	"github.com/akif987/papersearch/internal/store"
)

func main() {
	fs := pflag.NewFlagSet("papersearch-ingest", pflag.ExitOnError)

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level '%s': %v", cfg.LogLevel, err)
	}
	zlog.Logger = zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	clientConfig, err := clientConfigFor(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	client, err := ai.NewClient(ctx, clientConfig)
	if err != nil {
		log.Fatal(err)
	}
	if client.Dim() == 0 {
		log.Fatal("embedding dimension must be set")
	}

	if err := st.Migrate(ctx, client.Dim()); err != nil {
		log.Fatal(err)
	}

	chunker := chunk.New(chunk.Config{ChunkSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap})
	embedder := ai.NewBatchEmbedder(client, ai.DefaultRetry)
	svc := ingest.New(st, extract.PlainText{}, embedder, chunker)

	walker := ingest.NewWalker(svc, cfg.DocsRoot)
	if err := walker.Run(ctx); err != nil {
		log.Fatal(err)
	}
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
