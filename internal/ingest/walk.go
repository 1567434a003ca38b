package ingest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"
)

// FileSystemWalker defines the interface for walking directories
type FileSystemWalker interface {
	Walk(root string, options *godirwalk.Options) error
}

// FileReader defines the interface for reading files
type FileReader interface {
	ReadFile(filename string) ([]byte, error)
}

// DefaultFileSystemWalker implements FileSystemWalker using godirwalk
type DefaultFileSystemWalker struct{}

func (d *DefaultFileSystemWalker) Walk(root string, options *godirwalk.Options) error {
	return godirwalk.Walk(root, options)
}

// DefaultFileReader implements FileReader using os
type DefaultFileReader struct{}

func (d *DefaultFileReader) ReadFile(filename string) ([]byte, error) {
	return os.ReadFile(filename)
}

// Walker feeds every ingestable file under a directory to the ingestion
// service through a bounded worker pool.
type Walker struct {
	Service    *Service
	Root       string
	FS         FileSystemWalker
	FileReader FileReader
}

func NewWalker(service *Service, root string) *Walker {
	return &Walker{
		Service:    service,
		Root:       root,
		FS:         &DefaultFileSystemWalker{},
		FileReader: &DefaultFileReader{},
	}
}

// workItem represents a file to be processed
type workItem struct {
	path    string
	content []byte
}

// Run walks the root and ingests every document it finds. Individual file
// failures are logged and skipped; only the walk itself can fail the run.
func (w *Walker) Run(ctx context.Context) error {
	numWorkers := runtime.NumCPU()
	if numWorkers > 4 {
		numWorkers = 4 // embedding providers throttle aggressively
	}

	log.Info().Int("workers", numWorkers).Str("root", w.Root).Msg("starting bulk ingestion")

	workChan := make(chan workItem, numWorkers*2)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for item := range workChan {
				name := filepath.Base(item.path)
				if _, err := w.Service.Ingest(ctx, name, item.content); err != nil {
					log.Error().Err(err).Str("path", item.path).Msg("ingestion failed")
				}
			}
		}(i)
	}

	walkErr := w.FS.Walk(w.Root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			// de may be nil when a test walker drives the callback.
			if de != nil && de.IsDir() {
				if shouldSkipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !isIngestable(path) {
				return nil
			}

			b, err := w.FileReader.ReadFile(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to read file")
				return nil
			}

			select {
			case workChan <- workItem{path: path, content: b}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})

	close(workChan)
	wg.Wait()

	return walkErr
}

func shouldSkipDir(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// isIngestable accepts the text formats the plain-text extractor handles.
func isIngestable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", ".md", ".markdown":
		return true
	}
	return false
}
