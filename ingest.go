package quizsmith

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// ErrNoPDFs is returned when the data directory has nothing to ingest
var ErrNoPDFs = errors.New("no PDF files found")

const embedBatchSize = 32

// IngestStats describes one ingestion run
type IngestStats struct {
	Files  int
	Pages  int
	Chunks int
}

// Ingester loads PDFs, splits them into chunks and stores their embeddings
type Ingester struct {
	db         *DB
	embedder   Embedder
	collection string
	splitter   textsplitter.TextSplitter
	loadPages  func(ctx context.Context, path string) ([]schema.Document, error)
}

// NewIngester creates an ingester writing into collection
func NewIngester(db *DB, embedder Embedder, collection string, chunking ChunkingConfig) *Ingester {
	return &Ingester{
		db:         db,
		embedder:   embedder,
		collection: collection,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunking.Size),
			textsplitter.WithChunkOverlap(chunking.Overlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
		loadPages: loadPDFPages,
	}
}

// Ingest replaces the collection with the contents of every PDF in dir
func (in *Ingester) Ingest(ctx context.Context, dir string) (*IngestStats, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		logger.Infof("Created directory %s; add PDF files to it and run again", dir)
		return nil, ErrNoPDFs
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("failed to list PDF files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoPDFs
	}
	logger.Infof("Found %d PDF files", len(files))

	stats := &IngestStats{}
	var pages []schema.Document
	for _, file := range files {
		docs, err := in.loadPages(ctx, file)
		if err != nil {
			logger.Warnf("Error loading %s: %v", filepath.Base(file), err)
			continue
		}
		for i := range docs {
			if docs[i].Metadata == nil {
				docs[i].Metadata = map[string]any{}
			}
			docs[i].Metadata["source"] = file
		}
		logger.Infof("Loaded %s: %d pages", filepath.Base(file), len(docs))
		pages = append(pages, docs...)
		stats.Files++
	}
	if len(pages) == 0 {
		return nil, errors.New("no documents were successfully loaded")
	}
	stats.Pages = len(pages)

	splits, err := textsplitter.SplitDocuments(in.splitter, pages)
	if err != nil {
		return nil, fmt.Errorf("failed to split documents: %w", err)
	}
	logger.Infof("Split %d pages into %d chunks", len(pages), len(splits))

	chunks := make([]Chunk, 0, len(splits))
	for start := 0; start < len(splits); start += embedBatchSize {
		end := min(start+embedBatchSize, len(splits))

		texts := make([]string, 0, end-start)
		for _, d := range splits[start:end] {
			texts = append(texts, d.PageContent)
		}

		vectors, err := in.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", start, end, err)
		}
		for i, d := range splits[start:end] {
			chunks = append(chunks, Chunk{
				Source:    metadataString(d.Metadata, "source"),
				Page:      metadataInt(d.Metadata, "page"),
				Content:   d.PageContent,
				Embedding: vectors[i],
			})
		}
		VerboseLog("Embedded %d/%d chunks", end, len(splits))
	}

	if err := in.db.ReplaceCollection(ctx, in.collection, chunks); err != nil {
		return nil, err
	}
	stats.Chunks = len(chunks)
	return stats, nil
}

func loadPDFPages(ctx context.Context, path string) ([]schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return documentloaders.NewPDF(f, info.Size()).Load(ctx)
}

func metadataString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func metadataInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
