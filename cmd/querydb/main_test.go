package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quizsmith"
)

func TestOpenVectorDB_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizsmith.db")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	db, err := openVectorDB(context.Background(), path, "pdf_collection")
	if !errors.Is(err, errNotIngested) {
		t.Fatalf("expected errNotIngested, got %v", err)
	}
	if db != nil {
		t.Error("expected no database handle")
	}
}

func TestOpenVectorDB_OtherCollectionOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizsmith.db")
	seed, err := quizsmith.OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := seed.CreateTables(); err != nil {
		t.Fatal(err)
	}
	chunks := []quizsmith.Chunk{{Source: "a.pdf", Page: 1, Content: "text", Embedding: []float32{1, 0}}}
	if err := seed.ReplaceCollection(context.Background(), "lecture_notes", chunks); err != nil {
		t.Fatal(err)
	}
	seed.CloseDB()

	if _, err := openVectorDB(context.Background(), path, "pdf_collection"); !errors.Is(err, errNotIngested) {
		t.Errorf("expected errNotIngested for an empty collection, got %v", err)
	}

	db, err := openVectorDB(context.Background(), path, "lecture_notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.CloseDB()

	results, err := db.SearchChunks(context.Background(), "lecture_notes", []float32{1, 0}, 5)
	if err != nil || len(results) != 1 {
		t.Errorf("expected the stored chunk to be searchable, got %v %v", results, err)
	}
}

func TestDisplayRetrievedContent(t *testing.T) {
	var out bytes.Buffer
	chunks := []quizsmith.Chunk{{Source: "notes.pdf", Page: 4, Score: 0.875}}
	displayRetrievedContent(&out, strings.Repeat("x", previewChars+50), chunks)

	got := out.String()
	if !strings.Contains(got, "1. notes.pdf (Page 4, score 0.875)") {
		t.Errorf("expected the source listing, got:\n%s", got)
	}
	if !strings.Contains(got, strings.Repeat("x", previewChars)+"...") || strings.Contains(got, strings.Repeat("x", previewChars+1)) {
		t.Error("expected the preview to be cut with an ellipsis")
	}

	out.Reset()
	displayRetrievedContent(&out, "", nil)
	if !strings.Contains(out.String(), "No content retrieved.") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}
