package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"quizsmith"

	"go.uber.org/zap"
)

const previewChars = 1000

var errNotIngested = errors.New("no chunks stored; run ingest first")

func main() {
	defaultChunks := flag.Int("chunks", 5, "Default number of chunks to retrieve")
	flag.Parse()

	cfg, err := quizsmith.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	zl, err := quizsmith.NewLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	quizsmith.SetLogger(zl)

	if err := cfg.RequireEmbeddings(); err != nil {
		zl.Fatal("Cannot query without an embeddings endpoint", zap.Error(err))
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		zl.Fatal("Vector database not found; run ingest first", zap.String("db", cfg.DBPath))
	}

	db, err := openVectorDB(context.Background(), cfg.DBPath, cfg.Collection)
	if errors.Is(err, errNotIngested) {
		zl.Fatal("Vector database is empty; run ingest first", zap.String("db", cfg.DBPath), zap.String("collection", cfg.Collection))
	}
	if err != nil {
		zl.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.CloseDB()

	retriever := quizsmith.NewRetriever(db, quizsmith.NewOpenAIEmbedder(cfg.Embeddings), cfg.Collection)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println("\n" + strings.Repeat("-", 50))
		fmt.Println("Enter your search query (or 'quit' to exit):")
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		query := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(query) {
		case "quit", "exit", "q":
			fmt.Println("👋 Goodbye!")
			return
		case "":
			fmt.Println("❌ Please enter a valid query.")
			continue
		}

		fmt.Printf("Number of chunks to retrieve (default: %d): ", *defaultChunks)
		k := *defaultChunks
		if scanner.Scan() {
			if n, err := strconv.Atoi(strings.TrimSpace(scanner.Text())); err == nil && n > 0 {
				k = n
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		content, chunks, err := retriever.Search(ctx, query, k)
		cancel()
		if err != nil && !errors.Is(err, quizsmith.ErrNoRelevantContent) {
			zl.Error("Error retrieving content", zap.Error(err))
			continue
		}
		displayRetrievedContent(os.Stdout, content, chunks)
	}
}

// openVectorDB opens the database and checks that collection holds chunks
func openVectorDB(ctx context.Context, path, collection string) (*quizsmith.DB, error) {
	db, err := quizsmith.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.CreateTables(); err != nil {
		db.CloseDB()
		return nil, err
	}

	n, err := db.CountChunks(ctx, collection)
	if err != nil {
		db.CloseDB()
		return nil, err
	}
	if n == 0 {
		db.CloseDB()
		return nil, fmt.Errorf("%w: collection %s", errNotIngested, collection)
	}
	return db, nil
}

func displayRetrievedContent(w io.Writer, content string, chunks []quizsmith.Chunk) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(w, "📖 RETRIEVED CONTENT")
	fmt.Fprintln(w, strings.Repeat("=", 60))

	if content == "" {
		fmt.Fprintln(w, "No content retrieved.")
		return
	}

	fmt.Fprintf(w, "\n📊 Found %d relevant chunks:\n", len(chunks))
	for i, c := range chunks {
		fmt.Fprintf(w, "   %d. %s (Page %d, score %.3f)\n", i+1, c.Source, c.Page, c.Score)
	}

	fmt.Fprintf(w, "\n📝 Combined Content (%d characters):\n", len(content))
	fmt.Fprintln(w, strings.Repeat("-", 40))
	if runes := []rune(content); len(runes) > previewChars {
		fmt.Fprintln(w, string(runes[:previewChars])+"...")
	} else {
		fmt.Fprintln(w, content)
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
}
