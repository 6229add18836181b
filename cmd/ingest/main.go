package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"quizsmith"

	"go.uber.org/zap"
)

func main() {
	var (
		dataDir = flag.String("data", "", "Directory with PDF files (default from config)")
		verbose = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	cfg, err := quizsmith.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	zl, err := quizsmith.NewLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	quizsmith.SetLogger(zl)
	quizsmith.SetVerbose(*verbose)

	if err := cfg.RequireEmbeddings(); err != nil {
		zl.Fatal("Cannot proceed without an embeddings endpoint", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder := quizsmith.NewOpenAIEmbedder(cfg.Embeddings)

	// check the endpoint before loading anything
	probe, err := embedder.Embed(ctx, []string{"This is a test sentence to verify the API connection."})
	if err != nil {
		zl.Fatal("Embeddings endpoint check failed", zap.String("model", cfg.Embeddings.Model), zap.Error(err))
	}
	zl.Info("Embeddings endpoint is working", zap.String("model", cfg.Embeddings.Model), zap.Int("dimension", len(probe[0])))

	db, err := quizsmith.OpenDB(cfg.DBPath)
	if err != nil {
		zl.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.CloseDB()
	if err := db.CreateTables(); err != nil {
		zl.Fatal("Failed to create tables", zap.Error(err))
	}

	ingester := quizsmith.NewIngester(db, embedder, cfg.Collection, cfg.Chunking)
	stats, err := ingester.Ingest(ctx, cfg.DataDir)
	if errors.Is(err, quizsmith.ErrNoPDFs) {
		zl.Warn("Nothing to ingest; add PDF files to the data directory", zap.String("dir", cfg.DataDir))
		return
	}
	if err != nil {
		zl.Fatal("Ingestion failed", zap.Error(err))
	}

	zl.Info("Database creation completed",
		zap.Int("files", stats.Files),
		zap.Int("pages", stats.Pages),
		zap.Int("chunks", stats.Chunks),
		zap.String("collection", cfg.Collection),
		zap.String("db", cfg.DBPath),
	)
}
