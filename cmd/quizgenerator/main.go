package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quizsmith"

	"go.uber.org/zap"
)

func main() {
	var (
		query        = flag.String("query", "", "Topic to generate questions about")
		numQuestions = flag.Int("questions", 0, "Number of questions to generate (default from config, max 10)")
		numChunks    = flag.Int("chunks", 0, "Number of chunks to retrieve (default from config)")
		batchFile    = flag.String("file", "", "Play a saved mcqs_*.json batch instead of generating one")
		playMode     = flag.Bool("play", false, "Play the quiz interactively")
		noSave       = flag.Bool("no-save", false, "Do not save the generated batch")
		ping         = flag.Bool("ping", false, "Only check the chat completion endpoint")
		verbose      = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
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
	quizsmith.SetVerbose(*verbose)

	store := quizsmith.NewBatchStore(cfg.BatchesDir)

	if *batchFile != "" {
		loadFrom := store
		dir, name := filepath.Split(*batchFile)
		if dir != "" {
			loadFrom = quizsmith.NewBatchStore(dir)
		}
		batch, err := loadFrom.Load(name)
		if err != nil {
			zl.Fatal("Failed to load batch", zap.String("file", *batchFile), zap.Error(err))
		}
		playQuiz(os.Stdin, os.Stdout, batch)
		return
	}

	if err := cfg.RequireLLM(); err != nil {
		zl.Fatal("Cannot proceed without a chat completion endpoint", zap.Error(err))
	}
	maker := quizsmith.NewQuestionMaker(cfg.LLM, cfg.Generation.MaxContentChars)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *ping {
		if err := maker.Ping(ctx); err != nil {
			zl.Fatal("Chat completion endpoint check failed", zap.String("model", maker.Model()), zap.Error(err))
		}
		return
	}

	if strings.TrimSpace(*query) == "" {
		zl.Fatal("Query is required. Use -query flag or -file to play a saved batch.")
	}
	if err := cfg.RequireEmbeddings(); err != nil {
		zl.Fatal("Cannot retrieve content without an embeddings endpoint", zap.Error(err))
	}

	db, err := quizsmith.OpenDB(cfg.DBPath)
	if err != nil {
		zl.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.CloseDB()
	if err := db.CreateTables(); err != nil {
		zl.Fatal("Failed to create tables", zap.Error(err))
	}

	retriever := quizsmith.NewRetriever(db, quizsmith.NewOpenAIEmbedder(cfg.Embeddings), cfg.Collection)
	generator := quizsmith.NewQuizGenerator(retriever, maker, cfg.Generation, cfg.LogDir)

	batch, raw, err := generator.GenerateBatch(ctx, quizsmith.GenerationRequest{
		Query:        *query,
		NumQuestions: *numQuestions,
		NumChunks:    *numChunks,
	})
	if errors.Is(err, quizsmith.ErrNoQuestionsParsed) {
		fmt.Println("❌ Could not parse questions. Raw output:")
		fmt.Println(raw)
		os.Exit(1)
	}
	if err != nil {
		zl.Fatal("Failed to generate questions", zap.Error(err))
	}

	displayMCQs(os.Stdout, batch)
	fmt.Printf("\n📊 Successfully generated %d questions\n", len(batch.Questions))

	if !*noSave {
		filename, err := store.Save(batch)
		if err != nil {
			zl.Fatal("Failed to save batch", zap.Error(err))
		}
		zl.Info("Batch saved", zap.String("file", filename))
	}

	if *playMode {
		playQuiz(os.Stdin, os.Stdout, batch)
	}
}
