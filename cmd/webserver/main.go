package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizsmith"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

func main() {
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
	quizsmith.SetVerbose(cfg.Env != "production")

	db, err := quizsmith.OpenDB(cfg.DBPath)
	if err != nil {
		zl.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.CloseDB()

	if err := db.CreateTables(); err != nil {
		zl.Fatal("Failed to create tables", zap.Error(err))
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode

	server, err := NewServer(db, quizsmith.NewBatchStore(cfg.BatchesDir), store, zl)
	if err != nil {
		zl.Fatal("Failed to create server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go server.RunJanitor(ctx, 10*time.Minute)

	go func() {
		zl.Info("Starting server", zap.String("addr", cfg.ServerAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server shutdown error", zap.Error(err))
	}
}
