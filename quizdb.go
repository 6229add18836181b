package quizsmith

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents a quizsmith database connection
type DB struct {
	db *sql.DB
}

// Attempt is a completed quiz session
type Attempt struct {
	ID          string    `json:"id"`
	BatchFile   string    `json:"batch_file"`
	Query       string    `json:"query"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  float64   `json:"percentage"`
	CompletedAt time.Time `json:"completed_at"`
}

// OpenDB opens a new database connection
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			source TEXT NOT NULL,
			page INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection)`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			batch_file TEXT NOT NULL,
			query TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			percentage REAL NOT NULL,
			completed_at DATETIME NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// RecordAttempt stores a completed session
func (db *DB) RecordAttempt(ctx context.Context, a *Attempt) error {
	_, err := db.db.ExecContext(ctx,
		"INSERT INTO attempts (id, batch_file, query, score, total, percentage, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.BatchFile, a.Query, a.Score, a.Total, a.Percentage, a.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// RecentAttempts returns the newest attempts first, optionally limited by count
func (db *DB) RecentAttempts(ctx context.Context, limit int) ([]Attempt, error) {
	query := "SELECT id, batch_file, query, score, total, percentage, completed_at FROM attempts ORDER BY completed_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.BatchFile, &a.Query, &a.Score, &a.Total, &a.Percentage, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}

	return attempts, nil
}
