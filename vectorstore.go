package quizsmith

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Chunk is a piece of an ingested document
type Chunk struct {
	ID        int64
	Source    string
	Page      int
	Content   string
	Embedding []float32
	Score     float64 // cosine similarity, set by SearchChunks
}

// ReplaceCollection deletes every chunk in collection and stores chunks in its place
func (db *DB) ReplaceCollection(ctx context.Context, collection string, chunks []Chunk) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", collection); err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO chunks (collection, source, page, content, embedding) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, collection, c.Source, c.Page, c.Content, encodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("failed to store chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// CountChunks returns how many chunks a collection holds
func (db *DB) CountChunks(ctx context.Context, collection string) (int, error) {
	var n int
	err := db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE collection = ?", collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// SearchChunks returns the k chunks most similar to query, best first
func (db *DB) SearchChunks(ctx context.Context, collection string, query []float32, k int) ([]Chunk, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := db.db.QueryContext(ctx,
		"SELECT id, source, page, content, embedding FROM chunks WHERE collection = ?",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var (
			c    Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.Source, &c.Page, &c.Content, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.Embedding, err = decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.ID, err)
		}
		c.Score = cosineSimilarity(query, c.Embedding)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
	if len(chunks) > k {
		chunks = chunks[:k]
	}
	return chunks, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, errors.New("embedding blob length is not a multiple of 4")
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

// cosineSimilarity is 0 for mismatched or zero-length vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
