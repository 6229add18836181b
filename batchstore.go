package quizsmith

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ErrBatchNotFound is returned for a batch file name that does not exist or is not allowed
var ErrBatchNotFound = errors.New("batch not found")

var (
	batchFilePattern = regexp.MustCompile(`^mcqs_[A-Za-z0-9_.-]+\.json$`)
	slugUnsafe       = regexp.MustCompile(`[^a-z0-9]+`)
)

// BatchInfo is the listing entry for a stored batch
type BatchInfo struct {
	Filename       string
	Query          string
	TotalQuestions int
	GeneratedAt    time.Time
}

// DisplayDate formats GeneratedAt for listings
func (b BatchInfo) DisplayDate() string {
	return b.GeneratedAt.Format("2006-01-02 15:04")
}

// BatchStore keeps generation batches as mcqs_*.json files in one directory
type BatchStore struct {
	dir string
}

// NewBatchStore creates a store rooted at dir
func NewBatchStore(dir string) *BatchStore {
	return &BatchStore{dir: dir}
}

// Save writes the batch and returns the file name it was stored under
func (bs *BatchStore) Save(batch *GenerationBatch) (string, error) {
	if err := os.MkdirAll(bs.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create batch directory: %w", err)
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch: %w", err)
	}

	filename := batchFilename(batch)
	if err := os.WriteFile(filepath.Join(bs.dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write batch file: %w", err)
	}
	return filename, nil
}

func batchFilename(batch *GenerationBatch) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(batch.Query), "_"), "_")
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "_")
	}
	if slug == "" {
		slug = "quiz"
	}
	return fmt.Sprintf("mcqs_%s_%s.json", batch.GeneratedAt.Format("20060102_150405"), slug)
}

// Load reads and validates a stored batch
func (bs *BatchStore) Load(filename string) (*GenerationBatch, error) {
	if filename != filepath.Base(filename) || !batchFilePattern.MatchString(filename) {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, filename)
	}

	data, err := os.ReadFile(filepath.Join(bs.dir, filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var batch GenerationBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		if errors.Is(err, ErrInvalidBatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	return &batch, nil
}

// List returns every readable batch, newest first. Unreadable files are skipped.
func (bs *BatchStore) List() ([]BatchInfo, error) {
	files, err := filepath.Glob(filepath.Join(bs.dir, "mcqs_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list batch files: %w", err)
	}

	infos := make([]BatchInfo, 0, len(files))
	for _, file := range files {
		name := filepath.Base(file)
		batch, err := bs.Load(name)
		if err != nil {
			logger.Warnf("Error loading %s: %v", name, err)
			continue
		}
		infos = append(infos, BatchInfo{
			Filename:       name,
			Query:          batch.Query,
			TotalQuestions: len(batch.Questions),
			GeneratedAt:    batch.GeneratedAt,
		})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].GeneratedAt.After(infos[j].GeneratedAt)
	})
	return infos, nil
}
