package quizsmith

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoRelevantContent is returned when retrieval finds nothing for a query
	ErrNoRelevantContent = errors.New("no relevant content found")
	// ErrNoQuestionsParsed is returned when the completion yields no usable question
	ErrNoQuestionsParsed = errors.New("could not parse any questions")
)

// Retriever finds study material for a query
type Retriever struct {
	db         *DB
	embedder   Embedder
	collection string
}

// NewRetriever creates a retriever over one collection
func NewRetriever(db *DB, embedder Embedder, collection string) *Retriever {
	return &Retriever{db: db, embedder: embedder, collection: collection}
}

// Search returns the top k chunks for query and their contents joined by blank lines
func (r *Retriever) Search(ctx context.Context, query string, k int) (string, []Chunk, error) {
	logger.Infof("Retrieving relevant content for: %q", query)

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return "", nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
	}

	chunks, err := r.db.SearchChunks(ctx, r.collection, vectors[0], k)
	if err != nil {
		return "", nil, err
	}
	if len(chunks) == 0 {
		return "", nil, ErrNoRelevantContent
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	logger.Infof("Retrieved %d relevant chunks", len(chunks))
	return strings.Join(parts, "\n\n"), chunks, nil
}

// ContentSearcher is the retrieval half of generation
type ContentSearcher interface {
	Search(ctx context.Context, query string, k int) (string, []Chunk, error)
}

// MCQWriter is the model half of generation
type MCQWriter interface {
	GenerateMCQs(ctx context.Context, content string, numQuestions int) (string, error)
	SetLogger(logger *LLMLogger)
}

// QuizGenerator turns a topic query into a GenerationBatch
type QuizGenerator struct {
	searcher ContentSearcher
	writer   MCQWriter
	limits   GenerationLimit
	logDir   string
}

// NewQuizGenerator creates a generator; transcripts go to logDir when it is not empty
func NewQuizGenerator(searcher ContentSearcher, writer MCQWriter, limits GenerationLimit, logDir string) *QuizGenerator {
	return &QuizGenerator{
		searcher: searcher,
		writer:   writer,
		limits:   limits,
		logDir:   logDir,
	}
}

// Normalize fills in defaults and clamps the question count
func (qg *QuizGenerator) Normalize(req GenerationRequest) GenerationRequest {
	if req.NumQuestions <= 0 {
		req.NumQuestions = qg.limits.DefaultQuestions
	}
	if qg.limits.MaxQuestions > 0 && req.NumQuestions > qg.limits.MaxQuestions {
		logger.Warnf("Limiting to %d questions maximum", qg.limits.MaxQuestions)
		req.NumQuestions = qg.limits.MaxQuestions
	}
	if req.NumQuestions <= 0 {
		req.NumQuestions = 1
	}
	if req.NumChunks <= 0 {
		req.NumChunks = qg.limits.DefaultChunks
	}
	return req
}

// GenerateBatch retrieves content for the query, asks the model for questions
// and parses them. The raw completion is returned alongside any parse failure.
func (qg *QuizGenerator) GenerateBatch(ctx context.Context, req GenerationRequest) (*GenerationBatch, string, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, "", errors.New("query is required")
	}
	req = qg.Normalize(req)
	logger.Infof("Generating %d questions for query: %q", req.NumQuestions, req.Query)

	var transcript *LLMLogger
	if qg.logDir != "" {
		var err error
		transcript, err = NewLLMLogger(qg.logDir, uuid.NewString(), req)
		if err != nil {
			// continue without a transcript rather than failing
			logger.Warnf("Failed to create LLM transcript: %v", err)
		} else {
			qg.writer.SetLogger(transcript)
			defer func() {
				qg.writer.SetLogger(nil)
				transcript.Close()
			}()
		}
	}

	content, chunks, err := qg.searcher.Search(ctx, req.Query, req.NumChunks)
	if err != nil {
		return nil, "", err
	}
	logger.Infof("Retrieved content from %d chunks (%d characters)", len(chunks), len(content))

	raw, err := qg.writer.GenerateMCQs(ctx, content, req.NumQuestions)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate questions: %w", err)
	}

	questions := ParseResponse(raw)
	markers := len(questionMarker.FindAllStringIndex(raw, -1))
	VerboseLog("Parsed %d of %d question blocks", len(questions), markers)
	if transcript != nil {
		transcript.LogParseResult(len(questions), markers)
	}
	if len(questions) == 0 {
		return nil, raw, ErrNoQuestionsParsed
	}

	batch := &GenerationBatch{
		Query:       req.Query,
		GeneratedAt: time.Now(),
		Questions:   questions,
	}
	logger.Infof("Generated %d questions for %q", len(questions), req.Query)
	return batch, raw, nil
}
