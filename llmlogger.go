package quizsmith

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes a transcript of every model interaction for one batch
type LLMLogger struct {
	file    *os.File
	mu      sync.Mutex
	batchID string
}

// NewLLMLogger creates a transcript file <dir>/<batchID>.log
func NewLLMLogger(dir, batchID string, req GenerationRequest) (*LLMLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", batchID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	ll := &LLMLogger{
		file:    file,
		batchID: batchID,
	}

	ll.Logf("=== Question Generation Log ===\n")
	ll.Logf("Batch ID: %s\n", batchID)
	ll.Logf("Query: %s\n", req.Query)
	ll.Logf("Number of Questions: %d\n", req.NumQuestions)
	ll.Logf("Chunks Retrieved: %d\n", req.NumChunks)
	ll.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	ll.Logf("===============================\n\n")

	return ll, nil
}

// Logf writes a formatted log entry with timestamp
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.logf(format, args...)
}

func (ll *LLMLogger) logf(format string, args ...interface{}) {
	if ll.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(ll.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	ll.file.Sync()
}

// LogLLMRequest logs an LLM request
func (ll *LLMLogger) LogLLMRequest(module, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", module)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs an LLM response
func (ll *LLMLogger) LogLLMResponse(module, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", module)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogParseResult records how many questions survived parsing
func (ll *LLMLogger) LogParseResult(parsed, markers int) {
	ll.Logf("Parsed %d of %d question blocks\n", parsed, markers)
}

// Close closes the log file
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file == nil {
		return nil
	}
	ll.logf("=== Generation Complete ===\n")
	ll.logf("Completed: %s\n", time.Now().Format(time.RFC3339))
	ll.logf("===========================\n")
	err := ll.file.Close()
	ll.file = nil
	return err
}
