package quizsmith

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Label identifies one of the four fixed answer options
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"

	// LabelSkipped is recorded when a question is skipped without an answer
	LabelSkipped Label = ""
)

// Labels lists the option labels in presentation order
var Labels = []Label{LabelA, LabelB, LabelC, LabelD}

// Valid reports whether l is one of A, B, C or D
func (l Label) Valid() bool {
	switch l {
	case LabelA, LabelB, LabelC, LabelD:
		return true
	}
	return false
}

// Options holds the text of the four answer choices
type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Get returns the option text for a label, or "" for an unknown label
func (o Options) Get(l Label) string {
	switch l {
	case LabelA:
		return o.A
	case LabelB:
		return o.B
	case LabelC:
		return o.C
	case LabelD:
		return o.D
	}
	return ""
}

func (o *Options) set(l Label, text string) {
	switch l {
	case LabelA:
		o.A = text
	case LabelB:
		o.B = text
	case LabelC:
		o.C = text
	case LabelD:
		o.D = text
	}
}

// Option pairs a label with its text, for templates and terminal output
type Option struct {
	Label Label
	Text  string
}

// List returns the options in A-D order
func (o Options) List() []Option {
	out := make([]Option, 0, len(Labels))
	for _, l := range Labels {
		out = append(out, Option{Label: l, Text: o.Get(l)})
	}
	return out
}

// QuestionRecord is a single multiple choice question produced by the parser
type QuestionRecord struct {
	ID           int     `json:"id"`
	Prompt       string  `json:"question"`
	Options      Options `json:"options"`
	CorrectLabel Label   `json:"correct_answer"`
}

// Title renders the question for display with its batch position
func (q QuestionRecord) Title() string {
	return fmt.Sprintf("Question %d: %s", q.ID, q.Prompt)
}

// Validate checks the record invariants
func (q QuestionRecord) Validate() error {
	if q.ID <= 0 {
		return fmt.Errorf("question id must be positive, got %d", q.ID)
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("question %d has an empty prompt", q.ID)
	}
	for _, l := range Labels {
		if strings.TrimSpace(q.Options.Get(l)) == "" {
			return fmt.Errorf("question %d has an empty option %s", q.ID, l)
		}
	}
	if !q.CorrectLabel.Valid() {
		return fmt.Errorf("question %d has invalid correct answer %q", q.ID, q.CorrectLabel)
	}
	return nil
}

// GenerationBatch is the set of questions generated for one query
type GenerationBatch struct {
	Query       string
	GeneratedAt time.Time
	Questions   []QuestionRecord
}

// ErrInvalidBatch is returned when a persisted batch violates the record invariants
var ErrInvalidBatch = errors.New("invalid question batch")

type batchMetadata struct {
	Query          string `json:"query"`
	GeneratedAt    string `json:"generated_at"`
	TotalQuestions int    `json:"total_questions"`
}

type batchFile struct {
	Metadata  batchMetadata    `json:"metadata"`
	Questions []QuestionRecord `json:"questions"`
}

// generatedAtLayouts covers RFC 3339 and the zone-less isoformat() output
// found in older batch files
var generatedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseGeneratedAt(s string) (time.Time, error) {
	for _, layout := range generatedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized generated_at timestamp %q", s)
}

// MarshalJSON writes the batch in the persisted metadata/questions shape
func (b GenerationBatch) MarshalJSON() ([]byte, error) {
	questions := b.Questions
	if questions == nil {
		questions = []QuestionRecord{}
	}
	return json.Marshal(batchFile{
		Metadata: batchMetadata{
			Query:          b.Query,
			GeneratedAt:    b.GeneratedAt.Format(time.RFC3339),
			TotalQuestions: len(b.Questions),
		},
		Questions: questions,
	})
}

// UnmarshalJSON reads a persisted batch and rejects it if any question is
// malformed, out of sequence or miscounted
func (b *GenerationBatch) UnmarshalJSON(data []byte) error {
	var f batchFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	generatedAt, err := parseGeneratedAt(f.Metadata.GeneratedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}

	if f.Metadata.TotalQuestions != len(f.Questions) {
		return fmt.Errorf("%w: total_questions is %d but %d questions are present",
			ErrInvalidBatch, f.Metadata.TotalQuestions, len(f.Questions))
	}
	for i, q := range f.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBatch, err)
		}
		// ids are positions
		if q.ID != i+1 {
			return fmt.Errorf("%w: question at position %d has id %d", ErrInvalidBatch, i+1, q.ID)
		}
	}

	*b = GenerationBatch{
		Query:       f.Metadata.Query,
		GeneratedAt: generatedAt,
		Questions:   f.Questions,
	}
	return nil
}

// GenerationRequest represents a request to generate a batch from the vector store
type GenerationRequest struct {
	Query        string `json:"query"`
	NumQuestions int    `json:"num_questions"`
	NumChunks    int    `json:"num_chunks"`
}
