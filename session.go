package quizsmith

import "errors"

var (
	// ErrInvalidState is returned when an operation is not allowed in the current session state
	ErrInvalidState = errors.New("invalid quiz session state")
	// ErrOutOfRange is returned when there is no current question to read
	ErrOutOfRange = errors.New("no current question")
	// ErrEmptyBatch is returned when starting a session over a batch without questions
	ErrEmptyBatch = errors.New("batch has no questions")
)

// SessionState is the lifecycle stage of a quiz session
type SessionState int

const (
	StateNotStarted SessionState = iota
	StateInProgress
	StateCompleted
)

func (s SessionState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

// AnswerRecord is the outcome of one submitted or skipped question
type AnswerRecord struct {
	SubmittedLabel Label `json:"user_answer"`
	CorrectLabel   Label `json:"correct_answer"`
	IsCorrect      bool  `json:"is_correct"`
}

// Skipped reports whether the question was skipped
func (a AnswerRecord) Skipped() bool {
	return a.SubmittedLabel == LabelSkipped
}

// Progress is a snapshot of how far a session has got
type Progress struct {
	Current int `json:"current_question"`
	Total   int `json:"total_questions"`
	Score   int `json:"score"`
}

// ResultEntry pairs a question with the answer recorded for it
type ResultEntry struct {
	Question QuestionRecord
	Answer   AnswerRecord
}

// Results summarises the answered part of a session
type Results struct {
	Entries    []ResultEntry
	Score      int
	Total      int
	Percentage float64
	Correct    int
	Wrong      int
	Skipped    int
}

// Feedback returns the performance band for the percentage
func (r Results) Feedback() string {
	switch {
	case r.Percentage >= 90:
		return "Excellent! Outstanding performance!"
	case r.Percentage >= 80:
		return "Great job! Well done!"
	case r.Percentage >= 70:
		return "Good work! Keep it up!"
	case r.Percentage >= 60:
		return "Not bad! Room for improvement."
	default:
		return "Consider reviewing the material more."
	}
}

// QuizSession walks one user forward through one batch. It is not safe for
// concurrent use; each user owns their own session.
type QuizSession struct {
	batch   *GenerationBatch
	state   SessionState
	answers []AnswerRecord // answers[i] belongs to batch.Questions[i]
	score   int
}

// NewQuizSession creates a session in the NotStarted state
func NewQuizSession() *QuizSession {
	return &QuizSession{}
}

// Start binds the session to a batch, discarding any previous progress
func (s *QuizSession) Start(batch *GenerationBatch) error {
	if batch == nil || len(batch.Questions) == 0 {
		return ErrEmptyBatch
	}
	*s = QuizSession{
		batch:   batch,
		state:   StateInProgress,
		answers: make([]AnswerRecord, 0, len(batch.Questions)),
	}
	return nil
}

// Reset returns the session to NotStarted
func (s *QuizSession) Reset() {
	*s = QuizSession{}
}

// State returns the current lifecycle state
func (s *QuizSession) State() SessionState {
	return s.state
}

// Batch returns the batch being quizzed, or nil before Start
func (s *QuizSession) Batch() *GenerationBatch {
	return s.batch
}

// CurrentQuestion returns the question at the cursor
func (s *QuizSession) CurrentQuestion() (QuestionRecord, error) {
	if s.state != StateInProgress {
		return QuestionRecord{}, ErrOutOfRange
	}
	return s.batch.Questions[len(s.answers)], nil
}

// SubmitAnswer records label for the current question and advances the
// cursor. Labels outside A-D are accepted and scored as wrong.
func (s *QuizSession) SubmitAnswer(label Label) (bool, Label, error) {
	if s.state != StateInProgress {
		return false, "", ErrInvalidState
	}
	q := s.batch.Questions[len(s.answers)]
	a := AnswerRecord{
		SubmittedLabel: label,
		CorrectLabel:   q.CorrectLabel,
		IsCorrect:      label == q.CorrectLabel,
	}
	s.record(a)
	return a.IsCorrect, a.CorrectLabel, nil
}

// Skip records the current question as unanswered and advances the cursor
func (s *QuizSession) Skip() (Label, error) {
	if s.state != StateInProgress {
		return "", ErrInvalidState
	}
	q := s.batch.Questions[len(s.answers)]
	s.record(AnswerRecord{
		SubmittedLabel: LabelSkipped,
		CorrectLabel:   q.CorrectLabel,
	})
	return q.CorrectLabel, nil
}

func (s *QuizSession) record(a AnswerRecord) {
	s.answers = append(s.answers, a)
	if a.IsCorrect {
		s.score++
	}
	if len(s.answers) == len(s.batch.Questions) {
		s.state = StateCompleted
	}
}

// Progress returns (cursor, total, score); all zero before Start
func (s *QuizSession) Progress() Progress {
	if s.batch == nil {
		return Progress{}
	}
	return Progress{
		Current: len(s.answers),
		Total:   len(s.batch.Questions),
		Score:   s.score,
	}
}

// Results returns every recorded answer paired with its question, in order.
// It is available once at least one question has been answered or skipped.
func (s *QuizSession) Results() (Results, error) {
	if s.state == StateNotStarted || len(s.answers) == 0 {
		return Results{}, ErrInvalidState
	}

	total := len(s.batch.Questions)
	r := Results{
		Entries: make([]ResultEntry, 0, len(s.answers)),
		Score:   s.score,
		Total:   total,
	}
	if total > 0 {
		r.Percentage = float64(s.score) / float64(total) * 100
	}
	for i, a := range s.answers {
		r.Entries = append(r.Entries, ResultEntry{Question: s.batch.Questions[i], Answer: a})
		switch {
		case a.IsCorrect:
			r.Correct++
		case a.Skipped():
			r.Skipped++
		default:
			r.Wrong++
		}
	}
	return r, nil
}
