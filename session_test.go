package quizsmith_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"quizsmith"
)

func sampleBatch(correct ...quizsmith.Label) *quizsmith.GenerationBatch {
	batch := &quizsmith.GenerationBatch{
		Query:       "test topic",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for i, l := range correct {
		batch.Questions = append(batch.Questions, quizsmith.QuestionRecord{
			ID:           i + 1,
			Prompt:       fmt.Sprintf("Prompt %d", i+1),
			Options:      quizsmith.Options{A: "one", B: "two", C: "three", D: "four"},
			CorrectLabel: l,
		})
	}
	return batch
}

func TestQuizSession_FullRun(t *testing.T) {
	s := quizsmith.NewQuizSession()
	if err := s.Start(sampleBatch(quizsmith.LabelA, quizsmith.LabelB, quizsmith.LabelC)); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	submissions := []quizsmith.Label{"A", "X", "C"}
	wantCorrect := []bool{true, false, true}
	wantLabels := []quizsmith.Label{quizsmith.LabelA, quizsmith.LabelB, quizsmith.LabelC}

	for i, label := range submissions {
		q, err := s.CurrentQuestion()
		if err != nil {
			t.Fatalf("question %d: unexpected error: %v", i+1, err)
		}
		if q.ID != i+1 {
			t.Errorf("expected question %d, got %d", i+1, q.ID)
		}

		correct, correctLabel, err := s.SubmitAnswer(label)
		if err != nil {
			t.Fatalf("question %d: unexpected submit error: %v", i+1, err)
		}
		if correct != wantCorrect[i] {
			t.Errorf("question %d: expected correct=%v, got %v", i+1, wantCorrect[i], correct)
		}
		if correctLabel != wantLabels[i] {
			t.Errorf("question %d: expected correct label %s, got %s", i+1, wantLabels[i], correctLabel)
		}
	}

	if s.State() != quizsmith.StateCompleted {
		t.Fatalf("expected completed state, got %s", s.State())
	}

	results, err := s.Results()
	if err != nil {
		t.Fatalf("unexpected results error: %v", err)
	}
	if results.Score != 2 || results.Total != 3 {
		t.Errorf("expected 2/3, got %d/%d", results.Score, results.Total)
	}
	if got := fmt.Sprintf("%.1f", results.Percentage); got != "66.7" {
		t.Errorf("expected percentage 66.7, got %s", got)
	}
	if results.Correct != 2 || results.Wrong != 1 || results.Skipped != 0 {
		t.Errorf("unexpected tallies %+v", results)
	}
	if len(results.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(results.Entries))
	}
	for i, e := range results.Entries {
		if e.Question.ID != i+1 {
			t.Errorf("entry %d: expected question id %d, got %d", i, i+1, e.Question.ID)
		}
		if e.Answer.SubmittedLabel != submissions[i] {
			t.Errorf("entry %d: expected submitted %s, got %s", i, submissions[i], e.Answer.SubmittedLabel)
		}
	}
	if results.Feedback() != "Consider reviewing the material more." {
		t.Errorf("unexpected feedback %q", results.Feedback())
	}
}

func TestQuizSession_NotStarted(t *testing.T) {
	s := quizsmith.NewQuizSession()

	if s.State() != quizsmith.StateNotStarted {
		t.Errorf("expected not_started, got %s", s.State())
	}
	if _, err := s.CurrentQuestion(); !errors.Is(err, quizsmith.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, _, err := s.SubmitAnswer(quizsmith.LabelA); !errors.Is(err, quizsmith.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if _, err := s.Skip(); !errors.Is(err, quizsmith.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState from skip, got %v", err)
	}
	if _, err := s.Results(); !errors.Is(err, quizsmith.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState from results, got %v", err)
	}
	if p := s.Progress(); p != (quizsmith.Progress{}) {
		t.Errorf("expected zero progress, got %+v", p)
	}
	if s.State() != quizsmith.StateNotStarted {
		t.Errorf("failed operations must not change state, got %s", s.State())
	}
}

func TestQuizSession_AfterCompletion(t *testing.T) {
	s := quizsmith.NewQuizSession()
	if err := s.Start(sampleBatch(quizsmith.LabelD)); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if _, _, err := s.SubmitAnswer(quizsmith.LabelD); err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}

	before := s.Progress()

	if _, err := s.CurrentQuestion(); !errors.Is(err, quizsmith.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, _, err := s.SubmitAnswer(quizsmith.LabelA); !errors.Is(err, quizsmith.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if _, err := s.Skip(); !errors.Is(err, quizsmith.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState from skip, got %v", err)
	}

	if after := s.Progress(); after != before {
		t.Errorf("rejected submit changed progress from %+v to %+v", before, after)
	}
	if s.State() != quizsmith.StateCompleted {
		t.Errorf("expected completed, got %s", s.State())
	}
}

func TestQuizSession_StartRejectsEmptyBatch(t *testing.T) {
	s := quizsmith.NewQuizSession()

	if err := s.Start(nil); !errors.Is(err, quizsmith.ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch for nil, got %v", err)
	}
	if err := s.Start(&quizsmith.GenerationBatch{Query: "empty"}); !errors.Is(err, quizsmith.ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch for empty batch, got %v", err)
	}
	if s.State() != quizsmith.StateNotStarted {
		t.Errorf("expected not_started, got %s", s.State())
	}
}

func TestQuizSession_Skip(t *testing.T) {
	s := quizsmith.NewQuizSession()
	if err := s.Start(sampleBatch(quizsmith.LabelB, quizsmith.LabelC)); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	correctLabel, err := s.Skip()
	if err != nil {
		t.Fatalf("unexpected skip error: %v", err)
	}
	if correctLabel != quizsmith.LabelB {
		t.Errorf("expected B, got %s", correctLabel)
	}
	if _, _, err := s.SubmitAnswer(quizsmith.LabelC); err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}

	results, err := s.Results()
	if err != nil {
		t.Fatalf("unexpected results error: %v", err)
	}
	if results.Skipped != 1 || results.Correct != 1 || results.Wrong != 0 {
		t.Errorf("unexpected tallies %+v", results)
	}
	if !results.Entries[0].Answer.Skipped() || results.Entries[0].Answer.IsCorrect {
		t.Errorf("expected first entry to be skipped, got %+v", results.Entries[0].Answer)
	}
	if results.Percentage != 50 {
		t.Errorf("expected 50%%, got %v", results.Percentage)
	}
}

func TestQuizSession_ProgressAndPartialResults(t *testing.T) {
	s := quizsmith.NewQuizSession()
	if err := s.Start(sampleBatch(quizsmith.LabelA, quizsmith.LabelA, quizsmith.LabelA, quizsmith.LabelA)); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	if _, err := s.Results(); !errors.Is(err, quizsmith.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState before any answer, got %v", err)
	}

	want := quizsmith.Progress{Current: 0, Total: 4, Score: 0}
	if p := s.Progress(); p != want {
		t.Errorf("expected %+v, got %+v", want, p)
	}

	s.SubmitAnswer(quizsmith.LabelA)
	s.SubmitAnswer(quizsmith.LabelB)

	want = quizsmith.Progress{Current: 2, Total: 4, Score: 1}
	for i := 0; i < 3; i++ {
		if p := s.Progress(); p != want {
			t.Errorf("call %d: expected %+v, got %+v", i, want, p)
		}
	}

	results, err := s.Results()
	if err != nil {
		t.Fatalf("unexpected results error: %v", err)
	}
	if len(results.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(results.Entries))
	}
	if results.Total != 4 || results.Percentage != 25 {
		t.Errorf("expected score relative to the whole batch, got %d/%d %.1f", results.Score, results.Total, results.Percentage)
	}
	if s.State() != quizsmith.StateInProgress {
		t.Errorf("expected in_progress, got %s", s.State())
	}
}

func TestQuizSession_ResetAndRestart(t *testing.T) {
	s := quizsmith.NewQuizSession()
	batch := sampleBatch(quizsmith.LabelC, quizsmith.LabelD)
	if err := s.Start(batch); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	s.SubmitAnswer(quizsmith.LabelC)

	s.Reset()
	if s.State() != quizsmith.StateNotStarted {
		t.Errorf("expected not_started after reset, got %s", s.State())
	}
	if s.Batch() != nil {
		t.Errorf("expected no batch after reset")
	}

	if err := s.Start(batch); err != nil {
		t.Fatalf("unexpected restart error: %v", err)
	}
	if p := s.Progress(); p.Current != 0 || p.Score != 0 {
		t.Errorf("expected fresh progress after restart, got %+v", p)
	}

	// Start on an in-progress session begins again
	s.SubmitAnswer(quizsmith.LabelC)
	if err := s.Start(batch); err != nil {
		t.Fatalf("unexpected restart error: %v", err)
	}
	q, err := s.CurrentQuestion()
	if err != nil || q.ID != 1 {
		t.Errorf("expected first question after restart, got %+v %v", q, err)
	}
}

func TestResults_Feedback(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{100, "Excellent! Outstanding performance!"},
		{90, "Excellent! Outstanding performance!"},
		{85, "Great job! Well done!"},
		{70, "Good work! Keep it up!"},
		{60, "Not bad! Room for improvement."},
		{59.9, "Consider reviewing the material more."},
		{0, "Consider reviewing the material more."},
	}

	for _, tt := range tests {
		r := quizsmith.Results{Percentage: tt.pct}
		if got := r.Feedback(); got != tt.want {
			t.Errorf("Feedback(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}
