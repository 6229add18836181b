package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"quizsmith"
)

// displayMCQs prints every question with its answer
func displayMCQs(w io.Writer, batch *quizsmith.GenerationBatch) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "📝 %s\n", batch.Query)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	for _, q := range batch.Questions {
		fmt.Fprintf(w, "\n%s\n", q.Title())
		for _, opt := range q.Options.List() {
			fmt.Fprintf(w, "   %s) %s\n", opt.Label, opt.Text)
		}
		fmt.Fprintf(w, "   ✅ Correct Answer: %s\n", q.CorrectLabel)
		fmt.Fprintln(w, strings.Repeat("-", 40))
	}
}

// playQuiz runs the terminal quiz. Answers are A-D, "skip" or "quit".
func playQuiz(in io.Reader, w io.Writer, batch *quizsmith.GenerationBatch) {
	session := quizsmith.NewQuizSession()
	if err := session.Start(batch); err != nil {
		fmt.Fprintf(w, "❌ No questions available for the quiz: %v\n", err)
		return
	}

	scanner := bufio.NewScanner(in)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "🎯 STARTING MCQ QUIZ 🎯")
	fmt.Fprintf(w, "📊 Total Questions: %d\n", len(batch.Questions))
	fmt.Fprintln(w, "   Type A, B, C, or D for your answer, 'skip' to skip, 'quit' to exit")
	fmt.Fprintln(w, strings.Repeat("-", 60))

	for session.State() == quizsmith.StateInProgress {
		q, err := session.CurrentQuestion()
		if err != nil {
			break
		}
		p := session.Progress()

		fmt.Fprintf(w, "\n📋 Question %d/%d:\n", p.Current+1, p.Total)
		fmt.Fprintf(w, "   %s\n\n", q.Prompt)
		for _, opt := range q.Options.List() {
			fmt.Fprintf(w, "   %s) %s\n", opt.Label, opt.Text)
		}

		if !askQuestion(scanner, w, session) {
			fmt.Fprintln(w, "🚪 Exiting quiz...")
			break
		}
	}

	displayResults(w, session)
}

// askQuestion reads input until the current question is answered or skipped.
// It returns false when the player quits or input ends.
func askQuestion(scanner *bufio.Scanner, w io.Writer, session *quizsmith.QuizSession) bool {
	for {
		fmt.Fprint(w, "\n👉 Your answer (A/B/C/D): ")
		if !scanner.Scan() {
			return false
		}
		input := strings.ToUpper(strings.TrimSpace(scanner.Text()))

		switch {
		case quizsmith.Label(input).Valid():
			correct, correctLabel, err := session.SubmitAnswer(quizsmith.Label(input))
			if err != nil {
				return false
			}
			if correct {
				fmt.Fprintln(w, "✅ Correct! Well done!")
			} else {
				fmt.Fprintf(w, "❌ Incorrect. The correct answer is %s\n", correctLabel)
			}
		case input == "SKIP":
			if _, err := session.Skip(); err != nil {
				return false
			}
			fmt.Fprintln(w, "⏭️  Question skipped.")
		case input == "QUIT":
			return false
		default:
			fmt.Fprintln(w, "❌ Invalid input. Please enter A, B, C, D, 'skip', or 'quit'.")
			continue
		}

		p := session.Progress()
		if p.Current < p.Total {
			fmt.Fprintf(w, "\n📊 Progress: %d/%d | Score: %d\n", p.Current, p.Total, p.Score)
		}
		return true
	}
}

func displayResults(w io.Writer, session *quizsmith.QuizSession) {
	results, err := session.Results()
	if err != nil {
		fmt.Fprintln(w, "No questions answered.")
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "🏆 QUIZ COMPLETED! 🏆")
	fmt.Fprintln(w, "📊 RESULTS:")
	fmt.Fprintf(w, "   ✅ Correct Answers: %d\n", results.Correct)
	fmt.Fprintf(w, "   ❌ Wrong Answers: %d\n", results.Wrong)
	fmt.Fprintf(w, "   ⏭️  Skipped: %d\n", results.Skipped)
	fmt.Fprintf(w, "   📝 Total Questions: %d\n", results.Total)
	fmt.Fprintf(w, "   📈 Score: %d/%d (%.1f%%)\n", results.Score, results.Total, results.Percentage)
	fmt.Fprintln(w, results.Feedback())
	fmt.Fprintln(w, strings.Repeat("-", 60))
}
