package main

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"quizsmith"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	cookieName     = "quiz-session"
	recentAttempts = 10

	defaultQuizIdleTTL = 2 * time.Hour
	defaultMaxQuizzes  = 1000
)

// activeQuiz is one browser's quiz session. mu serializes overlapping
// requests from the same browser; lastSeen is guarded by Server.mu.
type activeQuiz struct {
	mu       sync.Mutex
	filename string
	session  *quizsmith.QuizSession
	lastSeen time.Time
}

type Server struct {
	db        *quizsmith.DB
	batches   *quizsmith.BatchStore
	exporter  *quizsmith.WorksheetExporter
	store     sessions.Store
	templates map[string]*template.Template
	logger    *zap.Logger

	mu         sync.Mutex
	quizzes    map[string]*activeQuiz // keyed by the id stored in the cookie
	idleTTL    time.Duration
	maxQuizzes int
	now        func() time.Time
}

// NewServer loads the templates and wires the handlers' dependencies
func NewServer(db *quizsmith.DB, batches *quizsmith.BatchStore, store sessions.Store, logger *zap.Logger) (*Server, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"percent": func(p float64) string {
			return fmt.Sprintf("%.1f", p)
		},
	}

	templates := make(map[string]*template.Template)
	for _, name := range []string{"index", "question", "results"} {
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &Server{
		db:        db,
		batches:   batches,
		exporter:  quizsmith.NewWorksheetExporter(quizsmith.DefaultWorksheetConfig()),
		store:     store,
		templates: templates,
		logger:     logger,
		quizzes:    make(map[string]*activeQuiz),
		idleTTL:    defaultQuizIdleTTL,
		maxQuizzes: defaultMaxQuizzes,
		now:        time.Now,
	}, nil
}

// Routes returns the HTTP handler for the quiz flow
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /quiz/{filename}", s.handleStartQuiz)
	mux.HandleFunc("GET /question", s.handleQuestion)
	mux.HandleFunc("POST /submit_answer", s.handleSubmitAnswer)
	mux.HandleFunc("GET /results", s.handleResults)
	mux.HandleFunc("GET /reset", s.handleReset)
	mux.HandleFunc("GET /api/quiz_progress", s.handleProgress)
	mux.HandleFunc("GET /export/{filename}", s.handleExport)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	batches, err := s.batches.List()
	if err != nil {
		s.logger.Error("Failed to list batches", zap.Error(err))
		http.Error(w, "Failed to list quizzes", http.StatusInternalServerError)
		return
	}

	attempts, err := s.db.RecentAttempts(r.Context(), recentAttempts)
	if err != nil {
		// the quiz list is still useful without history
		s.logger.Warn("Failed to load attempts", zap.Error(err))
	}

	s.render(w, "index", map[string]interface{}{
		"Batches":  batches,
		"Attempts": attempts,
	})
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	batch, err := s.batches.Load(filename)
	if err != nil {
		s.logger.Warn("Cannot start quiz", zap.String("file", filename), zap.Error(err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	quiz := &activeQuiz{filename: filename, session: quizsmith.NewQuizSession()}
	if err := quiz.session.Start(batch); err != nil {
		s.logger.Warn("Cannot start quiz", zap.String("file", filename), zap.Error(err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	cookie, _ := s.store.Get(r, cookieName)
	if oldID, ok := cookie.Values["sid"].(string); ok {
		s.dropQuiz(oldID)
	}
	sid := uuid.NewString()
	cookie.Values["sid"] = sid
	if err := cookie.Save(r, w); err != nil {
		s.logger.Error("Session save error", zap.Error(err))
		http.Error(w, "Failed to start quiz", http.StatusInternalServerError)
		return
	}

	s.registerQuiz(sid, quiz)

	s.logger.Info("Quiz started", zap.String("file", filename), zap.Int("questions", len(batch.Questions)))
	http.Redirect(w, r, "/question", http.StatusSeeOther)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	quiz := s.currentQuiz(r)
	if quiz == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	quiz.mu.Lock()
	question, err := quiz.session.CurrentQuestion()
	progress := quiz.session.Progress()
	title := quiz.session.Batch().Query
	quiz.mu.Unlock()

	if errors.Is(err, quizsmith.ErrOutOfRange) {
		http.Redirect(w, r, "/results", http.StatusSeeOther)
		return
	}

	s.render(w, "question", map[string]interface{}{
		"Question":  question,
		"Options":   question.Options.List(),
		"Current":   progress.Current + 1,
		"Total":     progress.Total,
		"Score":     progress.Score,
		"QuizTitle": title,
	})
}

type submitRequest struct {
	Answer string `json:"answer"`
}

type submitResponse struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Completed     bool   `json:"completed"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	quiz := s.currentQuiz(r)
	if quiz == nil {
		writeJSONError(w, http.StatusBadRequest, "No active quiz")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	quiz.mu.Lock()
	correct, correctLabel, err := quiz.session.SubmitAnswer(quizsmith.Label(req.Answer))
	completed := quiz.session.State() == quizsmith.StateCompleted
	var results quizsmith.Results
	if err == nil && completed {
		results, _ = quiz.session.Results()
	}
	batch := quiz.session.Batch()
	quiz.mu.Unlock()

	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Quiz completed")
		return
	}

	if completed {
		s.recordAttempt(r, quiz.filename, batch, results)
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Correct:       correct,
		CorrectAnswer: string(correctLabel),
		Explanation:   fmt.Sprintf("The correct answer is %s", correctLabel),
		Completed:     completed,
	})
}

func (s *Server) recordAttempt(r *http.Request, filename string, batch *quizsmith.GenerationBatch, results quizsmith.Results) {
	attempt := &quizsmith.Attempt{
		ID:          uuid.NewString(),
		BatchFile:   filename,
		Query:       batch.Query,
		Score:       results.Score,
		Total:       results.Total,
		Percentage:  results.Percentage,
		CompletedAt: time.Now(),
	}
	if err := s.db.RecordAttempt(r.Context(), attempt); err != nil {
		s.logger.Error("Failed to record attempt", zap.String("file", filename), zap.Error(err))
		return
	}
	s.logger.Info("Quiz completed",
		zap.String("file", filename),
		zap.Int("score", results.Score),
		zap.Int("total", results.Total),
	)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	quiz := s.currentQuiz(r)
	if quiz == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	quiz.mu.Lock()
	results, err := quiz.session.Results()
	title := quiz.session.Batch().Query
	completed := quiz.session.State() == quizsmith.StateCompleted
	quiz.mu.Unlock()

	if err != nil {
		// nothing answered yet
		http.Redirect(w, r, "/question", http.StatusSeeOther)
		return
	}

	s.render(w, "results", map[string]interface{}{
		"QuizTitle": title,
		"Filename":  quiz.filename,
		"Results":   results,
		"Completed": completed,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	cookie, _ := s.store.Get(r, cookieName)
	if sid, ok := cookie.Values["sid"].(string); ok {
		s.dropQuiz(sid)
	}
	delete(cookie.Values, "sid")
	cookie.Options.MaxAge = -1
	if err := cookie.Save(r, w); err != nil {
		s.logger.Warn("Session save error", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	quiz := s.currentQuiz(r)
	if quiz == nil {
		writeJSONError(w, http.StatusBadRequest, "No active quiz")
		return
	}

	quiz.mu.Lock()
	progress := quiz.session.Progress()
	quiz.mu.Unlock()

	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	batch, err := s.batches.Load(filename)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.Export(batch, &buf); err != nil {
		s.logger.Error("Failed to export worksheet", zap.String("file", filename), zap.Error(err))
		http.Error(w, "Failed to export worksheet", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", strings.TrimSuffix(filename, ".json")+".pdf"))
	w.Write(buf.Bytes())
}

// currentQuiz returns the quiz bound to the request's cookie, or nil
func (s *Server) currentQuiz(r *http.Request) *activeQuiz {
	cookie, err := s.store.Get(r, cookieName)
	if err != nil {
		return nil
	}
	sid, ok := cookie.Values["sid"].(string)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[sid]
	if !ok {
		return nil
	}
	now := s.now()
	if now.Sub(quiz.lastSeen) > s.idleTTL {
		delete(s.quizzes, sid)
		return nil
	}
	quiz.lastSeen = now
	return quiz
}

// registerQuiz stores quiz under sid after evicting idle quizzes. When the
// registry is still full the least recently used quiz is dropped.
func (s *Server) registerQuiz(sid string, quiz *activeQuiz) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictIdleLocked(now)
	for s.maxQuizzes > 0 && len(s.quizzes) >= s.maxQuizzes {
		var oldestID string
		var oldest time.Time
		for id, q := range s.quizzes {
			if oldestID == "" || q.lastSeen.Before(oldest) {
				oldestID, oldest = id, q.lastSeen
			}
		}
		delete(s.quizzes, oldestID)
	}

	quiz.lastSeen = now
	s.quizzes[sid] = quiz
}

func (s *Server) evictIdleLocked(now time.Time) int {
	evicted := 0
	for id, q := range s.quizzes {
		if now.Sub(q.lastSeen) > s.idleTTL {
			delete(s.quizzes, id)
			evicted++
		}
	}
	return evicted
}

// SweepIdle drops quizzes nobody has touched within the idle TTL
func (s *Server) SweepIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictIdleLocked(s.now())
}

// RunJanitor sweeps idle quizzes every interval until ctx is done
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepIdle(); n > 0 {
				s.logger.Info("Evicted idle quizzes", zap.Int("count", n))
			}
		}
	}
}

func (s *Server) dropQuiz(sid string) {
	s.mu.Lock()
	delete(s.quizzes, sid)
	s.mu.Unlock()
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates[name].ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.logger.Error("Template error", zap.String("template", name), zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
