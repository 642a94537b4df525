package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/config"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/quizgate/quizgate-backend/internal/proctor"
	"github.com/quizgate/quizgate-backend/internal/quiz"
	"github.com/quizgate/quizgate-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QuizService owns the in-memory quiz session registry. Each student gets at
// most one live session engine; the engine is authoritative for all quiz
// state, while Redis holds the autosave buffer and the persistence queues.
type QuizService struct {
	cfg        *config.Config
	rdb        *redis.Client
	bank       *quiz.Bank
	resultRepo *repository.ResultRepository
	log        zerolog.Logger

	mu       sync.Mutex
	sessions map[int]*studentSession
}

type studentSession struct {
	engine  *quiz.Session
	screen  *screenRelay
	submits *submitRelay
}

// NewQuizService creates a new QuizService.
func NewQuizService(cfg *config.Config, rdb *redis.Client, bank *quiz.Bank, resultRepo *repository.ResultRepository, log zerolog.Logger) *QuizService {
	return &QuizService{
		cfg:        cfg,
		rdb:        rdb,
		bank:       bank,
		resultRepo: resultRepo,
		log:        log.With().Str("component", "quiz_service").Logger(),
		sessions:   make(map[int]*studentSession),
	}
}

// CategoryOverview is a catalog entry enriched with the student's best score.
type CategoryOverview struct {
	model.CategoryInfo
	BestScore *int `json:"best_score,omitempty"`
}

// Categories returns the category catalog with the student's best scores.
func (s *QuizService) Categories(ctx context.Context, studentID int) ([]CategoryOverview, error) {
	best, err := s.resultRepo.BestScores(ctx, studentID)
	if err != nil {
		return nil, err
	}

	infos := s.bank.Categories()
	overviews := make([]CategoryOverview, 0, len(infos))
	for _, info := range infos {
		o := CategoryOverview{CategoryInfo: info}
		if score, ok := best[info.Name]; ok {
			v := score
			o.BestScore = &v
		}
		overviews = append(overviews, o)
	}
	return overviews, nil
}

// SessionFor returns the student's session engine, creating it on first use.
func (s *QuizService) SessionFor(studentID int) *quiz.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionLocked(studentID).engine
}

func (s *QuizService) sessionLocked(studentID int) *studentSession {
	if entry, ok := s.sessions[studentID]; ok {
		return entry
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(studentID)))
	screen := &screenRelay{}
	gate := proctor.NewGate(
		proctor.NewSimCamera(),
		screen,
		proctor.RandomPolicy(rng),
		s.log.With().Int("student_id", studentID).Logger(),
		proctor.WithLatency(s.cfg.ProctorLatency),
	)

	engine := quiz.NewSession(s.bank, gate, quiz.NewTickerScheduler(), rng,
		s.log.With().Int("student_id", studentID).Logger())
	submits := &submitRelay{}
	engine.OnSubmit(func(res quiz.Result) {
		s.persistResult(studentID, res)
		submits.notify(res)
	})

	entry := &studentSession{engine: engine, screen: screen, submits: submits}
	s.sessions[studentID] = entry
	return entry
}

// AttachScreen binds a connected client's fullscreen control to the student's
// session. Fullscreen requests made by the engine while no client is attached
// are dropped.
func (s *QuizService) AttachScreen(studentID int, fs proctor.Fullscreen) {
	s.mu.Lock()
	entry := s.sessionLocked(studentID)
	s.mu.Unlock()
	entry.screen.set(fs)
}

// DetachScreen unbinds the client's fullscreen control on disconnect.
func (s *QuizService) DetachScreen(studentID int) {
	s.mu.Lock()
	entry, ok := s.sessions[studentID]
	s.mu.Unlock()
	if ok {
		entry.screen.set(nil)
	}
}

// AttachSubmitListener binds a connected client's submission notifier.
// Timeout and violation submissions happen off the request path, so the
// connection needs a push channel for them.
func (s *QuizService) AttachSubmitListener(studentID int, fn func(quiz.Result)) {
	s.mu.Lock()
	entry := s.sessionLocked(studentID)
	s.mu.Unlock()
	entry.submits.set(fn)
}

// DetachSubmitListener unbinds the submission notifier on disconnect.
func (s *QuizService) DetachSubmitListener(studentID int) {
	s.mu.Lock()
	entry, ok := s.sessions[studentID]
	s.mu.Unlock()
	if ok {
		entry.submits.set(nil)
	}
}

// Start begins a quiz in the given category and primes the autosave buffer.
func (s *QuizService) Start(ctx context.Context, studentID int, cat model.Category) error {
	if err := s.SessionFor(studentID).StartCategory(cat); err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.StudentActiveCategoryKey(studentID), string(cat), 0)
	pipe.Del(ctx, config.CacheKey.StudentAnswersKey(studentID))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("Failed to prime autosave buffer")
	}
	return nil
}

// Answer records an answer for the current question and autosaves it to
// Redis, then queues it for persistence.
func (s *QuizService) Answer(ctx context.Context, studentID int, questionID uuid.UUID, answer string) error {
	engine := s.SessionFor(studentID)
	if err := engine.Answer(questionID, answer); err != nil {
		return err
	}

	key := config.CacheKey.StudentAnswersKey(studentID)
	if err := s.rdb.HSet(ctx, key, questionID.String(), answer).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("Autosave Redis error")
		return nil
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"student_id": studentID,
		"category":   string(engine.Snapshot().Category),
		"q_id":       questionID.String(),
		"answer":     answer,
	})
	s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload)
	return nil
}

// ReportHidden handles a visibility-hidden report. Returns true when the
// report forced a submission, in which case a violation record is queued.
func (s *QuizService) ReportHidden(ctx context.Context, studentID int) bool {
	engine := s.SessionFor(studentID)
	cat := engine.Snapshot().Category
	forced := engine.ReportHidden()
	if forced {
		s.pushViolation(ctx, studentID, cat, "visibility_hidden", true)
	}
	return forced
}

// ReportFullscreenExit handles a fullscreen-exit report during an active
// quiz. The exit is recorded as a violation and fullscreen is re-requested.
func (s *QuizService) ReportFullscreenExit(ctx context.Context, studentID int) {
	engine := s.SessionFor(studentID)
	snap := engine.Snapshot()
	if snap.Phase == model.PhaseInProgress {
		s.pushViolation(ctx, studentID, snap.Category, "fullscreen_exit", false)
	}
	engine.ReportFullscreenExit()
}

// Reset returns the student's session to idle and clears the autosave buffer.
func (s *QuizService) Reset(ctx context.Context, studentID int) {
	s.SessionFor(studentID).Reset()

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.StudentAnswersKey(studentID))
	pipe.Del(ctx, config.CacheKey.StudentActiveCategoryKey(studentID))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("Failed to clear autosave buffer")
	}
}

// persistResult queues a submitted result for database persistence. Runs on
// the engine's submit path, so it must not block on the database.
func (s *QuizService) persistResult(studentID int, res quiz.Result) {
	ctx := context.Background()

	payload, _ := json.Marshal(map[string]interface{}{
		"student_id":     studentID,
		"category":       string(res.Category),
		"score":          res.Score,
		"question_count": res.QuestionCount,
		"answered":       res.Answered,
		"trigger":        string(res.Trigger),
		"started_at":     res.StartedAt.Format(time.RFC3339),
		"finished_at":    res.FinishedAt.Format(time.RFC3339),
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("Failed to queue result")
		return
	}

	s.log.Info().
		Int("student_id", studentID).
		Str("category", string(res.Category)).
		Int("score", res.Score).
		Str("trigger", string(res.Trigger)).
		Msg("Result queued for persistence")
}

func (s *QuizService) pushViolation(ctx context.Context, studentID int, cat model.Category, kind string, forcedSubmit bool) {
	payload, _ := json.Marshal(map[string]interface{}{
		"student_id":    studentID,
		"category":      string(cat),
		"kind":          kind,
		"forced_submit": forcedSubmit,
		"occurred_at":   time.Now().Format(time.RFC3339),
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).Int("student_id", studentID).Msg("Failed to queue violation")
	}
}

// screenRelay forwards fullscreen control to whichever client connection is
// currently attached. The engine holds one Fullscreen for the session's whole
// lifetime; connections come and go underneath it.
type screenRelay struct {
	mu sync.Mutex
	fs proctor.Fullscreen
}

func (r *screenRelay) set(fs proctor.Fullscreen) {
	r.mu.Lock()
	r.fs = fs
	r.mu.Unlock()
}

func (r *screenRelay) Request() error {
	r.mu.Lock()
	fs := r.fs
	r.mu.Unlock()
	if fs == nil {
		return nil
	}
	return fs.Request()
}

func (r *screenRelay) Exit() error {
	r.mu.Lock()
	fs := r.fs
	r.mu.Unlock()
	if fs == nil {
		return nil
	}
	return fs.Exit()
}

// submitRelay forwards submission results to the currently attached client
// connection, if any.
type submitRelay struct {
	mu sync.Mutex
	fn func(quiz.Result)
}

func (r *submitRelay) set(fn func(quiz.Result)) {
	r.mu.Lock()
	r.fn = fn
	r.mu.Unlock()
}

func (r *submitRelay) notify(res quiz.Result) {
	r.mu.Lock()
	fn := r.fn
	r.mu.Unlock()
	if fn != nil {
		fn(res)
	}
}
