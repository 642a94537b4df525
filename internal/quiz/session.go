package quiz

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/quizgate/quizgate-backend/internal/proctor"
	"github.com/rs/zerolog"
)

// Countdown durations in seconds.
const (
	SessionDurationSeconds  = 600
	QuestionDurationSeconds = 30
)

// Engine precondition errors. All are recovered at the transport layer and
// rendered as user-visible messages; none terminate the session.
var (
	ErrNotIdle            = errors.New("session is not idle")
	ErrNotCleared         = errors.New("identity check has not been cleared")
	ErrNoQuestions        = errors.New("no questions available for this category")
	ErrNotInProgress      = errors.New("session is not in progress")
	ErrNotCurrentQuestion = errors.New("not the current question")
	ErrNotReviewing       = errors.New("session is not in review")
)

// Result summarizes a submitted session for persistence.
type Result struct {
	Category      model.Category
	Score         int
	QuestionCount int
	Answered      int
	Trigger       model.SubmitTrigger
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Session is the quiz session state machine. It owns the single source of
// truth for the phase; every transition goes through one of its methods.
// Methods and timer callbacks serialize on an internal mutex, so timer expiry
// and user actions can never interleave mid-transition.
type Session struct {
	mu     sync.Mutex
	log    zerolog.Logger
	bank   *Bank
	gate   *proctor.Gate
	sched  Scheduler
	ledger *Ledger
	now    func() time.Time

	phase             model.Phase
	category          model.Category
	questions         []model.Question
	index             int
	sessionRemaining  int
	questionRemaining int
	reviewIndex       int
	score             int
	trigger           model.SubmitTrigger
	startedAt         time.Time
	fullscreenActive  bool
	cancelTick        func()

	onSubmit func(Result)
}

// NewSession creates an idle session around the given bank, proctoring gate
// and scheduler. The rand source seeds the ledger's hint selection.
func NewSession(bank *Bank, gate *proctor.Gate, sched Scheduler, rng *rand.Rand, log zerolog.Logger) *Session {
	return &Session{
		log:    log.With().Str("component", "quiz_session").Logger(),
		bank:   bank,
		gate:   gate,
		sched:  sched,
		ledger: NewLedger(rng),
		now:    time.Now,
		phase:  model.PhaseIdle,
	}
}

// OnSubmit registers a callback fired once per submission, after the
// transition to Reviewing completes. Set it before the session starts.
func (s *Session) OnSubmit(fn func(Result)) { s.onSubmit = fn }

// Authenticate runs the proctoring identity check. The Authenticating phase
// is transient: whatever the outcome, the session returns to Idle and the
// gate's clearance flag decides what the client may do next.
func (s *Session) Authenticate(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != model.PhaseIdle {
		s.mu.Unlock()
		return ErrNotIdle
	}
	s.phase = model.PhaseAuthenticating
	s.mu.Unlock()

	// The gate sleeps for the simulated check latency; the session mutex
	// must not be held across it.
	err := s.gate.Authenticate(ctx)

	s.mu.Lock()
	s.phase = model.PhaseIdle
	s.mu.Unlock()
	return err
}

// StartCategory materializes the category's questions, engages the
// environment lock, starts both countdowns and enters InProgress.
// Repeat calls while a category is already active are silent no-ops, so
// double clicks cannot corrupt a running session.
func (s *Session) StartCategory(cat model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case model.PhaseCategoryChosen, model.PhaseInProgress:
		return nil
	case model.PhaseIdle:
	default:
		return ErrNotIdle
	}

	if !s.gate.Cleared() {
		return ErrNotCleared
	}

	questions := s.bank.QuestionsFor(cat)
	if len(questions) == 0 {
		// Degraded but non-fatal: the session stays Idle and the client
		// renders an empty-state message.
		return ErrNoQuestions
	}

	s.phase = model.PhaseCategoryChosen
	s.category = cat
	s.questions = questions
	s.index = 0
	s.sessionRemaining = SessionDurationSeconds
	s.questionRemaining = QuestionDurationSeconds
	s.startedAt = s.now()

	if err := s.gate.RequestFullscreen(); err != nil {
		s.log.Warn().Err(err).Msg("fullscreen request failed")
	} else {
		s.fullscreenActive = true
	}

	s.phase = model.PhaseInProgress
	s.cancelTick = s.sched.EverySecond(s.tick)

	s.log.Info().
		Str("category", string(cat)).
		Int("questions", len(questions)).
		Msg("quiz started")
	return nil
}

// Answer records an answer for the current question. Re-answering before
// advancing overwrites the earlier choice; advancing locks it in.
func (s *Session) Answer(questionID uuid.UUID, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseInProgress {
		return ErrNotInProgress
	}
	if s.questions[s.index].ID != questionID {
		return ErrNotCurrentQuestion
	}

	s.ledger.Record(questionID, answer)
	return nil
}

// UseHint reveals one incorrect option for the current question. Hints are
// consumed once per question; repeat calls return the stored hint.
func (s *Session) UseHint(questionID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseInProgress {
		return "", ErrNotInProgress
	}
	q := s.questions[s.index]
	if q.ID != questionID {
		return "", ErrNotCurrentQuestion
	}

	hint, _ := s.ledger.UseHint(q)
	return hint, nil
}

// Advance moves to the next question, resetting the question countdown.
// Advancing past the last question submits the session.
func (s *Session) Advance() error {
	s.mu.Lock()
	if s.phase != model.PhaseInProgress {
		s.mu.Unlock()
		return ErrNotInProgress
	}

	q := s.questions[s.index]
	if _, ok := s.ledger.Answer(q.ID); !ok {
		s.ledger.Record(q.ID, "")
	}

	var res *Result
	s.index++
	if s.index >= len(s.questions) {
		res = s.submitLocked(model.TriggerManual)
	} else {
		s.questionRemaining = QuestionDurationSeconds
	}
	s.mu.Unlock()

	s.emit(res)
	return nil
}

// Submit finalizes the session on explicit user action.
func (s *Session) Submit() {
	s.mu.Lock()
	res := s.submitLocked(model.TriggerManual)
	s.mu.Unlock()
	s.emit(res)
}

// ReportHidden handles a page-visibility violation: leaving the tab during
// an active quiz forces submission. This is a strict, non-resumable penalty.
// It reports whether a violation submit actually occurred.
func (s *Session) ReportHidden() bool {
	s.mu.Lock()
	res := s.submitLocked(model.TriggerViolation)
	s.mu.Unlock()

	if res == nil {
		return false
	}
	s.log.Warn().Str("category", string(res.Category)).Msg("visibility violation, session force-submitted")
	s.emit(res)
	return true
}

// ReportFullscreenExit re-engages the environment lock, once per reported
// exit event, while the quiz is in progress.
func (s *Session) ReportFullscreenExit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseInProgress {
		return
	}
	if err := s.gate.RequestFullscreen(); err != nil {
		s.log.Warn().Err(err).Msg("fullscreen re-request failed")
		s.fullscreenActive = false
	}
}

// Review sets the review cursor. Valid only after submission.
func (s *Session) Review(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.PhaseReviewing {
		return ErrNotReviewing
	}
	if index < 0 || index >= len(s.questions) {
		return ErrNotCurrentQuestion
	}
	s.reviewIndex = index
	return nil
}

// Reset clears all mutable state, cancels the countdown and releases the
// environment lock, returning the session to Idle. A stale tick fired by an
// already-cancelled scheduler handle is a no-op against the fresh state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}

	s.ledger.Reset()
	s.gate.Reset()
	if err := s.gate.ExitFullscreen(); err != nil {
		s.log.Warn().Err(err).Msg("fullscreen exit failed")
	}

	s.phase = model.PhaseIdle
	s.category = ""
	s.questions = nil
	s.index = 0
	s.sessionRemaining = 0
	s.questionRemaining = 0
	s.reviewIndex = 0
	s.score = 0
	s.trigger = ""
	s.startedAt = time.Time{}
	s.fullscreenActive = false
}

// Snapshot returns a copy of the current state for the transport layer.
// Correct answers are exposed only once the session is in review.
func (s *Session) Snapshot() model.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers, hints := s.ledger.Snapshot()
	snap := model.SessionSnapshot{
		Phase:                    s.phase,
		Category:                 s.category,
		Questions:                s.questions,
		CurrentQuestionIndex:     s.index,
		SessionSecondsRemaining:  s.sessionRemaining,
		QuestionSecondsRemaining: s.questionRemaining,
		BiometricCleared:         s.gate.Cleared(),
		FullscreenActive:         s.fullscreenActive,
		ProctorStatus:            s.gate.Status(),
		Answers:                  answers,
		Hints:                    hints,
		ReviewIndex:              s.reviewIndex,
		Score:                    s.score,
		Trigger:                  s.trigger,
	}

	if s.phase == model.PhaseReviewing {
		correct := make(map[uuid.UUID]string, len(s.questions))
		for _, q := range s.questions {
			correct[q.ID] = q.CorrectAnswer
		}
		snap.CorrectAnswers = correct
	}
	return snap
}

// tick is the once-per-second countdown callback. Ticks arriving after the
// session leaves InProgress are no-ops, which makes scoring idempotent even
// when both countdowns expire in the same tick.
func (s *Session) tick() {
	var res *Result

	s.mu.Lock()
	if s.phase != model.PhaseInProgress {
		s.mu.Unlock()
		return
	}

	s.sessionRemaining--
	s.questionRemaining--

	if s.sessionRemaining <= 0 {
		res = s.submitLocked(model.TriggerTimeout)
	} else if s.questionRemaining <= 0 {
		q := s.questions[s.index]
		if _, ok := s.ledger.Answer(q.ID); !ok {
			s.ledger.Record(q.ID, "")
		}
		s.index++
		if s.index >= len(s.questions) {
			res = s.submitLocked(model.TriggerTimeout)
		} else {
			s.questionRemaining = QuestionDurationSeconds
		}
	}
	s.mu.Unlock()

	s.emit(res)
}

// submitLocked performs the Submitted→Reviewing transition. It is the only
// way out of InProgress and short-circuits when the phase already left it,
// so manual submit, timer expiry and violations collapse to one submission.
// The environment lock is deliberately NOT released here; only an explicit
// Reset exits fullscreen.
func (s *Session) submitLocked(trigger model.SubmitTrigger) *Result {
	if s.phase != model.PhaseInProgress {
		return nil
	}

	// Unreached questions get an explicit empty record so the review view
	// and the score computation see every question.
	for _, q := range s.questions {
		if _, ok := s.ledger.Answer(q.ID); !ok {
			s.ledger.Record(q.ID, "")
		}
	}

	s.score = s.ledger.Score(s.questions)
	s.trigger = trigger
	s.reviewIndex = 0

	// Submitted and Reviewing are one atomic transition; no intermediate
	// state is observable from outside.
	s.phase = model.PhaseSubmitted
	s.phase = model.PhaseReviewing

	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}

	s.log.Info().
		Str("category", string(s.category)).
		Str("trigger", string(trigger)).
		Int("score", s.score).
		Msg("quiz submitted")

	return &Result{
		Category:      s.category,
		Score:         s.score,
		QuestionCount: len(s.questions),
		Answered:      s.ledger.Answered(),
		Trigger:       trigger,
		StartedAt:     s.startedAt,
		FinishedAt:    s.now(),
	}
}

func (s *Session) emit(res *Result) {
	if res != nil && s.onSubmit != nil {
		s.onSubmit(*res)
	}
}
