package quiz

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/quizgate/quizgate-backend/internal/proctor"
	"github.com/rs/zerolog"
)

// manualScheduler lets tests drive countdown ticks by hand. Tick honors
// cancellation; TickStale fires the retained callback regardless, simulating
// a leaked handle from a previous session.
type manualScheduler struct {
	mu        sync.Mutex
	fn        func()
	cancelled bool
}

func (m *manualScheduler) EverySecond(fn func()) func() {
	m.mu.Lock()
	m.fn = fn
	m.cancelled = false
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.cancelled = true
		m.mu.Unlock()
	}
}

func (m *manualScheduler) Tick(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		fn, cancelled := m.fn, m.cancelled
		m.mu.Unlock()
		if cancelled || fn == nil {
			return
		}
		fn()
	}
}

func (m *manualScheduler) TickStale() {
	m.mu.Lock()
	fn := m.fn
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func newTestSession(t *testing.T, policy proctor.VerifyPolicy) (*Session, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	gate := proctor.NewGate(
		proctor.NewSimCamera(),
		proctor.NopFullscreen{},
		policy,
		zerolog.Nop(),
		proctor.WithLatency(0),
	)
	s := NewSession(NewBank(), gate, sched, rand.New(rand.NewSource(42)), zerolog.Nop())
	return s, sched
}

func startedSession(t *testing.T, cat model.Category) (*Session, *manualScheduler) {
	t.Helper()
	s, sched := newTestSession(t, proctor.AlwaysPass)
	if err := s.Authenticate(context.Background()); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := s.StartCategory(cat); err != nil {
		t.Fatalf("start category: %v", err)
	}
	return s, sched
}

func TestStartRequiresClearance(t *testing.T) {
	s, _ := newTestSession(t, proctor.AlwaysPass)

	if err := s.StartCategory(model.CategoryMath); err != ErrNotCleared {
		t.Fatalf("start without clearance = %v, want ErrNotCleared", err)
	}
	if snap := s.Snapshot(); snap.Phase != model.PhaseIdle {
		t.Errorf("phase = %s, want IDLE", snap.Phase)
	}
}

func TestAuthenticateFailureLeavesUncleared(t *testing.T) {
	s, _ := newTestSession(t, proctor.AlwaysFail)

	if err := s.Authenticate(context.Background()); err == nil {
		t.Fatal("authenticate succeeded with AlwaysFail policy")
	}
	snap := s.Snapshot()
	if snap.BiometricCleared {
		t.Error("cleared after failed check")
	}
	if snap.Phase != model.PhaseIdle {
		t.Errorf("phase = %s, want IDLE", snap.Phase)
	}
}

func TestStartCategoryIdempotent(t *testing.T) {
	s, _ := startedSession(t, model.CategoryMath)

	before := s.Snapshot()
	if err := s.StartCategory(model.CategoryScience); err != nil {
		t.Fatalf("repeat start returned %v, want silent no-op", err)
	}
	after := s.Snapshot()

	if after.Category != model.CategoryMath {
		t.Errorf("repeat start changed category to %s", after.Category)
	}
	if before.Questions[0].ID != after.Questions[0].ID {
		t.Error("repeat start rematerialized questions")
	}
}

func TestStartUnknownCategory(t *testing.T) {
	s, _ := newTestSession(t, proctor.AlwaysPass)
	if err := s.Authenticate(context.Background()); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if err := s.StartCategory(model.Category("Astrology")); err != ErrNoQuestions {
		t.Fatalf("unknown category = %v, want ErrNoQuestions", err)
	}
	if snap := s.Snapshot(); snap.Phase != model.PhaseIdle {
		t.Errorf("phase = %s, want IDLE after degraded start", snap.Phase)
	}
}

// Scenario: answering all six Math questions correctly yields a score of 60
// and lands the session in review.
func TestAllCorrectAnswers(t *testing.T) {
	s, _ := startedSession(t, model.CategoryMath)

	snap := s.Snapshot()
	for range snap.Questions {
		cur := s.Snapshot()
		q := cur.Questions[cur.CurrentQuestionIndex]
		if err := s.Answer(q.ID, q.CorrectAnswer); err != nil {
			t.Fatalf("answer: %v", err)
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	final := s.Snapshot()
	if final.Phase != model.PhaseReviewing {
		t.Errorf("phase = %s, want REVIEWING", final.Phase)
	}
	if final.Score != 6*PointsPerQuestion {
		t.Errorf("score = %d, want %d", final.Score, 6*PointsPerQuestion)
	}
	if final.Trigger != model.TriggerManual {
		t.Errorf("trigger = %s, want MANUAL", final.Trigger)
	}
	if len(final.CorrectAnswers) != 6 {
		t.Errorf("review exposes %d correct answers, want 6", len(final.CorrectAnswers))
	}
}

// Scenario: the session countdown reaches zero with three of six questions
// answered, two of them correctly. The remaining questions carry empty
// answer records and contribute nothing to the score.
func TestSessionTimeout(t *testing.T) {
	s, sched := startedSession(t, model.CategoryMath)

	answers := []bool{true, true, false} // correct, correct, wrong
	for _, correct := range answers {
		cur := s.Snapshot()
		q := cur.Questions[cur.CurrentQuestionIndex]
		ans := q.CorrectAnswer
		if !correct {
			ans = wrongOption(q)
		}
		if err := s.Answer(q.ID, ans); err != nil {
			t.Fatalf("answer: %v", err)
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	// Force the session countdown to expire on the next tick.
	s.mu.Lock()
	s.sessionRemaining = 1
	s.mu.Unlock()
	sched.Tick(1)

	snap := s.Snapshot()
	if snap.Phase != model.PhaseReviewing {
		t.Fatalf("phase = %s, want REVIEWING", snap.Phase)
	}
	if snap.Trigger != model.TriggerTimeout {
		t.Errorf("trigger = %s, want TIMEOUT", snap.Trigger)
	}
	if snap.Score != 2*PointsPerQuestion {
		t.Errorf("score = %d, want %d", snap.Score, 2*PointsPerQuestion)
	}

	empty := 0
	for _, a := range snap.Answers {
		if a == "" {
			empty++
		}
	}
	if len(snap.Answers) != 6 {
		t.Errorf("answer record has %d entries, want 6", len(snap.Answers))
	}
	if empty != 3 {
		t.Errorf("%d empty records, want 3 for the unreached questions", empty)
	}
}

func TestQuestionTimeoutAdvancesAndRecordsEmpty(t *testing.T) {
	s, sched := startedSession(t, model.CategoryMath)

	sched.Tick(QuestionDurationSeconds)

	snap := s.Snapshot()
	if snap.CurrentQuestionIndex != 1 {
		t.Fatalf("index = %d, want 1", snap.CurrentQuestionIndex)
	}
	if snap.QuestionSecondsRemaining != QuestionDurationSeconds {
		t.Errorf("question countdown = %d, want reset to %d", snap.QuestionSecondsRemaining, QuestionDurationSeconds)
	}
	if a, ok := snap.Answers[snap.Questions[0].ID]; !ok || a != "" {
		t.Errorf("timed-out question answer = %q, %v; want empty record", a, ok)
	}
	if snap.SessionSecondsRemaining != SessionDurationSeconds-QuestionDurationSeconds {
		t.Errorf("session countdown = %d, want %d", snap.SessionSecondsRemaining, SessionDurationSeconds-QuestionDurationSeconds)
	}
}

func TestQuestionTimeoutCascadeSubmits(t *testing.T) {
	s, sched := startedSession(t, model.CategoryMath)

	// Let every question time out; the final advance submits.
	sched.Tick(6 * QuestionDurationSeconds)

	snap := s.Snapshot()
	if snap.Phase != model.PhaseReviewing {
		t.Fatalf("phase = %s, want REVIEWING", snap.Phase)
	}
	if snap.Score != 0 {
		t.Errorf("score = %d, want 0", snap.Score)
	}
	if len(snap.Answers) != 6 {
		t.Errorf("answer record has %d entries, want 6", len(snap.Answers))
	}
}

func TestSubmitIdempotent(t *testing.T) {
	s, _ := startedSession(t, model.CategoryMath)

	submissions := 0
	s.OnSubmit(func(Result) { submissions++ })

	cur := s.Snapshot()
	q := cur.Questions[0]
	if err := s.Answer(q.ID, q.CorrectAnswer); err != nil {
		t.Fatalf("answer: %v", err)
	}

	s.Submit()
	first := s.Snapshot()
	s.Submit()
	second := s.Snapshot()

	if first.Phase != model.PhaseReviewing || second.Phase != model.PhaseReviewing {
		t.Errorf("phases = %s, %s; want REVIEWING both times", first.Phase, second.Phase)
	}
	if first.Score != second.Score {
		t.Errorf("second submit changed score: %d -> %d", first.Score, second.Score)
	}
	if submissions != 1 {
		t.Errorf("onSubmit fired %d times, want 1", submissions)
	}
}

// Scenario: the page goes hidden mid-quiz. The session is force-submitted
// exactly once and transitions directly to review.
func TestVisibilityViolation(t *testing.T) {
	s, _ := startedSession(t, model.CategoryMath)

	submissions := 0
	s.OnSubmit(func(res Result) {
		submissions++
		if res.Trigger != model.TriggerViolation {
			t.Errorf("trigger = %s, want VIOLATION", res.Trigger)
		}
	})

	if !s.ReportHidden() {
		t.Fatal("first ReportHidden did not submit")
	}
	if s.ReportHidden() {
		t.Error("second ReportHidden submitted again")
	}

	snap := s.Snapshot()
	if snap.Phase != model.PhaseReviewing {
		t.Errorf("phase = %s, want REVIEWING", snap.Phase)
	}
	if submissions != 1 {
		t.Errorf("onSubmit fired %d times, want 1", submissions)
	}
}

func TestHiddenWhileIdleIsNoop(t *testing.T) {
	s, _ := newTestSession(t, proctor.AlwaysPass)
	if s.ReportHidden() {
		t.Error("ReportHidden submitted an idle session")
	}
}

// Both countdowns expiring in the same tick must resolve to exactly one
// submission.
func TestDoubleExpirySameTick(t *testing.T) {
	s, sched := startedSession(t, model.CategoryMath)

	submissions := 0
	s.OnSubmit(func(Result) { submissions++ })

	s.mu.Lock()
	s.index = len(s.questions) - 1
	s.sessionRemaining = 1
	s.questionRemaining = 1
	s.mu.Unlock()

	sched.Tick(1)

	if submissions != 1 {
		t.Fatalf("onSubmit fired %d times, want 1", submissions)
	}
	if snap := s.Snapshot(); snap.Phase != model.PhaseReviewing {
		t.Errorf("phase = %s, want REVIEWING", snap.Phase)
	}
}

func TestTicksStopAfterSubmit(t *testing.T) {
	s, sched := startedSession(t, model.CategoryMath)

	s.Submit()
	before := s.Snapshot()
	sched.TickStale()
	after := s.Snapshot()

	if before.SessionSecondsRemaining != after.SessionSecondsRemaining {
		t.Error("countdown decremented after submission")
	}
}

// Scenario: reset after review clears everything and cancels the countdown;
// a stale tick from the old handle must not mutate the fresh session.
func TestResetClearsSession(t *testing.T) {
	s, sched := startedSession(t, model.CategoryMath)

	cur := s.Snapshot()
	q := cur.Questions[0]
	if err := s.Answer(q.ID, q.CorrectAnswer); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if _, err := s.UseHint(q.ID); err != nil {
		t.Fatalf("hint: %v", err)
	}
	s.Submit()

	s.Reset()

	snap := s.Snapshot()
	if snap.Phase != model.PhaseIdle {
		t.Errorf("phase = %s, want IDLE", snap.Phase)
	}
	if len(snap.Answers) != 0 || len(snap.Hints) != 0 {
		t.Errorf("reset left %d answers and %d hints", len(snap.Answers), len(snap.Hints))
	}
	if snap.BiometricCleared {
		t.Error("reset kept biometric clearance")
	}

	sched.TickStale()
	if after := s.Snapshot(); after.Phase != model.PhaseIdle || after.SessionSecondsRemaining != 0 {
		t.Error("stale tick mutated the reset session")
	}
}

func TestHintViaSession(t *testing.T) {
	s, _ := startedSession(t, model.CategoryMath)

	cur := s.Snapshot()
	q := cur.Questions[0]

	first, err := s.UseHint(q.ID)
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if first == q.CorrectAnswer {
		t.Error("hint revealed the correct answer")
	}

	second, err := s.UseHint(q.ID)
	if err != nil {
		t.Fatalf("second hint: %v", err)
	}
	if second != first {
		t.Errorf("second hint %q differs from first %q", second, first)
	}

	if snap := s.Snapshot(); len(snap.Hints) != 1 {
		t.Errorf("hint record has %d entries, want 1", len(snap.Hints))
	}
}

func TestAnswerWrongQuestionRejected(t *testing.T) {
	s, _ := startedSession(t, model.CategoryMath)

	cur := s.Snapshot()
	next := cur.Questions[1]
	if err := s.Answer(next.ID, "whatever"); err != ErrNotCurrentQuestion {
		t.Errorf("answering a non-current question = %v, want ErrNotCurrentQuestion", err)
	}
}

func TestReviewNavigation(t *testing.T) {
	s, _ := startedSession(t, model.CategoryMath)

	if err := s.Review(0); err != ErrNotReviewing {
		t.Fatalf("review before submit = %v, want ErrNotReviewing", err)
	}

	s.Submit()

	if err := s.Review(3); err != nil {
		t.Fatalf("review: %v", err)
	}
	if snap := s.Snapshot(); snap.ReviewIndex != 3 {
		t.Errorf("review index = %d, want 3", snap.ReviewIndex)
	}
	if err := s.Review(17); err == nil {
		t.Error("out-of-range review index accepted")
	}
}

func wrongOption(q model.Question) string {
	for _, opt := range q.Options {
		if opt != q.CorrectAnswer {
			return opt
		}
	}
	return ""
}
