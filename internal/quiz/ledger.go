package quiz

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/model"
)

// PointsPerQuestion is awarded for every exact answer match at scoring time.
const PointsPerQuestion = 10

// Ledger records per-question answers and hints and derives the final score.
// It is the only place answers and hints are mutated; the session engine
// guards phase preconditions before calling in.
type Ledger struct {
	answers map[uuid.UUID]string
	hints   map[uuid.UUID]string
	rng     *rand.Rand
}

// NewLedger creates an empty Ledger. The rand source picks hint options;
// tests inject a seeded source for determinism.
func NewLedger(rng *rand.Rand) *Ledger {
	return &Ledger{
		answers: make(map[uuid.UUID]string),
		hints:   make(map[uuid.UUID]string),
		rng:     rng,
	}
}

// Record stores an answer for a question. A later call overwrites an earlier
// one; an empty string marks the question as timed out / unanswered.
func (l *Ledger) Record(questionID uuid.UUID, answer string) {
	l.answers[questionID] = answer
}

// Answer returns the recorded answer for a question, if any.
func (l *Ledger) Answer(questionID uuid.UUID) (string, bool) {
	a, ok := l.answers[questionID]
	return a, ok
}

// Answered counts questions with a non-empty recorded answer.
func (l *Ledger) Answered() int {
	n := 0
	for _, a := range l.answers {
		if a != "" {
			n++
		}
	}
	return n
}

// UseHint reveals one incorrect option for the question, chosen uniformly at
// random. Hints are consumed exactly once per question: a second call returns
// the stored hint without drawing again. The correct answer is never revealed.
func (l *Ledger) UseHint(q model.Question) (string, bool) {
	if hint, ok := l.hints[q.ID]; ok {
		return hint, false
	}

	incorrect := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt != q.CorrectAnswer {
			incorrect = append(incorrect, opt)
		}
	}
	if len(incorrect) == 0 {
		return "", false
	}

	hint := incorrect[l.rng.Intn(len(incorrect))]
	l.hints[q.ID] = hint
	return hint, true
}

// Hint returns the stored hint for a question, if one was consumed.
func (l *Ledger) Hint(questionID uuid.UUID) (string, bool) {
	h, ok := l.hints[questionID]
	return h, ok
}

// Score sums PointsPerQuestion for every exact match between a recorded
// answer and the question's correct answer. Pure with respect to the ledger:
// calling it twice over the same questions yields the same integer.
func (l *Ledger) Score(questions []model.Question) int {
	score := 0
	for _, q := range questions {
		if l.answers[q.ID] == q.CorrectAnswer {
			score += PointsPerQuestion
		}
	}
	return score
}

// Snapshot returns copies of the answer and hint maps for rendering.
func (l *Ledger) Snapshot() (answers, hints map[uuid.UUID]string) {
	answers = make(map[uuid.UUID]string, len(l.answers))
	for k, v := range l.answers {
		answers[k] = v
	}
	hints = make(map[uuid.UUID]string, len(l.hints))
	for k, v := range l.hints {
		hints[k] = v
	}
	return answers, hints
}

// Reset clears all recorded answers and hints.
func (l *Ledger) Reset() {
	l.answers = make(map[uuid.UUID]string)
	l.hints = make(map[uuid.UUID]string)
}
