package quiz

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/model"
)

func testQuestion(correct string, options ...string) model.Question {
	return model.Question{
		ID:            uuid.New(),
		Prompt:        "prompt",
		Options:       options,
		CorrectAnswer: correct,
	}
}

func TestLedgerRecordOverwrites(t *testing.T) {
	l := NewLedger(rand.New(rand.NewSource(1)))
	q := testQuestion("b", "a", "b", "c")

	l.Record(q.ID, "a")
	l.Record(q.ID, "b")

	got, ok := l.Answer(q.ID)
	if !ok || got != "b" {
		t.Fatalf("answer = %q, %v; want \"b\", true", got, ok)
	}
}

func TestLedgerHintNeverCorrect(t *testing.T) {
	q := testQuestion("b", "a", "b", "c", "d")

	// Exhaust many seeds; the hint must never equal the correct answer.
	for seed := int64(0); seed < 50; seed++ {
		l := NewLedger(rand.New(rand.NewSource(seed)))
		hint, fresh := l.UseHint(q)
		if !fresh {
			t.Fatalf("seed %d: first UseHint was not fresh", seed)
		}
		if hint == q.CorrectAnswer {
			t.Fatalf("seed %d: hint revealed the correct answer", seed)
		}
	}
}

func TestLedgerHintWriteOnce(t *testing.T) {
	l := NewLedger(rand.New(rand.NewSource(7)))
	q := testQuestion("b", "a", "b", "c")

	first, fresh := l.UseHint(q)
	if !fresh {
		t.Fatal("first UseHint was not fresh")
	}
	second, fresh := l.UseHint(q)
	if fresh {
		t.Error("second UseHint drew a new hint")
	}
	if first != second {
		t.Errorf("second hint %q differs from first %q", second, first)
	}

	_, hints := l.Snapshot()
	if len(hints) != 1 {
		t.Errorf("hint record has %d entries, want 1", len(hints))
	}
}

func TestLedgerScoreDeterministic(t *testing.T) {
	l := NewLedger(rand.New(rand.NewSource(3)))
	questions := []model.Question{
		testQuestion("a", "a", "b"),
		testQuestion("b", "a", "b"),
		testQuestion("c", "c", "d"),
	}

	l.Record(questions[0].ID, "a")
	l.Record(questions[1].ID, "a") // wrong
	l.Record(questions[2].ID, "c")

	first := l.Score(questions)
	second := l.Score(questions)
	if first != second {
		t.Fatalf("score not deterministic: %d then %d", first, second)
	}
	if first != 2*PointsPerQuestion {
		t.Errorf("score = %d, want %d", first, 2*PointsPerQuestion)
	}
}

func TestLedgerUnansweredContributeZero(t *testing.T) {
	l := NewLedger(rand.New(rand.NewSource(3)))
	questions := []model.Question{
		testQuestion("a", "a", "b"),
		testQuestion("b", "a", "b"),
	}

	l.Record(questions[0].ID, "a")
	l.Record(questions[1].ID, "") // timed out

	if got := l.Score(questions); got != PointsPerQuestion {
		t.Errorf("score = %d, want %d", got, PointsPerQuestion)
	}
	if got := l.Answered(); got != 1 {
		t.Errorf("answered = %d, want 1", got)
	}
}
