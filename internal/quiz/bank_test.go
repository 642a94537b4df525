package quiz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/model"
)

func TestBankTablesWellFormed(t *testing.T) {
	bank := NewBank()

	for _, cat := range model.Categories {
		questions := bank.QuestionsFor(cat)
		if len(questions) != len(defaultTables[cat]) {
			t.Errorf("%s: got %d questions, table defines %d", cat, len(questions), len(defaultTables[cat]))
		}

		for _, q := range questions {
			if q.Prompt == "" {
				t.Errorf("%s: empty prompt", cat)
			}
			if len(q.Options) < 2 || len(q.Options) > 6 {
				t.Errorf("%s: question %q has %d options", cat, q.Prompt, len(q.Options))
			}
			found := false
			for _, opt := range q.Options {
				if opt == q.CorrectAnswer {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("%s: correct answer %q not among options of %q", cat, q.CorrectAnswer, q.Prompt)
			}
		}
	}
}

func TestBankFreshIDsPerMaterialization(t *testing.T) {
	bank := NewBank()

	first := bank.QuestionsFor(model.CategoryMath)
	second := bank.QuestionsFor(model.CategoryMath)

	seen := make(map[uuid.UUID]bool, len(first))
	for _, q := range first {
		if seen[q.ID] {
			t.Fatalf("duplicate id %s within one materialization", q.ID)
		}
		seen[q.ID] = true
	}
	for _, q := range second {
		if seen[q.ID] {
			t.Errorf("id %s reused across materializations", q.ID)
		}
	}
}

func TestBankUnknownCategory(t *testing.T) {
	bank := NewBank()
	if qs := bank.QuestionsFor(model.Category("Astrology")); len(qs) != 0 {
		t.Errorf("unknown category returned %d questions, want 0", len(qs))
	}
}

func TestBankCatalog(t *testing.T) {
	bank := NewBank()
	infos := bank.Categories()
	if len(infos) != len(model.Categories) {
		t.Fatalf("catalog has %d entries, want %d", len(infos), len(model.Categories))
	}
	for _, info := range infos {
		if info.QuestionCount == 0 {
			t.Errorf("category %s has no questions in catalog", info.Name)
		}
	}
}
