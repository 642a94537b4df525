package quiz

import (
	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/model"
)

// seedQuestion is the static form of a question before per-session
// materialization assigns it an ID.
type seedQuestion struct {
	prompt  string
	options []string
	correct string
}

// Bank supplies the fixed per-category question sets. The tables are
// read-only reference data; QuestionsFor hands out fresh copies.
type Bank struct {
	tables map[model.Category][]seedQuestion
}

// NewBank creates a Bank with the built-in category tables.
func NewBank() *Bank {
	return &Bank{tables: defaultTables}
}

// QuestionsFor materializes the question sequence for a category, assigning
// a fresh unique ID to every question. An unknown or empty category yields
// an empty slice; the caller treats that as "no questions available".
func (b *Bank) QuestionsFor(cat model.Category) []model.Question {
	seeds, ok := b.tables[cat]
	if !ok {
		return nil
	}

	questions := make([]model.Question, 0, len(seeds))
	for _, s := range seeds {
		opts := make([]string, len(s.options))
		copy(opts, s.options)
		questions = append(questions, model.Question{
			ID:            uuid.New(),
			Prompt:        s.prompt,
			Options:       opts,
			CorrectAnswer: s.correct,
		})
	}
	return questions
}

// Categories returns catalog entries for every configured category.
func (b *Bank) Categories() []model.CategoryInfo {
	infos := make([]model.CategoryInfo, 0, len(model.Categories))
	for _, cat := range model.Categories {
		infos = append(infos, model.CategoryInfo{
			Name:          cat,
			QuestionCount: len(b.tables[cat]),
		})
	}
	return infos
}

var defaultTables = map[model.Category][]seedQuestion{
	model.CategoryMath: {
		{"What is 12 × 8?", []string{"86", "96", "104", "112"}, "96"},
		{"What is the value of π rounded to two decimal places?", []string{"3.12", "3.14", "3.16", "3.18"}, "3.14"},
		{"Solve for x: 2x + 6 = 20", []string{"5", "6", "7", "8"}, "7"},
		{"What is the square root of 144?", []string{"10", "11", "12", "14"}, "12"},
		{"What is 15% of 200?", []string{"25", "30", "35", "40"}, "30"},
		{"How many degrees are in the angles of a triangle?", []string{"90", "180", "270", "360"}, "180"},
	},
	model.CategoryScience: {
		{"What planet is known as the Red Planet?", []string{"Venus", "Mars", "Jupiter", "Saturn"}, "Mars"},
		{"What is the chemical symbol for gold?", []string{"Go", "Gd", "Au", "Ag"}, "Au"},
		{"What gas do plants absorb during photosynthesis?", []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, "Carbon dioxide"},
		{"What is the powerhouse of the cell?", []string{"Nucleus", "Ribosome", "Mitochondria", "Golgi body"}, "Mitochondria"},
		{"At what temperature does water boil at sea level?", []string{"90°C", "100°C", "110°C", "120°C"}, "100°C"},
		{"What force keeps planets in orbit around the Sun?", []string{"Magnetism", "Friction", "Gravity", "Inertia"}, "Gravity"},
	},
	model.CategoryHistory: {
		{"In which year did World War II end?", []string{"1943", "1944", "1945", "1946"}, "1945"},
		{"Who was the first President of the United States?", []string{"Thomas Jefferson", "George Washington", "John Adams", "Abraham Lincoln"}, "George Washington"},
		{"The Great Wall is located in which country?", []string{"Japan", "India", "China", "Korea"}, "China"},
		{"Which empire built the Colosseum?", []string{"Greek", "Ottoman", "Roman", "Persian"}, "Roman"},
		{"Who discovered the Americas in 1492?", []string{"Vasco da Gama", "Ferdinand Magellan", "Christopher Columbus", "James Cook"}, "Christopher Columbus"},
		{"The Industrial Revolution began in which country?", []string{"France", "Germany", "United States", "Great Britain"}, "Great Britain"},
	},
	model.CategoryEnglish: {
		{"Which word is a synonym of 'happy'?", []string{"Morose", "Joyful", "Sullen", "Weary"}, "Joyful"},
		{"What is the past tense of 'go'?", []string{"Goed", "Gone", "Went", "Going"}, "Went"},
		{"Which of these is a noun?", []string{"Quickly", "Beautiful", "Freedom", "Run"}, "Freedom"},
		{"Who wrote 'Romeo and Juliet'?", []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"}, "William Shakespeare"},
		{"Which sentence is grammatically correct?", []string{"She don't like tea", "She doesn't likes tea", "She doesn't like tea", "She not like tea"}, "She doesn't like tea"},
		{"What is the plural of 'child'?", []string{"Childs", "Childes", "Children", "Childrens"}, "Children"},
	},
	model.CategoryCoding: {
		{"Which data structure uses FIFO ordering?", []string{"Stack", "Queue", "Tree", "Graph"}, "Queue"},
		{"What does HTML stand for?", []string{"Hyper Trainer Marking Language", "HyperText Markup Language", "HighText Machine Language", "HyperText Machine Language"}, "HyperText Markup Language"},
		{"What is the time complexity of binary search?", []string{"O(n)", "O(n log n)", "O(log n)", "O(1)"}, "O(log n)"},
		{"Which keyword declares a constant in Go?", []string{"let", "var", "const", "final"}, "const"},
		{"Which protocol underlies the World Wide Web?", []string{"FTP", "SMTP", "HTTP", "SSH"}, "HTTP"},
		{"What does SQL stand for?", []string{"Structured Query Language", "Simple Query Language", "Sequential Question Language", "Standard Quality Language"}, "Structured Query Language"},
	},
}
