package model

import "github.com/google/uuid"

// Category enumerates the built-in quiz categories.
type Category string

const (
	CategoryMath    Category = "Math"
	CategoryScience Category = "Science"
	CategoryHistory Category = "History"
	CategoryEnglish Category = "English"
	CategoryCoding  Category = "Coding"
)

// Categories lists all quiz categories in display order.
var Categories = []Category{
	CategoryMath,
	CategoryScience,
	CategoryHistory,
	CategoryEnglish,
	CategoryCoding,
}

// Question is a single multiple-choice question. Instances are materialized
// per session with fresh IDs so repeat sessions in one login never collide.
type Question struct {
	ID            uuid.UUID `json:"id"`
	Prompt        string    `json:"prompt"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"-"`
}

// CategoryInfo describes a category for the student catalog.
type CategoryInfo struct {
	Name          Category `json:"name"`
	QuestionCount int      `json:"question_count"`
}
