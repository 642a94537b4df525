package model

import (
	"time"

	"github.com/google/uuid"
)

// Phase enumerates the lifecycle stages of a quiz session. A session holds
// exactly one phase at a time; all transitions go through the session engine.
type Phase string

const (
	PhaseIdle           Phase = "IDLE"
	PhaseAuthenticating Phase = "AUTHENTICATING"
	PhaseCategoryChosen Phase = "CATEGORY_CHOSEN"
	PhaseInProgress     Phase = "IN_PROGRESS"
	PhaseSubmitted      Phase = "SUBMITTED"
	PhaseReviewing      Phase = "REVIEWING"
)

// SubmitTrigger records what caused a session to be submitted.
type SubmitTrigger string

const (
	TriggerManual    SubmitTrigger = "MANUAL"
	TriggerTimeout   SubmitTrigger = "TIMEOUT"
	TriggerViolation SubmitTrigger = "VIOLATION"
)

// SessionSnapshot is a read-only copy of the engine state handed to the
// transport layer for rendering. It carries everything a reconnecting
// client needs to restore its view.
type SessionSnapshot struct {
	Phase                    Phase                `json:"phase"`
	Category                 Category             `json:"category,omitempty"`
	Questions                []Question           `json:"questions,omitempty"`
	CurrentQuestionIndex     int                  `json:"current_question_index"`
	SessionSecondsRemaining  int                  `json:"session_seconds_remaining"`
	QuestionSecondsRemaining int                  `json:"question_seconds_remaining"`
	BiometricCleared         bool                 `json:"biometric_cleared"`
	FullscreenActive         bool                 `json:"fullscreen_active"`
	ProctorStatus            string               `json:"proctor_status,omitempty"`
	Answers                  map[uuid.UUID]string `json:"answers,omitempty"`
	Hints                    map[uuid.UUID]string `json:"hints,omitempty"`
	CorrectAnswers           map[uuid.UUID]string `json:"correct_answers,omitempty"`
	ReviewIndex              int                  `json:"review_index"`
	Score                    int                  `json:"score"`
	Trigger                  SubmitTrigger        `json:"trigger,omitempty"`
}

// QuizResult is a persisted record of a completed session.
type QuizResult struct {
	ID            uuid.UUID     `json:"id"`
	StudentID     int           `json:"student_id"`
	Category      Category      `json:"category"`
	Score         int           `json:"score"`
	QuestionCount int           `json:"question_count"`
	Answered      int           `json:"answered"`
	Trigger       SubmitTrigger `json:"trigger"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
}
