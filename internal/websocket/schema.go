package websocket

import "github.com/quizgate/quizgate-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAuthenticate Action = "authenticate"
	ActionStart        Action = "start"
	ActionAnswer       Action = "answer"
	ActionHint         Action = "hint"
	ActionAdvance      Action = "advance"
	ActionSubmit       Action = "submit"
	ActionReview       Action = "review"
	ActionReset        Action = "reset"
	ActionProctor      Action = "proctor"
	ActionPing         Action = "ping"
)

// Proctor event kinds reported by the client.
const (
	ProctorEventHidden         = "hidden"
	ProctorEventFullscreenExit = "fullscreen_exit"
)

// RequestPayload is the single client message shape. Which fields apply
// depends on the action.
type RequestPayload struct {
	Action   Action `json:"action"`
	Category string `json:"category,omitempty"` // start
	QID      string `json:"q_id,omitempty"`     // answer, hint
	Answer   string `json:"ans,omitempty"`      // answer
	Index    *int   `json:"index,omitempty"`    // review
	Kind     string `json:"kind,omitempty"`     // proctor
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState  Event = "state"
	EventHint   Event = "hint"
	EventGraded Event = "graded"
	EventScreen Event = "screen"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// Screen directive modes.
const (
	ScreenModeRequest = "request"
	ScreenModeExit    = "exit"
)

// StateResponse carries the full session snapshot after a transition.
type StateResponse struct {
	Event Event                 `json:"event"`
	State model.SessionSnapshot `json:"state"`
}

// HintResponse carries a revealed hint for one question.
type HintResponse struct {
	Event Event  `json:"event"`
	QID   string `json:"q_id"`
	Hint  string `json:"hint"`
}

// GradedResponse is pushed when the session is submitted, whatever the
// trigger, along with the post-submission snapshot.
type GradedResponse struct {
	Event   Event                 `json:"event"`
	Score   int                   `json:"score"`
	Trigger model.SubmitTrigger   `json:"trigger"`
	State   model.SessionSnapshot `json:"state"`
}

// ScreenResponse directs the client to enter or leave fullscreen.
type ScreenResponse struct {
	Event Event  `json:"event"`
	Mode  string `json:"mode"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
