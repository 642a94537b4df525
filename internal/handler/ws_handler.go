package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/quizgate/quizgate-backend/internal/middleware"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/quizgate/quizgate-backend/internal/proctor"
	"github.com/quizgate/quizgate-backend/internal/quiz"
	"github.com/quizgate/quizgate-backend/internal/response"
	"github.com/quizgate/quizgate-backend/internal/service"
	ws "github.com/quizgate/quizgate-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// wsConn serializes writes to a WebSocket connection. The engine pushes
// graded and screen events from its own goroutines while the action loop
// writes replies, and gorilla conns allow only one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ws.WriteTyped(c.conn, v)
}

func (c *wsConn) writeError(code response.ErrCode, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ws.WriteError(c.conn, string(code), msg)
}

// WSHandler handles the WebSocket quiz stream.
type WSHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(quizService *service.QuizService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		quizService: quizService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/student/quiz/stream
// Upgrades to WebSocket and drives the student's quiz session engine.
func (h *WSHandler) QuizStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer raw.Close()

	studentID := claims.UserID
	conn := &wsConn{conn: raw}

	wsLog := h.log.With().Int("student_id", studentID).Logger()
	wsLog.Info().Msg("Student connected")

	// Bind this connection to the session's push channels. Fullscreen
	// control and off-path submissions (timeout, violation) surface here.
	h.quizService.AttachScreen(studentID, proctor.FullscreenFunc{
		OnRequest: func() error {
			return conn.write(ws.ScreenResponse{Event: ws.EventScreen, Mode: ws.ScreenModeRequest})
		},
		OnExit: func() error {
			return conn.write(ws.ScreenResponse{Event: ws.EventScreen, Mode: ws.ScreenModeExit})
		},
	})
	h.quizService.AttachSubmitListener(studentID, func(res quiz.Result) {
		conn.write(ws.GradedResponse{
			Event:   ws.EventGraded,
			Score:   res.Score,
			Trigger: res.Trigger,
			State:   h.quizService.SessionFor(studentID).Snapshot(),
		})
	})
	defer h.quizService.DetachScreen(studentID)
	defer h.quizService.DetachSubmitListener(studentID)

	// Restore the client's view before entering the action loop.
	h.pushState(conn, studentID)

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(raw, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		h.dispatch(c, conn, wsLog, studentID, &msg)
	}
}

func (h *WSHandler) dispatch(c *gin.Context, conn *wsConn, wsLog zerolog.Logger, studentID int, msg *ws.RequestPayload) {
	ctx := c.Request.Context()
	engine := h.quizService.SessionFor(studentID)

	switch msg.Action {
	case ws.ActionAuthenticate:
		if err := engine.Authenticate(ctx); err != nil {
			conn.writeError(h.errCode(err), err.Error())
		}
		h.pushState(conn, studentID)

	case ws.ActionStart:
		if err := h.quizService.Start(ctx, studentID, model.Category(msg.Category)); err != nil {
			conn.writeError(h.errCode(err), err.Error())
			h.pushState(conn, studentID)
			return
		}
		h.pushState(conn, studentID)

	case ws.ActionAnswer:
		qid, err := uuid.Parse(msg.QID)
		if err != nil {
			conn.writeError(response.ErrInvalidPayload, "invalid q_id format")
			return
		}
		if err := h.quizService.Answer(ctx, studentID, qid, msg.Answer); err != nil {
			conn.writeError(h.errCode(err), err.Error())
			return
		}
		h.pushState(conn, studentID)

	case ws.ActionHint:
		qid, err := uuid.Parse(msg.QID)
		if err != nil {
			conn.writeError(response.ErrInvalidPayload, "invalid q_id format")
			return
		}
		hint, err := engine.UseHint(qid)
		if err != nil {
			conn.writeError(h.errCode(err), err.Error())
			return
		}
		conn.write(ws.HintResponse{Event: ws.EventHint, QID: msg.QID, Hint: hint})

	case ws.ActionAdvance:
		if err := engine.Advance(); err != nil {
			conn.writeError(h.errCode(err), err.Error())
			return
		}
		h.pushState(conn, studentID)

	case ws.ActionSubmit:
		engine.Submit()
		// The graded event arrives via the submit listener.

	case ws.ActionReview:
		if msg.Index == nil {
			conn.writeError(response.ErrInvalidPayload, "index is required")
			return
		}
		if err := engine.Review(*msg.Index); err != nil {
			conn.writeError(h.errCode(err), err.Error())
			return
		}
		h.pushState(conn, studentID)

	case ws.ActionReset:
		h.quizService.Reset(ctx, studentID)
		h.pushState(conn, studentID)

	case ws.ActionProctor:
		h.handleProctor(ctx, conn, wsLog, studentID, msg.Kind)

	case ws.ActionPing:
		conn.write(ws.PongResponse{Event: ws.EventPong})

	default:
		wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		conn.writeError(response.ErrInvalidPayload, "unknown action: "+string(msg.Action))
	}
}

// handleProctor applies a client-reported proctor event to the session.
func (h *WSHandler) handleProctor(ctx context.Context, conn *wsConn, wsLog zerolog.Logger, studentID int, kind string) {
	switch kind {
	case ws.ProctorEventHidden:
		if forced := h.quizService.ReportHidden(ctx, studentID); forced {
			wsLog.Warn().Msg("Visibility violation forced submission")
		}
		// The forced case surfaces as a graded event via the submit listener.
	case ws.ProctorEventFullscreenExit:
		h.quizService.ReportFullscreenExit(ctx, studentID)
		h.pushState(conn, studentID)
	default:
		conn.writeError(response.ErrInvalidPayload, "unknown proctor event: "+kind)
	}
}

func (h *WSHandler) pushState(conn *wsConn, studentID int) {
	snap := h.quizService.SessionFor(studentID).Snapshot()
	conn.write(ws.StateResponse{Event: ws.EventState, State: snap})
}

// errCode maps engine errors onto wire error codes.
func (h *WSHandler) errCode(err error) response.ErrCode {
	switch {
	case errors.Is(err, quiz.ErrNotIdle):
		return response.ErrConflict
	case errors.Is(err, quiz.ErrNotCleared):
		return response.ErrNotCleared
	case errors.Is(err, quiz.ErrNoQuestions):
		return response.ErrNoQuestions
	case errors.Is(err, quiz.ErrNotInProgress):
		return response.ErrQuizNotInProgress
	case errors.Is(err, quiz.ErrNotCurrentQuestion):
		return response.ErrNotCurrentQuestion
	case errors.Is(err, quiz.ErrNotReviewing):
		return response.ErrQuizNotInReview
	case errors.Is(err, proctor.ErrInsecureContext):
		return response.ErrInsecureContext
	case errors.Is(err, proctor.ErrCameraUnavailable):
		return response.ErrCameraUnavailable
	case errors.Is(err, proctor.ErrVerificationFailed):
		return response.ErrVerificationFailed
	default:
		return response.ErrInternal
	}
}
