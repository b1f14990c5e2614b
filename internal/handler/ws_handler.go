package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/middleware"
	"github.com/linguaprep/linguaprep-backend/internal/service"
	"github.com/linguaprep/linguaprep-backend/internal/session"
	ws "github.com/linguaprep/linguaprep-backend/internal/websocket"
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

// WSHandler streams answer capture over a WebSocket. Every message runs
// through the attempt's live session, so the wire protocol and the REST
// capture path share the same normalization, debounce, and submit guard.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/attempts/:attempt_id/stream
// Upgrades to WebSocket for real-time answer capture and submission.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	sess, err := h.attemptService.Session(c.Request.Context(), attemptID, claims.CandidateID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no active attempt"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("candidate_id", claims.CandidateID).
		Str("attempt_id", attemptID.String()).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionSetAnswer:
			h.handleSetAnswer(conn, sess, &msg)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, sess)
		case ws.ActionPing:
			_ = ws.WriteTyped(conn, ws.PongResponse{
				Event:        ws.EventPong,
				RemainingSec: sess.Remaining().Seconds(),
			})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}

		if sess.Submitted() {
			break
		}
	}
}

func (h *WSHandler) handleSetAnswer(conn *websocket.Conn, sess *session.Session, msg *ws.RequestPayload) {
	if msg.QID == "" {
		ws.WriteError(conn, "q_id is required")
		return
	}

	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		ws.WriteError(conn, "invalid q_id format")
		return
	}

	if err := sess.SetAnswer(questionID, msg.Value); err != nil {
		switch {
		case errors.Is(err, session.ErrUnknownQuestion):
			ws.WriteError(conn, "unknown question")
		case errors.Is(err, session.ErrAttemptClosed):
			ws.WriteError(conn, "attempt is finished")
		default:
			ws.WriteError(conn, "capture failed")
		}
		return
	}

	_ = ws.WriteTyped(conn, ws.AcceptedResponse{Event: ws.EventAccepted, QID: msg.QID})
}

func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, sess *session.Session) {
	if err := sess.Submit(context.Background(), false); err != nil {
		wsLog.Error().Err(err).Msg("Submit failed")
		ws.WriteError(conn, "submit failed, please retry")
		return
	}

	_ = ws.WriteTyped(conn, ws.SubmittedResponse{Event: ws.EventSubmitted})
}
