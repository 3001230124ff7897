package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/bpcprep/examportal-backend/internal/exam"
	"github.com/bpcprep/examportal-backend/internal/middleware"
	"github.com/bpcprep/examportal-backend/internal/service"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// clockMessage is one tick pushed to the exam clock stream.
type clockMessage struct {
	TimeRemainingSeconds int  `json:"time_remaining_seconds"`
	Submitted            bool `json:"submitted"`
}

// WSHandler streams the authoritative exam clock over WebSocket so clients
// do not drift from the server's view of the deadline.
type WSHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ExamClockStream godoc
// WS /ws/v1/exam/clock?token=...
// Pushes the remaining time once per second. The final message carries
// submitted=true (the auto-submit fired or the user submitted elsewhere),
// after which the connection closes.
func (h *WSHandler) ExamClockStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// Reader goroutine: we never expect client messages, but reading is
	// required to notice the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			remaining, submitted, err := h.examService.TimeRemaining(c.Request.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, exam.ErrNoSession) {
					h.log.Warn().Err(err).Int("user_id", claims.UserID).Msg("Clock stream read failed")
				}
				return
			}

			msg := clockMessage{TimeRemainingSeconds: remaining, Submitted: submitted}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}

			if submitted || remaining == 0 {
				return
			}
		}
	}
}
