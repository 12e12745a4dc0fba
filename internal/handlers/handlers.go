package handlers

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	constants "whatbeats/internal/constants"
	"whatbeats/internal/game"
	"whatbeats/internal/models"
	"whatbeats/internal/moderation"
	"whatbeats/internal/store"
	util "whatbeats/internal/util"
)

// GuessResponse is the wire shape of a guess result.
type GuessResponse struct {
	Message     string `json:"message"`
	Outcome     string `json:"outcome"`
	NextWord    string `json:"next_word,omitempty"`
	Score       int    `json:"score"`
	GameOver    bool   `json:"game_over"`
	SessionID   string `json:"session_id,omitempty"`
	NewSession  bool   `json:"new_session,omitempty"`
	GlobalCount *int64 `json:"global_count,omitempty"`
}

type Handler struct {
	Engine    *game.Engine
	Sessions  *store.MemorySessionStore
	Counters  *store.GlobalCounterStore
	StartTime time.Time
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the 'What Beats Rock?' game API!",
		"guess":   constants.RouteGuess,
	})
}

func (h *Handler) Guess(c *gin.Context) {
	var req models.GuessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   constants.ErrorCodeEmptyGuess,
			"message": "current_word and a non-empty user_guess are required",
		})
		return
	}

	persona := personaFor(c)

	if !moderation.IsGuessClean(req.UserGuess) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   constants.ErrorCodeProfaneGuess,
			"message": moderationMessage(persona),
		})
		return
	}

	outcome, err := h.Engine.SubmitGuess(c.Request.Context(), req)
	if err != nil {
		h.renderGuessError(c, err)
		return
	}

	c.JSON(http.StatusOK, GuessResponse{
		Message:     composeMessage(persona, outcome),
		Outcome:     outcome.Kind,
		NextWord:    outcome.NextWord,
		Score:       outcome.Score,
		GameOver:    outcome.Kind == constants.OutcomeDuplicateGameOver,
		SessionID:   outcome.SessionID,
		NewSession:  outcome.IsNewSession,
		GlobalCount: outcome.GlobalCount,
	})
}

func (h *Handler) renderGuessError(c *gin.Context, err error) {
	reqID, _ := c.Request.Context().Value(constants.RequestIDKey).(string)

	switch {
	case errors.Is(err, models.ErrEmptyGuess):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   constants.ErrorCodeEmptyGuess,
			"message": "guess cannot be empty",
		})
	case errors.Is(err, models.ErrMissingSession):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   constants.ErrorCodeMissingSession,
			"message": "start from " + constants.InitialWord + " or supply your session id",
		})
	case errors.Is(err, models.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   constants.ErrorCodeSessionNotFound,
			"message": "session expired or unknown; start over from " + constants.InitialWord,
		})
	case errors.Is(err, models.ErrCurrentWordMismatch):
		c.JSON(http.StatusConflict, gin.H{
			"error":   constants.ErrorCodeCurrentWordMismatch,
			"message": "current word does not match this session's chain",
		})
	case errors.Is(err, models.ErrStoreUnavailable):
		util.LogWarn("[request_id=%v] Session store unavailable: %v", reqID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   constants.ErrorCodeStoreUnavailable,
			"message": "session storage is unavailable, try again shortly",
		})
	default:
		util.LogWarn("[request_id=%v] Unexpected guess error: %v", reqID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func (h *Handler) History(c *gin.Context) {
	hist, err := h.Engine.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": constants.ErrorCodeSessionNotFound})
			return
		}
		h.renderGuessError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

func (h *Handler) Healthz(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	counterStatus := "disabled"
	if h.Counters != nil {
		counterStatus = "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		if err := h.Counters.Ping(ctx); err != nil {
			counterStatus = "unreachable"
		}
		cancel()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"active_sessions": h.Sessions.Count(),
		"counter_store":   counterStatus,
		"memory_alloc_mb": m.Alloc / 1024 / 1024,
		"memory_sys_mb":   m.Sys / 1024 / 1024,
		"memory_gc_count": m.NumGC,
		"uptime":          util.FormatUptime(time.Since(h.StartTime)),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}
