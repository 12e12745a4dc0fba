package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	constants "whatbeats/internal/constants"
	"whatbeats/internal/game"
	"whatbeats/internal/store"
)

type yesArbiter struct{}

func (yesArbiter) Verdict(_ context.Context, _, _ string) bool { return true }

type noArbiter struct{}

func (noArbiter) Verdict(_ context.Context, _, _ string) bool { return false }

func newTestRouter(arbiter game.Arbiter) (*gin.Engine, *store.MemorySessionStore) {
	gin.SetMode(gin.TestMode)

	sessions := store.NewMemorySessionStore(time.Hour)
	engine := game.NewEngine(sessions, nil, arbiter, time.Second)
	h := &Handler{Engine: engine, Sessions: sessions, StartTime: time.Now()}

	router := gin.New()
	router.GET(constants.RouteRoot, h.Root)
	router.POST(constants.RouteGuess, h.Guess)
	router.GET(constants.RouteHistory, h.History)
	router.GET(constants.RouteHealthz, h.Healthz)
	return router, sessions
}

func postGuess(t *testing.T, router *gin.Engine, path string, body map[string]any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return w, got
}

func TestGuessFlowOverHTTP(t *testing.T) {
	router, _ := newTestRouter(yesArbiter{})

	w, got := postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Rock", "user_guess": "Paper",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "accepted", got["outcome"])
	assert.Equal(t, "Paper", got["next_word"])
	assert.Equal(t, float64(1), got["score"])
	assert.Equal(t, false, got["game_over"])
	sessionID, _ := got["session_id"].(string)
	require.NotEmpty(t, sessionID)

	w, got = postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Paper", "user_guess": "Scissors", "session_id": sessionID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), got["score"])

	w, got = postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Scissors", "user_guess": "Paper", "session_id": sessionID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "duplicate_game_over", got["outcome"])
	assert.Equal(t, true, got["game_over"])
	assert.Equal(t, float64(2), got["score"])
}

func TestGuessValidation(t *testing.T) {
	router, _ := newTestRouter(yesArbiter{})

	w, got := postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Rock",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, constants.ErrorCodeEmptyGuess, got["error"])
}

func TestGuessStatusMapping(t *testing.T) {
	router, _ := newTestRouter(yesArbiter{})

	// No session, wrong starting word.
	w, got := postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Mountain", "user_guess": "Pickaxe",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, constants.ErrorCodeMissingSession, got["error"])

	// Unknown session against a non-initial word.
	w, got = postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Paper", "user_guess": "Scissors", "session_id": "gone",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, constants.ErrorCodeSessionNotFound, got["error"])

	// Stale current word on a real session.
	_, accepted := postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Rock", "user_guess": "Paper",
	})
	w, got = postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Rock", "user_guess": "Scissors", "session_id": accepted["session_id"],
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, constants.ErrorCodeCurrentWordMismatch, got["error"])
}

func TestRejectedGuessIsNormalResponse(t *testing.T) {
	router, _ := newTestRouter(noArbiter{})

	w, got := postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Rock", "user_guess": "Feather",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rejected", got["outcome"])
	assert.Equal(t, "Rock", got["next_word"])
	assert.Equal(t, float64(0), got["score"])
}

func TestProfaneGuessRejectedBeforeEngine(t *testing.T) {
	router, sessions := newTestRouter(yesArbiter{})

	w, got := postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Rock", "user_guess": "shit",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, constants.ErrorCodeProfaneGuess, got["error"])
	assert.Zero(t, sessions.Count(), "moderated guess must not touch the stores")
}

func TestHistoryEndpoint(t *testing.T) {
	router, _ := newTestRouter(yesArbiter{})

	_, accepted := postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Rock", "user_guess": "Paper",
	})
	sessionID := accepted["session_id"].(string)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/game/"+sessionID+"/history", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var hist struct {
		Chain []string `json:"chain"`
		Score int      `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.Equal(t, []string{"Paper"}, hist.Chain)
	assert.Equal(t, 1, hist.Score)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/game/unknown/history", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPersonaMessages(t *testing.T) {
	router, _ := newTestRouter(noArbiter{})

	_, serious := postGuess(t, router, constants.RouteGuess, map[string]any{
		"current_word": "Rock", "user_guess": "Feather",
	})
	_, cheery := postGuess(t, router, constants.RouteGuess+"?persona=cheery", map[string]any{
		"current_word": "Rock", "user_guess": "Feather",
	})
	assert.NotEqual(t, serious["message"], cheery["message"])
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(yesArbiter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, constants.RouteHealthz, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, "disabled", got["counter_store"])
}
