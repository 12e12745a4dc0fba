package constants

import "time"

const (
	// InitialWord is the well-known word every chain conceptually starts from.
	InitialWord = "Rock"
)

const (
	DefaultSessionTTL      = time.Hour
	DefaultVerdictCacheTTL = 24 * time.Hour
	DefaultOracleDeadline  = 15 * time.Second
	DefaultTurnTimeout     = 18 * time.Second
	DefaultOracleAttempts  = 3
)

const (
	RouteRoot    = "/"
	RouteGuess   = "/game/guess"
	RouteHistory = "/game/:id/history"
	RouteHealthz = "/healthz"
)

const (
	OutcomeAccepted          = "accepted"
	OutcomeRejected          = "rejected"
	OutcomeDuplicateGameOver = "duplicate_game_over"
)

const (
	PersonaSerious = "serious"
	PersonaCheery  = "cheery"
)

const (
	ErrorCodeEmptyGuess          = "empty_guess"
	ErrorCodeProfaneGuess        = "profane_guess"
	ErrorCodeMissingSession      = "missing_session"
	ErrorCodeSessionNotFound     = "session_not_found"
	ErrorCodeCurrentWordMismatch = "current_word_mismatch"
	ErrorCodeStoreUnavailable    = "store_unavailable"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)
