package models

import "errors"

// GuessRequest is one validated, moderated guess as handed to the engine.
type GuessRequest struct {
	CurrentWord string `json:"current_word" binding:"required"`
	UserGuess   string `json:"user_guess" binding:"required,min=1"`
	SessionID   string `json:"session_id"`
}

// GuessOutcome is the structured result of one guess. Kind selects which of
// the remaining fields are meaningful; rendering it into user-facing text is
// entirely the caller's job.
type GuessOutcome struct {
	Kind         string
	NextWord     string
	Score        int
	SessionID    string
	IsNewSession bool
	// GlobalCount is how many times the guess has ever been accepted across
	// all sessions. Nil when the counter store is absent or failed.
	GlobalCount *int64
}

// History is the stored view of one session.
type History struct {
	Chain []string `json:"chain"`
	Score int      `json:"score"`
}

// Protocol violations abort the guess with zero side effects. The handler
// layer maps each to a distinct status code so clients can recover.
var (
	ErrEmptyGuess          = errors.New("guess is empty")
	ErrMissingSession      = errors.New("no session id and current word is not the initial word")
	ErrSessionNotFound     = errors.New("session not found")
	ErrCurrentWordMismatch = errors.New("current word does not match the session chain")
	ErrStoreUnavailable    = errors.New("session store unavailable")
)
