// Package game implements the session/guess state machine: chain continuity,
// duplicate termination, and the at-most-once mutation of session state and
// global counters around an oracle verdict.
package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	constants "whatbeats/internal/constants"
	"whatbeats/internal/models"
	"whatbeats/internal/store"
	util "whatbeats/internal/util"
)

// Arbiter decides whether a guess beats the current word. It never fails:
// oracle trouble of any kind reads as NO.
type Arbiter interface {
	Verdict(ctx context.Context, currentWord, guess string) bool
}

// Counter is the best-effort global tally. A nil count means the tally was
// unavailable; it never blocks a guess.
type Counter interface {
	IncrementAndGet(ctx context.Context, word string) *int64
}

// Engine drives one guess at a time through the session rules. It holds no
// per-request state; everything is derived fresh from the stores.
type Engine struct {
	sessions    store.SessionStore
	counters    Counter
	arbiter     Arbiter
	initialWord string
	turnTimeout time.Duration
}

func NewEngine(sessions store.SessionStore, counters Counter, arbiter Arbiter, turnTimeout time.Duration) *Engine {
	return &Engine{
		sessions:    sessions,
		counters:    counters,
		arbiter:     arbiter,
		initialWord: constants.InitialWord,
		turnTimeout: turnTimeout,
	}
}

func normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// SubmitGuess runs the full state machine for one guess. Protocol violations
// return one of the models sentinel errors with zero side effects; every
// other path returns a structured outcome.
func (e *Engine) SubmitGuess(ctx context.Context, req models.GuessRequest) (*models.GuessOutcome, error) {
	guess := strings.TrimSpace(req.UserGuess)
	current := strings.TrimSpace(req.CurrentWord)
	sessionID := strings.TrimSpace(req.SessionID)

	if guess == "" {
		return nil, models.ErrEmptyGuess
	}

	fresh := sessionID == ""
	var chain []string
	var score int

	if sessionID != "" {
		exists, err := e.sessions.Exists(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("checking session %s: %w", sessionID, err)
		}
		if !exists {
			// An unknown id against the initial word is a fresh start;
			// anything else means the client's session is gone.
			if normalize(current) != normalize(e.initialWord) {
				return nil, models.ErrSessionNotFound
			}
			util.LogInfo("Unknown session %s dropped for fresh start", sessionID)
			sessionID = ""
			fresh = true
		} else {
			chain, err = e.sessions.History(ctx, sessionID)
			if err != nil {
				return nil, fmt.Errorf("reading session %s history: %w", sessionID, err)
			}
			score, err = e.sessions.Score(ctx, sessionID)
			if err != nil {
				return nil, fmt.Errorf("reading session %s score: %w", sessionID, err)
			}

			// The claimed current word must be the chain head (or the
			// initial word while the chain is still empty).
			last := e.initialWord
			if len(chain) > 0 {
				last = chain[len(chain)-1]
			}
			if normalize(last) != normalize(current) {
				return nil, models.ErrCurrentWordMismatch
			}

			if lo.ContainsBy(chain, func(w string) bool { return normalize(w) == normalize(guess) }) {
				util.LogInfo("Session %s repeated %q, game over at score %d", sessionID, guess, score)
				return &models.GuessOutcome{
					Kind:      constants.OutcomeDuplicateGameOver,
					NextWord:  guess,
					Score:     score,
					SessionID: sessionID,
				}, nil
			}
		}
	} else if normalize(current) != normalize(e.initialWord) {
		return nil, models.ErrMissingSession
	}

	// The turn ceiling spans the oracle call only; a timeout is a NO, never
	// a hang or an error to the caller.
	turnCtx, cancel := context.WithTimeout(ctx, e.turnTimeout)
	verdict := e.arbiter.Verdict(turnCtx, current, guess)
	cancel()

	if !verdict {
		next := current
		if fresh {
			next = e.initialWord
		}
		return &models.GuessOutcome{
			Kind:      constants.OutcomeRejected,
			NextWord:  next,
			Score:     score,
			SessionID: sessionID,
		}, nil
	}

	if fresh {
		sessionID = uuid.NewString()
		util.LogInfo("Minted new session %s", sessionID)
	}

	if err := e.sessions.AppendWord(ctx, sessionID, guess); err != nil {
		return nil, fmt.Errorf("appending %q to session %s: %w", guess, sessionID, err)
	}
	newScore, err := e.sessions.IncrementScore(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("incrementing session %s score: %w", sessionID, err)
	}

	var globalCount *int64
	if e.counters != nil {
		globalCount = e.counters.IncrementAndGet(ctx, guess)
	}

	return &models.GuessOutcome{
		Kind:         constants.OutcomeAccepted,
		NextWord:     guess,
		Score:        newScore,
		SessionID:    sessionID,
		IsNewSession: fresh,
		GlobalCount:  globalCount,
	}, nil
}

// History returns the chain and score for a session, or ErrSessionNotFound.
func (e *Engine) History(ctx context.Context, sessionID string) (*models.History, error) {
	exists, err := e.sessions.Exists(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("checking session %s: %w", sessionID, err)
	}
	if !exists {
		return nil, models.ErrSessionNotFound
	}

	chain, err := e.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading session %s history: %w", sessionID, err)
	}
	score, err := e.sessions.Score(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading session %s score: %w", sessionID, err)
	}
	if chain == nil {
		chain = []string{}
	}
	return &models.History{Chain: chain, Score: score}, nil
}
