// Package moderation screens guesses for profanity before they reach the
// game engine. The engine itself never re-checks.
package moderation

import (
	goaway "github.com/TwiN/go-away"

	util "whatbeats/internal/util"
)

// IsGuessClean reports whether the text is free of profanity.
func IsGuessClean(text string) bool {
	if goaway.IsProfane(text) {
		util.LogWarn("Profanity detected in guess")
		return false
	}
	return true
}
