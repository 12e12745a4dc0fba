package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	constants "whatbeats/internal/constants"
	"whatbeats/internal/models"
)

// Persona flavoring is presentation only: the engine hands back a structured
// outcome and everything below is string composition on top of it.

func personaFor(c *gin.Context) string {
	if c.Query("persona") == constants.PersonaCheery {
		return constants.PersonaCheery
	}
	return constants.PersonaSerious
}

func composeMessage(persona string, outcome *models.GuessOutcome) string {
	switch outcome.Kind {
	case constants.OutcomeAccepted:
		return acceptedMessage(persona, outcome)
	case constants.OutcomeDuplicateGameOver:
		if persona == constants.PersonaCheery {
			return fmt.Sprintf("Oops, you already used %q! Game over at %d points -- great run!", outcome.NextWord, outcome.Score)
		}
		return fmt.Sprintf("Duplicate word. Game over. Final score: %d.", outcome.Score)
	default:
		if persona == constants.PersonaCheery {
			return fmt.Sprintf("Nope, that doesn't beat %q -- give it another shot!", outcome.NextWord)
		}
		return fmt.Sprintf("Verdict: no. %q stands. Try again.", outcome.NextWord)
	}
}

func acceptedMessage(persona string, outcome *models.GuessOutcome) string {
	base := fmt.Sprintf("%q it is. Score: %d.", outcome.NextWord, outcome.Score)
	if persona == constants.PersonaCheery {
		base = fmt.Sprintf("Yes! %q wins! You're at %d points!", outcome.NextWord, outcome.Score)
	}
	if outcome.GlobalCount != nil {
		base += fmt.Sprintf(" Played %d time(s) worldwide.", *outcome.GlobalCount)
	}
	return base
}

func moderationMessage(persona string) string {
	if persona == constants.PersonaCheery {
		return "Let's keep it friendly! Try a different word."
	}
	return "Guess rejected by content moderation."
}
