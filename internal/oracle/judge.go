// Package oracle wraps the external judgment capability that decides whether
// one word beats another.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	util "whatbeats/internal/util"
)

// Judge is the raw oracle: one call, one boolean, transport errors surfaced.
// The Adapter owns retry, deadline and fail-closed policy on top of it.
type Judge interface {
	Judge(ctx context.Context, currentWord, guess string) (bool, error)
}

const systemInstruction = "You are a game judge. Determine if concept X logically beats concept Y " +
	"in a creative guessing game like Rock Paper Scissors, but more abstract. " +
	"Respond ONLY with the word YES or the word NO. No explanations."

// GeminiJudge asks a Gemini model for the verdict.
type GeminiJudge struct {
	client *genai.Client
	model  string
}

func NewGeminiJudge(ctx context.Context, apiKey, model string) (*GeminiJudge, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiJudge{client: client, model: model}, nil
}

func (g *GeminiJudge) Judge(ctx context.Context, currentWord, guess string) (bool, error) {
	prompt := fmt.Sprintf("X = %s\nY = %s\nDoes X beat Y? Answer YES or NO.", guess, currentWord)

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.1),
		MaxOutputTokens:   10,
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return false, fmt.Errorf("gemini verdict call: %w", err)
	}

	return parseVerdict(resp.Text()), nil
}

// DenyAllJudge stands in when no oracle is configured: every guess loses.
type DenyAllJudge struct{}

func (DenyAllJudge) Judge(_ context.Context, _, _ string) (bool, error) {
	util.LogWarn("No oracle configured, denying verdict")
	return false, nil
}

// parseVerdict accepts only an unambiguous YES. Blocked, empty or unexpected
// output all read as NO; an erroneous acceptance would corrupt durable state
// while an erroneous rejection only costs the player a turn.
func parseVerdict(text string) bool {
	answer := strings.ToUpper(strings.TrimSpace(text))
	switch {
	case strings.HasPrefix(answer, "YES"):
		return true
	case strings.HasPrefix(answer, "NO"):
		return false
	default:
		if answer != "" {
			util.LogWarn("Oracle gave unexpected response %q, interpreting as NO", answer)
		}
		return false
	}
}
