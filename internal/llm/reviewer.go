package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/prguard/prguard/internal/models"
)

const maxDiffChars = 2000

const conflictPrompt = `You are analyzing two code changes from different pull requests
that modify the same function. Determine if these changes are semantically compatible.

Function: %s
File: %s

PR #%d changes:
` + "```" + `
%s
` + "```" + `

PR #%d changes:
` + "```" + `
%s
` + "```" + `

Analyze these changes and respond in JSON format:
{
  "compatible": true/false,
  "severity": "critical" | "warning" | "info",
  "explanation": "Brief explanation of why these changes do or don't conflict",
  "recommendation": "What the developer should do"
}

Rules:
- "critical": Changes are fundamentally incompatible; merging both will break the code
- "warning": Changes might interact unexpectedly; human review recommended
- "info": Changes overlap in the same file/function but are likely independent
`

type verdict struct {
	Compatible     bool   `json:"compatible"`
	Severity       string `json:"severity"`
	Explanation    string `json:"explanation"`
	Recommendation string `json:"recommendation"`
}

// completer is the slice of the OpenAI client the reviewer uses.
// Narrowed for testability.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Reviewer asks a language model whether two changes to the same
// function are semantically compatible. It refines behavioral
// conflicts the structural rules can only flag, never replaces them.
type Reviewer struct {
	client completer
	model  string
	logger *logrus.Logger
}

// NewReviewer creates a reviewer. baseURL overrides the API endpoint
// for self-hosted compatible servers; empty uses the default.
func NewReviewer(apiKey, model, baseURL string, logger *logrus.Logger) *Reviewer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Reviewer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// ReviewBehavioralConflict asks whether two diffs of one symbol are
// compatible. nil means no conflict confirmed: the model judged the
// changes compatible, or the call failed and the structural verdict
// stands on its own. Model failure never fails the analysis.
func (r *Reviewer) ReviewBehavioralConflict(
	ctx context.Context,
	symbolName, filePath string,
	sourcePR int, sourceDiff string,
	targetPR int, targetDiff string,
) *models.Conflict {
	prompt := fmt.Sprintf(conflictPrompt,
		symbolName, filePath,
		sourcePR, truncate(sourceDiff, maxDiffChars),
		targetPR, truncate(targetDiff, maxDiffChars))

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		MaxTokens: 500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		r.logger.WithError(err).Warn("semantic review unavailable, keeping structural verdict")
		return nil
	}
	if len(resp.Choices) == 0 {
		return nil
	}

	var v verdict
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &v); err != nil {
		r.logger.WithError(err).Warn("semantic review returned malformed verdict")
		return nil
	}
	if v.Compatible {
		return nil
	}

	explanation := v.Explanation
	if explanation == "" {
		explanation = "Potential behavioral conflict detected by semantic analysis."
	}
	recommendation := v.Recommendation
	if recommendation == "" {
		recommendation = "Review both changes before merging."
	}

	return &models.Conflict{
		Type:           models.ConflictBehavioral,
		Severity:       mapSeverity(v.Severity),
		SourcePR:       sourcePR,
		TargetPR:       targetPR,
		FilePath:       filePath,
		SymbolName:     symbolName,
		Description:    explanation,
		Recommendation: recommendation,
	}
}

func mapSeverity(s string) models.ConflictSeverity {
	switch s {
	case "critical":
		return models.SeverityCritical
	case "info":
		return models.SeverityInfo
	default:
		return models.SeverityWarning
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
