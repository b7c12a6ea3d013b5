package llm

import (
	"context"
	"errors"
	"io"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prguard/prguard/internal/models"
)

type fakeCompleter struct {
	content string
	err     error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newTestReviewer(c completer) *Reviewer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Reviewer{client: c, model: "gpt-4o-mini", logger: logger}
}

func review(r *Reviewer) *models.Conflict {
	return r.ReviewBehavioralConflict(context.Background(),
		"login", "auth.py", 1, "+ source diff", 2, "+ target diff")
}

func TestReviewIncompatibleChanges(t *testing.T) {
	r := newTestReviewer(&fakeCompleter{content: `{
		"compatible": false,
		"severity": "critical",
		"explanation": "Both changes alter the session token format differently.",
		"recommendation": "Agree on one token format before merging."
	}`})

	c := review(r)
	require.NotNil(t, c)
	assert.Equal(t, models.ConflictBehavioral, c.Type)
	assert.Equal(t, models.SeverityCritical, c.Severity)
	assert.Equal(t, "login", c.SymbolName)
	assert.Contains(t, c.Description, "token format")
}

func TestReviewCompatibleChangesReturnsNil(t *testing.T) {
	r := newTestReviewer(&fakeCompleter{content: `{"compatible": true}`})
	assert.Nil(t, review(r))
}

func TestReviewAPIFailureDegrades(t *testing.T) {
	r := newTestReviewer(&fakeCompleter{err: errors.New("rate limited")})
	assert.Nil(t, review(r), "model failure keeps the structural verdict")
}

func TestReviewMalformedVerdictDegrades(t *testing.T) {
	r := newTestReviewer(&fakeCompleter{content: "not json at all"})
	assert.Nil(t, review(r))
}

func TestReviewUnknownSeverityDefaultsToWarning(t *testing.T) {
	r := newTestReviewer(&fakeCompleter{content: `{"compatible": false, "severity": "weird"}`})
	c := review(r)
	require.NotNil(t, c)
	assert.Equal(t, models.SeverityWarning, c.Severity)
	assert.NotEmpty(t, c.Description)
	assert.NotEmpty(t, c.Recommendation)
}
