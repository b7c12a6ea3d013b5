package guardrails

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prguard/prguard/internal/config"
	"github.com/prguard/prguard/internal/models"
)

func newTestEnforcer() *Enforcer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewEnforcer(logger)
}

func intPtr(n int) *int { return &n }

func prWithFiles(files ...models.ChangedFile) *models.PullRequest {
	return &models.PullRequest{Number: 5, ChangedFiles: files}
}

func TestEnforceMaxFilesChanged(t *testing.T) {
	pr := prWithFiles(
		models.ChangedFile{Path: "a.py"},
		models.ChangedFile{Path: "b.py"},
		models.ChangedFile{Path: "c.py"},
	)
	cfg := config.Default()
	cfg.Rules = []config.GuardrailRule{{
		Name:            "small-prs",
		MaxFilesChanged: intPtr(2),
		Message:         "Split into smaller PRs.",
	}}

	violations := newTestEnforcer().Enforce(pr, cfg)

	require.Len(t, violations, 1)
	assert.Equal(t, models.SeverityWarning, violations[0].Severity)
	assert.Contains(t, violations[0].Description, "3 files")
	assert.Equal(t, "Split into smaller PRs.", violations[0].Recommendation)
}

func TestEnforceMaxLinesChanged(t *testing.T) {
	pr := prWithFiles(
		models.ChangedFile{Path: "a.py", Additions: 300, Deletions: 150},
		models.ChangedFile{Path: "b.py", Additions: 100},
	)
	cfg := config.Default()
	cfg.Rules = []config.GuardrailRule{{Name: "line-cap", MaxLinesChanged: intPtr(500)}}

	violations := newTestEnforcer().Enforce(pr, cfg)

	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Description, "550 lines")
	assert.Equal(t, "Consider splitting this PR.", violations[0].Recommendation)
}

func TestEnforceAIAuthoredCondition(t *testing.T) {
	pr := prWithFiles(models.ChangedFile{Path: "a.py"}, models.ChangedFile{Path: "b.py"})
	cfg := config.Default()
	cfg.Rules = []config.GuardrailRule{{
		Name:            "ai-size",
		When:            config.WhenAIAuthored,
		MaxFilesChanged: intPtr(1),
	}}

	pr.Attribution = models.AttributionHuman
	assert.Empty(t, newTestEnforcer().Enforce(pr, cfg), "rule is gated to AI-authored PRs")

	pr.Attribution = models.AttributionAISuspected
	assert.Len(t, newTestEnforcer().Enforce(pr, cfg), 1)

	pr.Attribution = models.AttributionAIConfirmed
	assert.Len(t, newTestEnforcer().Enforce(pr, cfg), 1)
}

func TestEnforceMustNotContain(t *testing.T) {
	pr := prWithFiles(models.ChangedFile{
		Path:  "app/views.py",
		Patch: "@@ -1,2 +1,3 @@\n import os\n+print(\"debug\")\n return\n",
	})
	cfg := config.Default()
	cfg.Rules = []config.GuardrailRule{{
		Name:           "no-print",
		Pattern:        "app/**",
		MustNotContain: []string{"print("},
	}}

	violations := newTestEnforcer().Enforce(pr, cfg)
	require.Len(t, violations, 1)
	assert.Equal(t, "app/views.py", violations[0].FilePath)
	assert.Contains(t, violations[0].Description, "print(")
}

func TestEnforceMustNotContainIgnoresContextLines(t *testing.T) {
	pr := prWithFiles(models.ChangedFile{
		Path:  "app/views.py",
		Patch: "@@ -1,2 +1,2 @@\n print(\"existing\")\n+return 1\n",
	})
	cfg := config.Default()
	cfg.Rules = []config.GuardrailRule{{
		Name:           "no-print",
		MustNotContain: []string{"print("},
	}}

	assert.Empty(t, newTestEnforcer().Enforce(pr, cfg), "only added lines count")
}

func TestEnforceCannotImportFrom(t *testing.T) {
	pr := prWithFiles(models.ChangedFile{
		Path:  "api/handlers.py",
		Patch: "@@ -1,1 +1,2 @@\n import os\n+from internal.billing import charge\n",
	})
	cfg := config.Default()
	cfg.Rules = []config.GuardrailRule{{
		Name:             "layering",
		Pattern:          "api/**",
		CannotImportFrom: []string{"internal.billing"},
	}}

	violations := newTestEnforcer().Enforce(pr, cfg)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Description, "internal.billing")
}

func TestEnforceNoRules(t *testing.T) {
	pr := prWithFiles(models.ChangedFile{Path: "a.py"})
	assert.Empty(t, newTestEnforcer().Enforce(pr, config.Default()))
}
