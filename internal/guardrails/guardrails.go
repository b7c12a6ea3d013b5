package guardrails

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/prguard/prguard/internal/config"
	"github.com/prguard/prguard/internal/depgraph"
	"github.com/prguard/prguard/internal/models"
)

// Enforcer checks PRs against the repository's guardrail rules.
type Enforcer struct {
	logger *logrus.Logger
}

func NewEnforcer(logger *logrus.Logger) *Enforcer {
	return &Enforcer{logger: logger}
}

// Enforce runs every configured rule against the PR and returns the
// violations as conflicts. Rule conditions were validated at config
// load, so an unmatched condition here means the rule simply does not
// apply.
func (e *Enforcer) Enforce(pr *models.PullRequest, cfg *config.Config) []models.Conflict {
	var violations []models.Conflict
	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if !ruleApplies(rule, pr) {
			continue
		}
		violations = append(violations, e.checkRule(pr, rule)...)
	}
	if len(violations) > 0 {
		e.logger.WithFields(logrus.Fields{
			"pr":         pr.Number,
			"violations": len(violations),
		}).Info("guardrail violations found")
	}
	return violations
}

func ruleApplies(rule *config.GuardrailRule, pr *models.PullRequest) bool {
	switch rule.When {
	case config.WhenAIAuthored:
		return pr.Attribution.IsAI()
	default:
		return true
	}
}

func (e *Enforcer) checkRule(pr *models.PullRequest, rule *config.GuardrailRule) []models.Conflict {
	var violations []models.Conflict

	matching := matchingFiles(pr, rule.Pattern)

	if rule.MaxFilesChanged != nil && len(pr.ChangedFiles) > *rule.MaxFilesChanged {
		violations = append(violations, violation(pr, rule,
			fmt.Sprintf("PR changes %d files, exceeding the limit of %d. Rule: %s",
				len(pr.ChangedFiles), *rule.MaxFilesChanged, rule.Name)))
	}

	if rule.MaxLinesChanged != nil {
		totalLines := 0
		for _, f := range pr.ChangedFiles {
			totalLines += f.Additions + f.Deletions
		}
		if totalLines > *rule.MaxLinesChanged {
			violations = append(violations, violation(pr, rule,
				fmt.Sprintf("PR changes %d lines, exceeding the limit of %d. Rule: %s",
					totalLines, *rule.MaxLinesChanged, rule.Name)))
		}
	}

	if len(rule.MustNotContain) > 0 {
		violations = append(violations, e.checkForbiddenContent(pr, rule, matching)...)
	}

	if len(rule.CannotImportFrom) > 0 {
		violations = append(violations, e.checkForbiddenImports(pr, rule, matching)...)
	}

	return violations
}

// checkForbiddenContent scans the added lines of matching files for
// banned substrings.
func (e *Enforcer) checkForbiddenContent(pr *models.PullRequest, rule *config.GuardrailRule, matching map[string]bool) []models.Conflict {
	var violations []models.Conflict
	for _, f := range pr.ChangedFiles {
		if !matching[f.Path] || f.Patch == "" {
			continue
		}
		for _, banned := range rule.MustNotContain {
			if addedLinesContain(f.Patch, banned) {
				violations = append(violations, fileViolation(pr, rule, f.Path,
					fmt.Sprintf("`%s` introduces forbidden content %q. Rule: %s",
						f.Path, banned, rule.Name)))
			}
		}
	}
	return violations
}

// checkForbiddenImports flags added import lines that pull from
// disallowed modules.
func (e *Enforcer) checkForbiddenImports(pr *models.PullRequest, rule *config.GuardrailRule, matching map[string]bool) []models.Conflict {
	var violations []models.Conflict
	for _, f := range pr.ChangedFiles {
		if !matching[f.Path] || f.Patch == "" {
			continue
		}
		var added strings.Builder
		for _, line := range strings.Split(f.Patch, "\n") {
			if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
				added.WriteString(line[1:])
				added.WriteByte('\n')
			}
		}
		for _, imported := range depgraph.ExtractImports(added.String(), f.Path) {
			for _, banned := range rule.CannotImportFrom {
				if importMatches(imported, banned) {
					violations = append(violations, fileViolation(pr, rule, f.Path,
						fmt.Sprintf("`%s` imports from `%s`, which rule %s forbids.",
							f.Path, imported, rule.Name)))
				}
			}
		}
	}
	return violations
}

func importMatches(target, banned string) bool {
	if target == banned || strings.HasPrefix(target, banned+"/") || strings.HasPrefix(target, banned+".") {
		return true
	}
	if ok, _ := doublestar.Match(banned, target); ok {
		return true
	}
	return false
}

func addedLinesContain(patch, needle string) bool {
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") && strings.Contains(line, needle) {
			return true
		}
	}
	return false
}

func matchingFiles(pr *models.PullRequest, pattern string) map[string]bool {
	matching := make(map[string]bool, len(pr.ChangedFiles))
	for _, f := range pr.ChangedFiles {
		if pattern == "" {
			matching[f.Path] = true
			continue
		}
		if ok, _ := doublestar.Match(pattern, f.Path); ok {
			matching[f.Path] = true
		} else if ok, _ := doublestar.Match(pattern, filepath.Base(f.Path)); ok {
			matching[f.Path] = true
		}
	}
	return matching
}

func violation(pr *models.PullRequest, rule *config.GuardrailRule, description string) models.Conflict {
	return fileViolation(pr, rule, "<repo>", description)
}

func fileViolation(pr *models.PullRequest, rule *config.GuardrailRule, path, description string) models.Conflict {
	recommendation := rule.Message
	if recommendation == "" {
		recommendation = "Consider splitting this PR."
	}
	return models.Conflict{
		Type:           models.ConflictRegression,
		Severity:       models.SeverityWarning,
		SourcePR:       pr.Number,
		TargetPR:       pr.Number,
		FilePath:       path,
		Description:    description,
		Recommendation: recommendation,
	}
}
