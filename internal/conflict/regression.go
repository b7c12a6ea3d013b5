package conflict

import (
	"context"
	"fmt"
	"sort"

	"github.com/prguard/prguard/internal/models"
)

// DecisionFinder is the slice of the decisions ledger regression
// checking needs.
type DecisionFinder interface {
	FindRegressions(ctx context.Context, entityNames, filePaths []string) ([]models.Decision, error)
}

// DetectRegressions checks whether the PR reintroduces an entity a
// merged PR deliberately removed, or a file path a merged PR migrated
// away from. Ledger failure is a hard error; silently skipping the
// check would let regressions pass unnoticed.
func DetectRegressions(ctx context.Context, pr *models.PullRequest, ledger DecisionFinder) ([]models.Conflict, error) {
	var names []string
	for name := range pr.SymbolNames() {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(pr.ChangedFiles))
	for _, f := range pr.ChangedFiles {
		paths = append(paths, f.Path)
	}

	decisions, err := ledger.FindRegressions(ctx, names, paths)
	if err != nil {
		return nil, fmt.Errorf("regression check for PR #%d: %w", pr.Number, err)
	}

	conflicts := make([]models.Conflict, 0, len(decisions))
	for _, d := range decisions {
		conflicts = append(conflicts, decisionConflict(pr.Number, d))
	}
	return conflicts, nil
}

func decisionConflict(prNumber int, d models.Decision) models.Conflict {
	filePath := d.FilePath
	if filePath == "" {
		filePath = "<unknown>"
	}
	return models.Conflict{
		Type:       models.ConflictRegression,
		Severity:   models.SeverityWarning,
		SourcePR:   prNumber,
		TargetPR:   d.PRNumber,
		FilePath:   filePath,
		SymbolName: d.Entity,
		Description: fmt.Sprintf("This PR re-introduces `%s` which was deliberately %sd in PR #%d (%s).",
			d.Entity, d.Type, d.PRNumber, d.Description),
		Recommendation: fmt.Sprintf("Check if re-introducing `%s` is intentional. The original "+
			"change was made by @%s in PR #%d.", d.Entity, d.Author, d.PRNumber),
	}
}
