package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prguard/prguard/internal/models"
)

// Risk score bands shared by every renderer.
const (
	RiskHigh   = 70.0
	RiskMedium = 40.0
)

var severityEmoji = map[models.ConflictSeverity]string{
	models.SeverityCritical: "🔴",
	models.SeverityWarning:  "⚠️",
	models.SeverityInfo:     "ℹ️",
}

var typeLabels = map[models.ConflictType]string{
	models.ConflictHard:        "Hard Conflict",
	models.ConflictInterface:   "Interface Conflict",
	models.ConflictBehavioral:  "Behavioral Conflict",
	models.ConflictDuplication: "Duplication Detected",
	models.ConflictTransitive:  "Transitive Conflict",
	models.ConflictRegression:  "Regression Detected",
}

// FormatComment renders a report as a GitHub Markdown comment.
//
// Layout rules: critical and warning conflicts appear prominently with a
// severity emoji and a recommendation, info conflicts collapse into a
// details block, and clean PRs are listed so reviewers see what was
// checked.
func FormatComment(report *models.ConflictReport, repoFullName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s PRGuard: Cross-PR Analysis\n\n", riskEmoji(report.RiskScore))

	if report.RiskScore > 0 {
		fmt.Fprintf(&b, "**Risk Score: %.0f/100** | %d conflict(s) detected\n\n",
			report.RiskScore, len(report.Conflicts))
	}

	for _, c := range report.Conflicts {
		if c.Severity == models.SeverityInfo {
			continue
		}
		b.WriteString(formatConflict(c, repoFullName))
		b.WriteString("\n")
	}

	var info []models.Conflict
	for _, c := range report.Conflicts {
		if c.Severity == models.SeverityInfo {
			info = append(info, c)
		}
	}
	if len(info) > 0 {
		fmt.Fprintf(&b, "<details>\n<summary>ℹ️ %d low-severity overlap(s)</summary>\n\n", len(info))
		for _, c := range info {
			b.WriteString(formatConflict(c, repoFullName))
			b.WriteString("\n")
		}
		b.WriteString("</details>\n\n")
	}

	if len(report.NoConflictPRs) > 0 {
		nums := append([]int(nil), report.NoConflictPRs...)
		sort.Ints(nums)
		refs := make([]string, len(nums))
		for i, n := range nums {
			refs[i] = fmt.Sprintf("#%d", n)
		}
		fmt.Fprintf(&b, "✅ **No conflicts with:** %s\n\n", strings.Join(refs, ", "))
	}

	if len(report.Conflicts) == 0 {
		b.WriteString("✅ **No cross-PR conflicts detected.** This PR is clear to review.\n\n")
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "<sub>Analysis completed in %dms | [PRGuard](https://github.com/prguard/prguard)</sub>",
		report.DurationMillis)

	return b.String()
}

func formatConflict(c models.Conflict, repoFullName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### %s %s with [#%d](https://github.com/%s/pull/%d)\n",
		severityEmoji[c.Severity], typeLabels[c.Type], c.TargetPR, repoFullName, c.TargetPR)
	fmt.Fprintf(&b, "**File:** `%s`\n", c.FilePath)
	if c.SymbolName != "" {
		fmt.Fprintf(&b, "**Symbol:** `%s`\n", c.SymbolName)
	}
	fmt.Fprintf(&b, "\n%s\n", c.Description)
	fmt.Fprintf(&b, "\n💡 **Recommendation:** %s\n", c.Recommendation)

	return b.String()
}

func riskEmoji(score float64) string {
	switch {
	case score >= RiskHigh:
		return "🔴"
	case score >= RiskMedium:
		return "🟡"
	default:
		return "🟢"
	}
}
