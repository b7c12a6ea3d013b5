// Package output renders analysis reports for terminals, GitHub
// comments, machine-readable JSON, and SVG status badges.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/prguard/prguard/internal/models"
)

var (
	colorCritical = lipgloss.Color("#E74C3C")
	colorWarning  = lipgloss.Color("#F4D03F")
	colorSafe     = lipgloss.Color("#2ECC71")
	colorMuted    = lipgloss.Color("#6C7A89")

	styleTitle    = lipgloss.NewStyle().Bold(true)
	styleCritical = lipgloss.NewStyle().Foreground(colorCritical)
	styleWarning  = lipgloss.NewStyle().Foreground(colorWarning)
	styleSafe     = lipgloss.NewStyle().Foreground(colorSafe)
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5DADE2"))
)

// Terminal writes human-readable reports to a writer, usually stdout.
type Terminal struct {
	w io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// DisplayReport prints the analysis result for a single PR.
func (t *Terminal) DisplayReport(report *models.ConflictReport) {
	if len(report.Conflicts) == 0 {
		fmt.Fprintf(t.w, "\n%s\n\n",
			styleSafe.Render(fmt.Sprintf("✓ PR #%d has no cross-PR conflicts!", report.PR.Number)))
		return
	}

	fmt.Fprintf(t.w, "\n%s\n", styleTitle.Render(fmt.Sprintf("PRGuard Report: PR #%d", report.PR.Number)))
	fmt.Fprintf(t.w, "Risk Score: %s\n\n", riskStyle(report.RiskScore).Render(fmt.Sprintf("%.0f/100", report.RiskScore)))

	for _, c := range report.Conflicts {
		style := severityStyle(c.Severity)
		fmt.Fprintf(t.w, "  %s %s with #%d\n",
			style.Render("● "+strings.ToUpper(string(c.Severity))),
			c.Type, c.TargetPR)
		fmt.Fprintf(t.w, "    File: %s\n", c.FilePath)
		if c.SymbolName != "" {
			fmt.Fprintf(t.w, "    Symbol: %s\n", c.SymbolName)
		}
		fmt.Fprintf(t.w, "    %s\n", c.Description)
		fmt.Fprintf(t.w, "    %s\n\n", styleMuted.Render("→ "+c.Recommendation))
	}

	if len(report.NoConflictPRs) > 0 {
		nums := append([]int(nil), report.NoConflictPRs...)
		sort.Ints(nums)
		refs := make([]string, len(nums))
		for i, n := range nums {
			refs[i] = fmt.Sprintf("#%d", n)
		}
		fmt.Fprintf(t.w, "%s %s\n\n",
			styleSafe.Render("✓ No conflicts with:"), strings.Join(refs, ", "))
	}
}

// DisplayDashboard prints a risk table for all open PRs, highest risk first.
func (t *Terminal) DisplayDashboard(reports []*models.ConflictReport, repoName string) {
	sorted := append([]*models.ConflictReport(nil), reports...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RiskScore > sorted[j].RiskScore
	})

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleMuted).
		Headers("PR", "Title", "Risk", "Conflicts", "AI?").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, r := range sorted {
		ai := ""
		if r.PR.Attribution.IsAI() {
			ai = "🤖"
		}
		tbl.Row(
			fmt.Sprintf("#%d", r.PR.Number),
			truncate(r.PR.Title, 40),
			riskStyle(r.RiskScore).Render(fmt.Sprintf("%.0f", r.RiskScore)),
			fmt.Sprintf("%d", len(r.Conflicts)),
			ai,
		)
	}

	fmt.Fprintf(t.w, "\n%s\n%s\n", styleTitle.Render("PR Risk Dashboard: "+repoName), tbl.Render())
}

// PRRef pairs a PR number with its title for collision-map rendering.
type PRRef struct {
	Number int
	Title  string
}

// DisplayCollisionMap prints a matrix of shared-file counts between PRs.
// The matrix maps source PR number to target PR number to file count.
func (t *Terminal) DisplayCollisionMap(prs []PRRef, overlaps map[int]map[int]int) {
	headers := []string{"PR"}
	for _, pr := range prs {
		headers = append(headers, fmt.Sprintf("#%d", pr.Number))
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleMuted).
		Headers(headers...)

	for _, a := range prs {
		row := []string{fmt.Sprintf("#%d %s", a.Number, truncate(a.Title, 30))}
		for _, b := range prs {
			switch {
			case a.Number == b.Number:
				row = append(row, "-")
			case overlaps[a.Number][b.Number] > 0:
				row = append(row, styleCritical.Render(
					fmt.Sprintf("%d file(s)", overlaps[a.Number][b.Number])))
			default:
				row = append(row, styleSafe.Render("✓"))
			}
		}
		tbl.Row(row...)
	}

	fmt.Fprintf(t.w, "\n%s\n%s\n", styleTitle.Render("PR Collision Map"), tbl.Render())
}

func severityStyle(s models.ConflictSeverity) lipgloss.Style {
	switch s {
	case models.SeverityCritical:
		return styleCritical
	case models.SeverityWarning:
		return styleWarning
	default:
		return styleMuted
	}
}

func riskStyle(score float64) lipgloss.Style {
	switch {
	case score >= RiskHigh:
		return styleCritical
	case score >= RiskMedium:
		return styleWarning
	default:
		return styleSafe
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
