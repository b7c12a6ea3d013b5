package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/output"
)

var badgeCmd = &cobra.Command{
	Use:   "badge",
	Short: "Generate an SVG risk badge for a PR",
	Long: `Analyzes a PR and writes a shields.io-style SVG badge showing its
risk score, suitable for embedding in README files or PR comments.`,
	RunE: runBadge,
}

func init() {
	badgeCmd.Flags().StringP("repo", "r", "", "GitHub repo (owner/repo)")
	badgeCmd.Flags().IntP("pr", "p", 0, "PR number")
	badgeCmd.Flags().StringP("token", "t", "", "GitHub token (defaults to GITHUB_TOKEN)")
	badgeCmd.Flags().StringP("output", "o", "", "write the SVG to a file instead of stdout")
	badgeCmd.Flags().Bool("status", false, "render a pass/warn/fail badge instead of the score")
	badgeCmd.MarkFlagRequired("pr")
}

func runBadge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repoFlag, _ := cmd.Flags().GetString("repo")
	prNumber, _ := cmd.Flags().GetInt("pr")
	tokenFlag, _ := cmd.Flags().GetString("token")
	outputPath, _ := cmd.Flags().GetString("output")
	statusBadge, _ := cmd.Flags().GetBool("status")

	owner, repo, err := resolveRepo(ctx, repoFlag)
	if err != nil {
		return err
	}
	token, err := resolveToken(tokenFlag)
	if err != nil {
		return err
	}

	client := github.NewClient(token, owner, repo, cfg.GitHub.RateLimit)
	eng, cleanup, err := buildEngine(client)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := eng.AnalyzePR(ctx, prNumber)
	if err != nil {
		return err
	}

	var svg string
	if statusBadge {
		svg = output.StatusBadge(output.Summarize(report).Status)
	} else {
		svg = output.RiskBadge(report.RiskScore)
	}

	if outputPath != "" {
		return os.WriteFile(outputPath, []byte(svg), 0o644)
	}
	fmt.Println(svg)
	return nil
}
