package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/output"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show risk scores for all open PRs",
	RunE:  runDashboard,
}

func init() {
	dashboardCmd.Flags().StringP("repo", "r", "", "GitHub repo (owner/repo)")
	dashboardCmd.Flags().StringP("token", "t", "", "GitHub token (defaults to GITHUB_TOKEN)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repoFlag, _ := cmd.Flags().GetString("repo")
	tokenFlag, _ := cmd.Flags().GetString("token")

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

	reports, err := eng.AnalyzeAllOpenPRs(ctx)
	if err != nil {
		return err
	}

	output.NewTerminal(os.Stdout).DisplayDashboard(reports, client.FullName())
	return nil
}
