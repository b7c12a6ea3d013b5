package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/output"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a PR for cross-PR conflicts",
	Long: `Analyzes one PR against every other open PR: overlapping files,
shared symbols, interface breaks, duplicated work, and regressions
against the decisions ledger. Prints a report and optionally posts it
back to the PR.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("repo", "r", "", "GitHub repo (owner/repo), auto-detected from git remote")
	analyzeCmd.Flags().IntP("pr", "p", 0, "PR number to analyze (defaults to the current branch's PR)")
	analyzeCmd.Flags().StringP("token", "t", "", "GitHub token (defaults to GITHUB_TOKEN)")
	analyzeCmd.Flags().StringP("format", "f", "terminal", "output format: terminal, json, markdown")
	analyzeCmd.Flags().Bool("llm", false, "enable LLM-powered semantic review")
	analyzeCmd.Flags().Bool("post-comment", false, "post the report as a PR comment")
	analyzeCmd.Flags().Bool("set-status", false, "set a commit status on the PR head")
	analyzeCmd.Flags().StringP("output", "o", "", "write the JSON report to a file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repoFlag, _ := cmd.Flags().GetString("repo")
	prNumber, _ := cmd.Flags().GetInt("pr")
	tokenFlag, _ := cmd.Flags().GetString("token")
	format, _ := cmd.Flags().GetString("format")
	llmFlag, _ := cmd.Flags().GetBool("llm")
	postComment, _ := cmd.Flags().GetBool("post-comment")
	setStatus, _ := cmd.Flags().GetBool("set-status")
	outputPath, _ := cmd.Flags().GetString("output")

	owner, repo, err := resolveRepo(ctx, repoFlag)
	if err != nil {
		return err
	}
	token, err := resolveToken(tokenFlag)
	if err != nil {
		return err
	}
	if llmFlag {
		cfg.LLM.Enabled = true
	}

	client := github.NewClient(token, owner, repo, cfg.GitHub.RateLimit)
	if prNumber == 0 {
		prNumber, err = currentBranchPR(ctx, client)
		if err != nil {
			return err
		}
	}

	eng, cleanup, err := buildEngine(client)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := eng.AnalyzePR(ctx, prNumber)
	if err != nil {
		return err
	}

	switch format {
	case "terminal":
		output.NewTerminal(os.Stdout).DisplayReport(report)
	case "json":
		data, err := output.FormatJSONReport(report, true)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "markdown":
		fmt.Println(output.FormatComment(report, client.FullName()))
	default:
		return fmt.Errorf("unknown format %q; expected terminal, json, or markdown", format)
	}

	if outputPath != "" {
		if err := output.WriteJSONReport(report, outputPath); err != nil {
			return err
		}
	}
	if err := output.WriteActionOutputs(report); err != nil {
		logger.WithError(err).Warn("failed to write action outputs")
	}

	if postComment {
		body := output.FormatComment(report, client.FullName())
		if err := client.PostComment(ctx, prNumber, body); err != nil {
			return fmt.Errorf("posting comment: %w", err)
		}
		fmt.Println("✓ Comment posted to PR")
	}

	if setStatus {
		summary := output.Summarize(report)
		state := "success"
		if summary.Status == "fail" || report.RiskScore >= float64(cfg.RiskThreshold) {
			state = "failure"
		}
		description := fmt.Sprintf("Risk %s/100, %d conflict(s)",
			fmt.Sprintf("%.0f", report.RiskScore), summary.ConflictCount)
		if err := client.SetCommitStatus(ctx, report.PR.HeadSHA, state, description, ""); err != nil {
			return fmt.Errorf("setting commit status: %w", err)
		}
	}

	return nil
}
