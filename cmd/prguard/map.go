package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/output"
)

var mapCmd = &cobra.Command{
	Use:     "map",
	Aliases: []string{"collisions"},
	Short:   "Show the collision map of all open PRs",
	Long: `Prints a matrix of file overlaps between every pair of open PRs,
so you can see at a glance which PRs are heading for the same files.`,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringP("repo", "r", "", "GitHub repo (owner/repo)")
	mapCmd.Flags().StringP("token", "t", "", "GitHub token (defaults to GITHUB_TOKEN)")
}

func runMap(cmd *cobra.Command, args []string) error {
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

	prs, matrix, err := eng.OverlapMatrix(ctx)
	if err != nil {
		return err
	}

	refs := make([]output.PRRef, len(prs))
	for i, pr := range prs {
		refs[i] = output.PRRef{Number: pr.Number, Title: pr.Title}
	}
	output.NewTerminal(os.Stdout).DisplayCollisionMap(refs, matrix)
	return nil
}
