package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prguard/prguard/internal/cache"
	"github.com/prguard/prguard/internal/engine"
	"github.com/prguard/prguard/internal/git"
	"github.com/prguard/prguard/internal/github"
	"github.com/prguard/prguard/internal/ledger"
	"github.com/prguard/prguard/internal/llm"
)

// resolveRepo returns owner and repo from the --repo flag, the config
// file, or the origin remote of the current directory, in that order.
func resolveRepo(ctx context.Context, repoFlag string) (string, string, error) {
	if repoFlag != "" {
		return splitOwnerRepo(repoFlag)
	}
	if cfg.GitHub.Owner != "" && cfg.GitHub.Repo != "" {
		return cfg.GitHub.Owner, cfg.GitHub.Repo, nil
	}
	if local, err := git.NewLocal("."); err == nil {
		if full, ok := local.RepoFullName(ctx); ok {
			return splitOwnerRepo(full)
		}
	}
	return "", "", fmt.Errorf("repository not specified; use --repo owner/repo or run inside a clone")
}

func splitOwnerRepo(full string) (string, string, error) {
	parts := strings.SplitN(full, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q; expected owner/repo", full)
	}
	return parts[0], parts[1], nil
}

// currentBranchPR finds the open PR whose head branch matches the
// current branch of the working directory.
func currentBranchPR(ctx context.Context, client *github.Client) (int, error) {
	local, err := git.NewLocal(".")
	if err != nil {
		return 0, fmt.Errorf("PR number not specified and not inside a git repository; use --pr")
	}
	branch, err := local.CurrentBranch(ctx)
	if err != nil {
		return 0, fmt.Errorf("detecting current branch: %w", err)
	}

	prs, err := client.GetOpenPRs(ctx, cfg.MaxOpenPRs)
	if err != nil {
		return 0, fmt.Errorf("listing open PRs: %w", err)
	}
	for _, pr := range prs {
		if pr.HeadBranch == branch {
			return pr.Number, nil
		}
	}
	return 0, fmt.Errorf("no open PR found for branch %q; use --pr", branch)
}

// resolveToken returns the GitHub token from the --token flag or the
// loaded config, which already checks the environment and keychain.
func resolveToken(tokenFlag string) (string, error) {
	if tokenFlag != "" {
		return tokenFlag, nil
	}
	if cfg.GitHub.Token != "" {
		return cfg.GitHub.Token, nil
	}
	return "", fmt.Errorf("GitHub token not found; use --token, set GITHUB_TOKEN, or run prguard configure")
}

// buildEngine wires the engine with its optional collaborators. The
// returned cleanup closes the decisions ledger.
func buildEngine(client *github.Client) (*engine.Engine, func(), error) {
	opts := engine.Options{}
	cleanup := func() {}

	if cfg.CheckRegressions {
		led, err := ledger.Open(cfg.Ledger.Path, cfg.DecisionsLogDepth, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening decisions ledger: %w", err)
		}
		opts.Ledger = led
		cleanup = func() { led.Close() }
	}

	if cfg.LLM.Enabled && cfg.LLM.APIKey != "" {
		opts.Reviewer = llm.NewReviewer(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, logger)
	}

	if cfg.Cache.Directory != "" {
		store, err := cache.OpenStore(cfg.Cache.Directory, cfg.Cache.TTL)
		if err != nil {
			logger.WithError(err).Warn("analysis cache unavailable, continuing without it")
		} else {
			opts.Store = store
			ledgerCleanup := cleanup
			cleanup = func() {
				store.Close()
				ledgerCleanup()
			}
		}
	}

	eng, err := engine.New(client, cfg, logger, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}
