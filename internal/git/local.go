package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Local runs git operations against a repository on disk. Used when
// prguard runs from a checkout and needs to discover the repository
// identity or read content without hitting the network.
type Local struct {
	repoPath string
}

// NewLocal opens a local repository.
func NewLocal(repoPath string) (*Local, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(abs, ".git")); err != nil {
		return nil, fmt.Errorf("not a git repository: %s", abs)
	}
	return &Local{repoPath: abs}, nil
}

// CurrentBranch returns the checked-out branch name.
func (l *Local) CurrentBranch(ctx context.Context) (string, error) {
	out, err := l.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RemoteURL returns the origin remote URL, or empty when unset.
func (l *Local) RemoteURL(ctx context.Context) string {
	out, err := l.run(ctx, "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// RepoFullName extracts "owner/repo" from the origin remote. Handles
// SSH (git@github.com:owner/repo.git) and HTTPS forms.
func (l *Local) RepoFullName(ctx context.Context) (string, bool) {
	url := l.RemoteURL(ctx)
	if url == "" {
		return "", false
	}
	return ParseRepoFullName(url)
}

// ParseRepoFullName extracts "owner/repo" from a git remote URL.
func ParseRepoFullName(url string) (string, bool) {
	if strings.HasPrefix(url, "git@") {
		if idx := strings.LastIndex(url, ":"); idx >= 0 {
			return strings.TrimSuffix(url[idx+1:], ".git"), true
		}
		return "", false
	}
	if idx := strings.Index(url, "github.com/"); idx >= 0 {
		name := strings.TrimSuffix(url[idx+len("github.com/"):], ".git")
		name = strings.TrimSuffix(name, "/")
		if strings.Count(name, "/") == 1 {
			return name, true
		}
	}
	return "", false
}

func (l *Local) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = l.repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
