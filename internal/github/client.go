package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/time/rate"

	"github.com/prguard/prguard/internal/errors"
	"github.com/prguard/prguard/internal/models"
)

// CommentMarker identifies report comments so reruns update in place
// instead of stacking new comments.
const CommentMarker = "<!-- prguard-report -->"

// StatusContext is the commit-status context name.
const StatusContext = "prguard/cross-pr-analysis"

// Client wraps the GitHub API with rate limiting.
type Client struct {
	client      *github.Client
	owner       string
	repo        string
	rateLimiter *rate.Limiter
}

// NewClient creates a client for one repository.
func NewClient(token, owner, repo string, rateLimit int) *Client {
	if rateLimit <= 0 {
		rateLimit = 10
	}
	return &Client{
		client:      github.NewClient(nil).WithAuthToken(token),
		owner:       owner,
		repo:        repo,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
	}
}

// FullName returns "owner/repo".
func (c *Client) FullName() string {
	return fmt.Sprintf("%s/%s", c.owner, c.repo)
}

// GetOpenPRs fetches open PRs, most recently updated first, capped at
// maxCount.
func (c *Client) GetOpenPRs(ctx context.Context, maxCount int) ([]*models.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:     "open",
		Sort:      "updated",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var result []*models.PullRequest
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		pulls, resp, err := c.client.PullRequests.List(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, errors.NetworkError(err, "failed to list open PRs")
		}
		for _, pr := range pulls {
			result = append(result, prToModel(pr))
			if len(result) >= maxCount {
				return result, nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

// GetPR fetches a single PR.
func (c *Client) GetPR(ctx context.Context, number int) (*models.PullRequest, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	pr, _, err := c.client.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, errors.NetworkErrorf(err, "failed to fetch PR #%d", number)
	}
	return prToModel(pr), nil
}

// GetPRFiles fetches the changed-file list of a PR, including raw
// patch text where GitHub provides it.
func (c *Client) GetPRFiles(ctx context.Context, number int) ([]models.ChangedFile, error) {
	opts := &github.ListOptions{PerPage: 100}
	var files []models.ChangedFile
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		ghFiles, resp, err := c.client.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, errors.NetworkErrorf(err, "failed to list files for PR #%d", number)
		}
		for _, f := range ghFiles {
			files = append(files, models.ChangedFile{
				Path:         f.GetFilename(),
				Status:       mapStatus(f.GetStatus()),
				Additions:    f.GetAdditions(),
				Deletions:    f.GetDeletions(),
				Patch:        f.GetPatch(),
				PreviousPath: f.GetPreviousFilename(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

// GetFileContent fetches file content at a ref. Absent content (a
// deleted path, a directory, a ref without the file) is nil with no
// error: downstream treats it as "no entities changed."
func (c *Client) GetFileContent(ctx context.Context, path, ref string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	file, _, resp, err := c.client.Repositories.GetContents(ctx, c.owner, c.repo, path,
		&github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, nil
		}
		return nil, errors.NetworkErrorf(err, "failed to fetch %s at %s", path, ref)
	}
	if file == nil {
		// Directory listing
		return nil, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, nil
	}
	return []byte(content), nil
}

// PostComment posts the report comment, updating the existing marked
// comment when one exists.
func (c *Client) PostComment(ctx context.Context, number int, body string) error {
	marked := CommentMarker + "\n" + body

	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		comments, resp, err := c.client.Issues.ListComments(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return errors.NetworkErrorf(err, "failed to list comments on PR #%d", number)
		}
		for _, comment := range comments {
			if strings.Contains(comment.GetBody(), CommentMarker) {
				if err := c.rateLimiter.Wait(ctx); err != nil {
					return fmt.Errorf("rate limiter: %w", err)
				}
				_, _, err := c.client.Issues.EditComment(ctx, c.owner, c.repo, comment.GetID(),
					&github.IssueComment{Body: &marked})
				if err != nil {
					return errors.NetworkErrorf(err, "failed to update comment on PR #%d", number)
				}
				return nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	_, _, err := c.client.Issues.CreateComment(ctx, c.owner, c.repo, number,
		&github.IssueComment{Body: &marked})
	if err != nil {
		return errors.NetworkErrorf(err, "failed to comment on PR #%d", number)
	}
	return nil
}

// SetCommitStatus sets a commit status (success, failure, pending,
// error). Descriptions are truncated to GitHub's 140-char limit.
func (c *Client) SetCommitStatus(ctx context.Context, sha, state, description, targetURL string) error {
	if len(description) > 140 {
		description = description[:140]
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	statusContext := StatusContext
	_, _, err := c.client.Repositories.CreateStatus(ctx, c.owner, c.repo, sha, &github.RepoStatus{
		State:       &state,
		Description: &description,
		TargetURL:   &targetURL,
		Context:     &statusContext,
	})
	if err != nil {
		return errors.NetworkErrorf(err, "failed to set commit status on %s", sha)
	}
	return nil
}

func prToModel(pr *github.PullRequest) *models.PullRequest {
	labels := make([]string, 0, len(pr.Labels))
	for _, label := range pr.Labels {
		labels = append(labels, label.GetName())
	}
	return &models.PullRequest{
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		Author:      pr.GetUser().GetLogin(),
		BaseBranch:  pr.GetBase().GetRef(),
		HeadBranch:  pr.GetHead().GetRef(),
		HeadSHA:     pr.GetHead().GetSHA(),
		CreatedAt:   pr.GetCreatedAt().Time,
		UpdatedAt:   pr.GetUpdatedAt().Time,
		Labels:      labels,
		Description: pr.GetBody(),
	}
}

func mapStatus(status string) models.FileChangeStatus {
	switch status {
	case "added":
		return models.FileAdded
	case "removed":
		return models.FileRemoved
	case "renamed":
		return models.FileRenamed
	default:
		return models.FileModified
	}
}
