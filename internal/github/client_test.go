package github

import (
	"testing"

	gh "github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"

	"github.com/prguard/prguard/internal/models"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		status string
		want   models.FileChangeStatus
	}{
		{"added", models.FileAdded},
		{"modified", models.FileModified},
		{"removed", models.FileRemoved},
		{"renamed", models.FileRenamed},
		{"changed", models.FileModified},
		{"", models.FileModified},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapStatus(tt.status), tt.status)
	}
}

func TestPRToModel(t *testing.T) {
	number := 12
	title := "Refactor auth flow"
	login := "alice"
	baseRef := "main"
	headRef := "refactor-auth"
	sha := "abc123"
	body := "Moves login into its own module."
	labelName := "refactor"

	pr := &gh.PullRequest{
		Number: &number,
		Title:  &title,
		User:   &gh.User{Login: &login},
		Base:   &gh.PullRequestBranch{Ref: &baseRef},
		Head:   &gh.PullRequestBranch{Ref: &headRef, SHA: &sha},
		Body:   &body,
		Labels: []*gh.Label{{Name: &labelName}},
	}

	m := prToModel(pr)
	assert.Equal(t, 12, m.Number)
	assert.Equal(t, "Refactor auth flow", m.Title)
	assert.Equal(t, "alice", m.Author)
	assert.Equal(t, "main", m.BaseBranch)
	assert.Equal(t, "refactor-auth", m.HeadBranch)
	assert.Equal(t, "abc123", m.HeadSHA)
	assert.Equal(t, []string{"refactor"}, m.Labels)
	assert.Equal(t, "Moves login into its own module.", m.Description)
}

func TestFullName(t *testing.T) {
	c := NewClient("tok", "acme", "widgets", 10)
	assert.Equal(t, "acme/widgets", c.FullName())
}
