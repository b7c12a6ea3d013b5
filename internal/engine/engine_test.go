package engine

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prguard/prguard/internal/cache"
	"github.com/prguard/prguard/internal/config"
	"github.com/prguard/prguard/internal/models"
)

const authSource = `def login(user):
    return user

def logout(user):
    return None
`

const loginPatch = `@@ -1,5 +1,5 @@
 def login(user):
-    return user
+    return user.id

 def logout(user):`

type fakeHost struct {
	prs     map[int]*models.PullRequest
	files   map[int][]models.ChangedFile
	content map[string][]byte
}

func (f *fakeHost) FullName() string { return "acme/api" }

func (f *fakeHost) GetPR(_ context.Context, number int) (*models.PullRequest, error) {
	pr, ok := f.prs[number]
	if !ok {
		return nil, errors.New("not found")
	}
	clone := *pr
	return &clone, nil
}

func (f *fakeHost) GetOpenPRs(_ context.Context, _ int) ([]*models.PullRequest, error) {
	var out []*models.PullRequest
	for _, pr := range f.prs {
		clone := *pr
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeHost) GetPRFiles(_ context.Context, number int) ([]models.ChangedFile, error) {
	return f.files[number], nil
}

func (f *fakeHost) GetFileContent(_ context.Context, path, _ string) ([]byte, error) {
	return f.content[path], nil
}

type fakeLedger struct {
	decisions []models.Decision
	err       error
}

func (f *fakeLedger) FindRegressions(_ context.Context, _, _ []string) ([]models.Decision, error) {
	return f.decisions, f.err
}

func newTestHost() *fakeHost {
	return &fakeHost{
		prs: map[int]*models.PullRequest{
			1: {Number: 1, Title: "Return user id from login", Author: "alice", BaseBranch: "main"},
			2: {Number: 2, Title: "Harden login", Author: "bob", BaseBranch: "main"},
			3: {Number: 3, Title: "Docs", Author: "carol", BaseBranch: "main"},
		},
		files: map[int][]models.ChangedFile{
			1: {
				{Path: "auth.py", Status: models.FileModified, Additions: 1, Deletions: 1, Patch: loginPatch},
				{Path: "package-lock.json", Status: models.FileModified, Additions: 200, Deletions: 180},
			},
			2: {{Path: "auth.py", Status: models.FileModified, Additions: 1, Deletions: 1, Patch: loginPatch}},
			3: {{Path: "README.md", Status: models.FileModified, Additions: 3, Deletions: 0, Patch: "@@ -1,1 +1,4 @@\n Readme\n+a\n+b\n+c"}},
		},
		content: map[string][]byte{
			"auth.py": []byte(authSource),
		},
	}
}

func newTestEngine(t *testing.T, host *fakeHost, opts Options) *Engine {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	eng, err := New(host, config.Default(), logger, opts)
	require.NoError(t, err)
	return eng
}

func TestAnalyzePRDetectsHardConflict(t *testing.T) {
	eng := newTestEngine(t, newTestHost(), Options{})

	report, err := eng.AnalyzePR(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, report.PR)
	assert.Equal(t, 1, report.PR.Number)
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.AnalyzedAt.IsZero())

	var hard []models.Conflict
	for _, c := range report.Conflicts {
		if c.Type == models.ConflictHard {
			hard = append(hard, c)
		}
	}
	require.Len(t, hard, 1)
	assert.Equal(t, models.SeverityCritical, hard[0].Severity)
	assert.Equal(t, "login", hard[0].SymbolName)
	assert.Equal(t, "auth.py", hard[0].FilePath)
	assert.Equal(t, 2, hard[0].TargetPR)

	assert.Contains(t, report.NoConflictPRs, 3)
	assert.Greater(t, report.RiskScore, 0.0)
	assert.Greater(t, report.RiskFactors["conflict_severity"], 0.0)
}

func TestAnalyzePRFlagsDuplicateWorkAcrossFiles(t *testing.T) {
	source := `def compute_total(items):
    return sum(items)
`
	rewrite := `@@ -1,2 +1,2 @@
-def compute_total(items):
-    return sum(items)
+def compute_total(items):
+    return sum(float(i) for i in items)`

	host := &fakeHost{
		prs: map[int]*models.PullRequest{
			1: {Number: 1, Title: "Totals in checkout", Author: "alice", BaseBranch: "main"},
			2: {Number: 2, Title: "Totals in billing", Author: "bob", BaseBranch: "main"},
		},
		files: map[int][]models.ChangedFile{
			1: {{Path: "a.py", Status: models.FileModified, Additions: 2, Deletions: 2, Patch: rewrite}},
			2: {{Path: "b.py", Status: models.FileModified, Additions: 2, Deletions: 2, Patch: rewrite}},
		},
		content: map[string][]byte{
			"a.py": []byte(source),
			"b.py": []byte(source),
		},
	}
	eng := newTestEngine(t, host, Options{})

	report, err := eng.AnalyzePR(context.Background(), 1)
	require.NoError(t, err)

	var dups []models.Conflict
	for _, c := range report.Conflicts {
		if c.Type == models.ConflictDuplication {
			dups = append(dups, c)
		}
	}
	require.Len(t, dups, 1)
	assert.Equal(t, models.SeverityInfo, dups[0].Severity)
	assert.Equal(t, "compute_total", dups[0].SymbolName)
	assert.Equal(t, 2, dups[0].TargetPR)
	assert.NotContains(t, report.NoConflictPRs, 2)
}

func TestAnalyzePRFiltersIgnoredPaths(t *testing.T) {
	eng := newTestEngine(t, newTestHost(), Options{})

	report, err := eng.AnalyzePR(context.Background(), 1)
	require.NoError(t, err)

	for _, f := range report.PR.ChangedFiles {
		assert.NotEqual(t, "package-lock.json", f.Path)
	}
}

func TestAnalyzePRIncludesRegressions(t *testing.T) {
	ledger := &fakeLedger{decisions: []models.Decision{{
		Type:        models.DecisionRemoval,
		Entity:      "login",
		FilePath:    "auth.py",
		Description: "replaced by SSO",
		PRNumber:    42,
		MergedAt:    time.Now(),
		Author:      "dana",
	}}}
	eng := newTestEngine(t, newTestHost(), Options{Ledger: ledger})

	report, err := eng.AnalyzePR(context.Background(), 1)
	require.NoError(t, err)

	var regressions []models.Conflict
	for _, c := range report.Conflicts {
		if c.Type == models.ConflictRegression {
			regressions = append(regressions, c)
		}
	}
	require.Len(t, regressions, 1)
	assert.Equal(t, 42, regressions[0].TargetPR)
}

func TestAnalyzePRLedgerFailureIsHard(t *testing.T) {
	eng := newTestEngine(t, newTestHost(), Options{Ledger: &fakeLedger{err: errors.New("db locked")}})

	_, err := eng.AnalyzePR(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regression check")
}

func TestAnalyzePRUnknownNumber(t *testing.T) {
	eng := newTestEngine(t, newTestHost(), Options{})

	_, err := eng.AnalyzePR(context.Background(), 99)
	require.Error(t, err)
}

func TestAnalyzeAllOpenPRs(t *testing.T) {
	eng := newTestEngine(t, newTestHost(), Options{})

	reports, err := eng.AnalyzeAllOpenPRs(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 3)
}

func TestOverlapMatrix(t *testing.T) {
	eng := newTestEngine(t, newTestHost(), Options{})

	prs, matrix, err := eng.OverlapMatrix(context.Background())
	require.NoError(t, err)
	require.Len(t, prs, 3)

	assert.Equal(t, 1, matrix[1][2])
	assert.Equal(t, 1, matrix[2][1])
	assert.Equal(t, 0, matrix[1][3])
}

func TestAnalyzePRCachesByHeadSHA(t *testing.T) {
	store, err := cache.OpenStore(t.TempDir(), time.Hour)
	require.NoError(t, err)
	defer store.Close()

	host := newTestHost()
	host.prs[1].HeadSHA = "abc123"
	eng := newTestEngine(t, host, Options{Store: store})

	first, err := eng.AnalyzePR(context.Background(), 1)
	require.NoError(t, err)

	second, err := eng.AnalyzePR(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "second run should hit the cache")

	host.prs[1].HeadSHA = "def456"
	third, err := eng.AnalyzePR(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID, "new head SHA misses the cache")
}

func TestChurnScore(t *testing.T) {
	pr := &models.PullRequest{ChangedFiles: []models.ChangedFile{
		{Additions: 100, Deletions: 100},
	}}
	assert.InDelta(t, 0.25, churnScore(pr), 1e-9)

	pr.ChangedFiles = append(pr.ChangedFiles, models.ChangedFile{Additions: 5000})
	assert.Equal(t, 1.0, churnScore(pr))
}
