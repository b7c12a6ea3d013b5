package conflict

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prguard/prguard/internal/diffparse"
	"github.com/prguard/prguard/internal/models"
)

func newTestClassifier() *Classifier {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClassifier(logger)
}

func prWithSymbol(number int, path, symbol string, change models.ChangeKind, start, end int) *models.PullRequest {
	return &models.PullRequest{
		Number:       number,
		ChangedFiles: []models.ChangedFile{{Path: path, Status: models.FileModified}},
		ChangedSymbols: []models.ChangedSymbol{{
			Symbol: models.Symbol{
				Name:      symbol,
				Kind:      models.SymbolFunction,
				FilePath:  path,
				StartLine: start,
				EndLine:   end,
			},
			Change:    change,
			DiffStart: start,
			DiffEnd:   end,
		}},
	}
}

func TestHasLineOverlap(t *testing.T) {
	tests := []struct {
		name   string
		source []diffparse.Range
		target []diffparse.Range
		want   bool
	}{
		{"overlapping", []diffparse.Range{{Start: 10, End: 20}}, []diffparse.Range{{Start: 15, End: 25}}, true},
		{"touching boundary", []diffparse.Range{{Start: 10, End: 20}}, []diffparse.Range{{Start: 20, End: 30}}, true},
		{"disjoint", []diffparse.Range{{Start: 10, End: 20}}, []diffparse.Range{{Start: 30, End: 40}}, false},
		{"empty source", nil, []diffparse.Range{{Start: 1, End: 5}}, false},
		{"both empty", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fo := FileOverlap{SourceRanges: tt.source, TargetRanges: tt.target}
			assert.Equal(t, tt.want, fo.HasLineOverlap())
		})
	}
}

func TestComputeFileOverlaps(t *testing.T) {
	source := prWithSymbol(1, "auth.py", "login", models.ChangeModifiedBody, 10, 20)
	sharing := prWithSymbol(2, "auth.py", "logout", models.ChangeModifiedBody, 50, 60)
	disjoint := prWithSymbol(3, "billing.py", "charge", models.ChangeModifiedBody, 5, 9)

	overlaps := ComputeFileOverlaps(source, []*models.PullRequest{sharing, disjoint, source})

	require.Len(t, overlaps, 1)
	require.Len(t, overlaps[2], 1)
	assert.Equal(t, "auth.py", overlaps[2][0].FilePath)
	assert.Equal(t, []diffparse.Range{{Start: 10, End: 20}}, overlaps[2][0].SourceRanges)
	assert.Equal(t, []diffparse.Range{{Start: 50, End: 60}}, overlaps[2][0].TargetRanges)
	_, hasSelf := overlaps[1]
	assert.False(t, hasSelf, "a PR never overlaps itself")
}

func TestComputeFileOverlapsFallsBackToPatch(t *testing.T) {
	source := &models.PullRequest{
		Number: 1,
		ChangedFiles: []models.ChangedFile{{
			Path:   "util.py",
			Status: models.FileModified,
			Patch:  "@@ -10,3 +10,5 @@\n ctx\n+a\n+b\n+c\n ctx\n",
		}},
	}
	target := prWithSymbol(2, "util.py", "helper", models.ChangeModifiedBody, 11, 13)

	overlaps := ComputeFileOverlaps(source, []*models.PullRequest{target})
	require.Len(t, overlaps[2], 1)
	assert.Equal(t, []diffparse.Range{{Start: 11, End: 13}}, overlaps[2][0].SourceRanges)
}

func TestClassifySharedSymbolOverlappingLines(t *testing.T) {
	source := prWithSymbol(1, "auth.py", "login", models.ChangeModifiedBody, 10, 20)
	target := prWithSymbol(2, "auth.py", "login", models.ChangeModifiedBody, 15, 25)
	overlaps := ComputeFileOverlaps(source, []*models.PullRequest{target})

	conflicts := newTestClassifier().Classify(source, target, overlaps[2])

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictHard, conflicts[0].Type)
	assert.Equal(t, models.SeverityCritical, conflicts[0].Severity)
	assert.Equal(t, "login", conflicts[0].SymbolName)
	assert.Equal(t, "auth.py", conflicts[0].FilePath)
}

func TestClassifyLineOverlapWithoutSharedSymbol(t *testing.T) {
	source := prWithSymbol(1, "auth.py", "login", models.ChangeModifiedBody, 10, 20)
	target := prWithSymbol(2, "auth.py", "logout", models.ChangeModifiedBody, 18, 30)
	overlaps := ComputeFileOverlaps(source, []*models.PullRequest{target})

	conflicts := newTestClassifier().Classify(source, target, overlaps[2])

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictHard, conflicts[0].Type)
	assert.Equal(t, models.SeverityWarning, conflicts[0].Severity)
	assert.Empty(t, conflicts[0].SymbolName)
}

func TestClassifyBehavioralConflict(t *testing.T) {
	source := prWithSymbol(1, "auth.py", "login", models.ChangeModifiedBody, 10, 20)
	target := prWithSymbol(2, "auth.py", "login", models.ChangeModifiedBody, 40, 50)
	overlaps := ComputeFileOverlaps(source, []*models.PullRequest{target})

	conflicts := newTestClassifier().Classify(source, target, overlaps[2])

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictBehavioral, conflicts[0].Type)
	assert.Equal(t, models.SeverityWarning, conflicts[0].Severity)
	assert.Equal(t, "login", conflicts[0].SymbolName)
}

func TestClassifyInterfaceConflict(t *testing.T) {
	source := prWithSymbol(1, "api.py", "get_user", models.ChangeModifiedSignature, 10, 20)
	target := &models.PullRequest{
		Number: 2,
		ChangedSymbols: []models.ChangedSymbol{{
			Symbol: models.Symbol{
				Name:         "handle_request",
				Kind:         models.SymbolFunction,
				FilePath:     "handlers.py",
				StartLine:    5,
				EndLine:      30,
				Dependencies: []string{"get_user", "render"},
			},
			Change: models.ChangeModifiedBody,
		}},
	}

	conflicts := newTestClassifier().Classify(source, target, nil)

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictInterface, conflicts[0].Type)
	assert.Equal(t, models.SeverityCritical, conflicts[0].Severity)
	assert.Equal(t, "get_user", conflicts[0].SymbolName)
	assert.Equal(t, "api.py", conflicts[0].FilePath)
}

func TestClassifyNoInterfaceConflictForBodyChange(t *testing.T) {
	source := prWithSymbol(1, "api.py", "get_user", models.ChangeModifiedBody, 10, 20)
	target := &models.PullRequest{
		Number: 2,
		ChangedSymbols: []models.ChangedSymbol{{
			Symbol: models.Symbol{Name: "caller", FilePath: "handlers.py", Dependencies: []string{"get_user"}},
			Change: models.ChangeModifiedBody,
		}},
	}

	assert.Empty(t, newTestClassifier().Classify(source, target, nil))
}

func TestClassifyDisjointFilesNoConflicts(t *testing.T) {
	source := prWithSymbol(1, "auth.py", "login", models.ChangeModifiedBody, 10, 20)
	target := prWithSymbol(2, "billing.py", "charge", models.ChangeModifiedBody, 10, 20)

	overlaps := ComputeFileOverlaps(source, []*models.PullRequest{target})
	assert.Empty(t, overlaps)
	assert.Empty(t, newTestClassifier().Classify(source, target, overlaps[2]))
}

func TestClassifySameNameDifferentFilesIgnored(t *testing.T) {
	source := prWithSymbol(1, "a.py", "init", models.ChangeModifiedBody, 1, 5)
	target := prWithSymbol(2, "b.py", "init", models.ChangeModifiedBody, 1, 5)
	source.ChangedFiles = append(source.ChangedFiles, models.ChangedFile{Path: "b.py", Status: models.FileModified})

	overlaps := ComputeFileOverlaps(source, []*models.PullRequest{target})
	conflicts := newTestClassifier().Classify(source, target, overlaps[2])

	for _, c := range conflicts {
		assert.NotEqual(t, models.ConflictBehavioral, c.Type,
			"name matching must stay scoped to one file")
	}
}
