package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prguard/prguard/internal/models"
)

func changedSymbol(name, sig string, kind models.SymbolKind, change models.ChangeKind) models.ChangedSymbol {
	return models.ChangedSymbol{
		Symbol: models.Symbol{Name: name, Kind: kind, FilePath: "x.py", Signature: sig},
		Change: change,
	}
}

func TestDetectDuplicatesNearIdenticalAddition(t *testing.T) {
	source := &models.PullRequest{Number: 1, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("fetch_user", "def fetch_user(user_id, session):", models.SymbolFunction, models.ChangeAdded),
	}}
	target := &models.PullRequest{Number: 2, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("fetchUser", "def fetchUser(user_id, session):", models.SymbolFunction, models.ChangeAdded),
	}}

	dups := DetectDuplicates(source, target)
	require.Len(t, dups, 1)
	assert.Equal(t, "fetch_user", dups[0].New.Name)
	assert.Equal(t, "fetchUser", dups[0].Other.Name)
	assert.Greater(t, dups[0].Score, duplicateCombinedThreshold)
}

func TestDetectDuplicatesSkipsDifferentKinds(t *testing.T) {
	source := &models.PullRequest{Number: 1, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("Session", "class Session:", models.SymbolClass, models.ChangeAdded),
	}}
	target := &models.PullRequest{Number: 2, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("Session", "def Session():", models.SymbolFunction, models.ChangeAdded),
	}}

	assert.Empty(t, DetectDuplicates(source, target))
}

func TestDetectDuplicatesIgnoresModifiedSymbols(t *testing.T) {
	source := &models.PullRequest{Number: 1, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("fetch_user", "def fetch_user(user_id):", models.SymbolFunction, models.ChangeModifiedBody),
	}}
	target := &models.PullRequest{Number: 2, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("fetch_user", "def fetch_user(user_id):", models.SymbolFunction, models.ChangeAdded),
	}}

	assert.Empty(t, DetectDuplicates(source, target), "only newly added symbols are compared")
}

func TestDetectDuplicatesUnrelatedNamesGated(t *testing.T) {
	source := &models.PullRequest{Number: 1, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("parse_diff", "def parse_diff(text):", models.SymbolFunction, models.ChangeAdded),
	}}
	target := &models.PullRequest{Number: 2, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("send_email", "def send_email(text):", models.SymbolFunction, models.ChangeAdded),
	}}

	assert.Empty(t, DetectDuplicates(source, target))
}

func TestDetectDuplicatesRankedByScore(t *testing.T) {
	source := &models.PullRequest{Number: 1, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("load_config", "def load_config(path):", models.SymbolFunction, models.ChangeAdded),
	}}
	target := &models.PullRequest{Number: 2, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("load_config", "def load_config(path, strict):", models.SymbolFunction, models.ChangeAdded),
		changedSymbol("load_config", "def load_config(path):", models.SymbolFunction, models.ChangeAdded),
	}}

	dups := DetectDuplicates(source, target)
	require.Len(t, dups, 2)
	assert.Equal(t, "def load_config(path):", dups[0].Other.Signature)
	assert.GreaterOrEqual(t, dups[0].Score, dups[1].Score)
}

func TestDuplicationConflictsSeverity(t *testing.T) {
	source := &models.PullRequest{Number: 1, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("fetch_user", "def fetch_user(user_id):", models.SymbolFunction, models.ChangeAdded),
	}}
	target := &models.PullRequest{Number: 2, ChangedSymbols: []models.ChangedSymbol{
		changedSymbol("fetch_user", "def fetch_user(user_id):", models.SymbolFunction, models.ChangeAdded),
	}}

	conflicts := DuplicationConflicts(source, target)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictDuplication, conflicts[0].Type)
	assert.Equal(t, models.SeverityInfo, conflicts[0].Severity)
}
