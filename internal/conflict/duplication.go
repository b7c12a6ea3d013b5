package conflict

import (
	"fmt"
	"sort"

	"github.com/prguard/prguard/internal/models"
	"github.com/prguard/prguard/internal/similarity"
)

const (
	duplicateNameThreshold     = 0.6
	duplicateCombinedThreshold = 0.7
)

// Duplicate pairs a newly added symbol with a similar symbol from
// another PR.
type Duplicate struct {
	New   models.Symbol
	Other models.Symbol
	Score float64
}

// DetectDuplicates compares the symbols one PR adds against another
// PR's changed symbols and reports pairs that look like the same work
// done twice. Only symbols of the same kind are compared. The combined
// score weighs name similarity at 40% and token-level signature
// similarity at 60%; name similarity alone gates the comparison so
// unrelated names never reach the signature check. Results are ranked
// by score and symmetric pairs are not deduplicated.
func DetectDuplicates(source, target *models.PullRequest) []Duplicate {
	var added []models.Symbol
	for _, cs := range source.ChangedSymbols {
		if cs.Change == models.ChangeAdded {
			added = append(added, cs.Symbol)
		}
	}

	var dups []Duplicate
	for _, newSym := range added {
		for _, other := range target.ChangedSymbols {
			if newSym.Kind != other.Symbol.Kind {
				continue
			}
			nameSim := similarity.NameDistance(newSym.Name, other.Symbol.Name)
			if nameSim < duplicateNameThreshold {
				continue
			}
			sigSim := similarity.SignatureSimilarity(newSym.Signature, other.Symbol.Signature)
			combined := nameSim*0.4 + sigSim*0.6
			if combined >= duplicateCombinedThreshold {
				dups = append(dups, Duplicate{New: newSym, Other: other.Symbol, Score: combined})
			}
		}
	}

	sort.SliceStable(dups, func(i, j int) bool { return dups[i].Score > dups[j].Score })
	return dups
}

// DuplicationConflicts renders duplicate pairs as info-level conflicts.
func DuplicationConflicts(source, target *models.PullRequest) []models.Conflict {
	var conflicts []models.Conflict
	for _, d := range DetectDuplicates(source, target) {
		conflicts = append(conflicts, models.Conflict{
			Type:       models.ConflictDuplication,
			Severity:   models.SeverityInfo,
			SourcePR:   source.Number,
			TargetPR:   target.Number,
			FilePath:   d.New.FilePath,
			SymbolName: d.New.Name,
			Description: fmt.Sprintf("New %s `%s` looks similar to `%s` in `%s` from PR #%d "+
				"(similarity %.2f).", d.New.Kind, d.New.Name, d.Other.Name, d.Other.FilePath, target.Number, d.Score),
			Recommendation: "Check whether both PRs implement the same functionality. " +
				"If so, keep one implementation and rebase the other PR onto it.",
		})
	}
	return conflicts
}
