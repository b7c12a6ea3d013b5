package conflict

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/prguard/prguard/internal/diffparse"
	"github.com/prguard/prguard/internal/models"
)

// FileOverlap is one file that two PRs both touch, with each side's
// modified line ranges.
type FileOverlap struct {
	FilePath     string
	SourcePR     int
	TargetPR     int
	SourceRanges []diffparse.Range
	TargetRanges []diffparse.Range
}

// HasLineOverlap reports whether any source range textually intersects
// any target range. Intersection is inclusive on both ends.
func (fo *FileOverlap) HasLineOverlap() bool {
	for _, s := range fo.SourceRanges {
		for _, t := range fo.TargetRanges {
			if s.Start <= t.End && t.Start <= s.End {
				return true
			}
		}
	}
	return false
}

// ComputeFileOverlaps finds every file the source PR shares with each
// other open PR. PRs sharing no files are omitted from the result.
func ComputeFileOverlaps(source *models.PullRequest, others []*models.PullRequest) map[int][]FileOverlap {
	sourceFiles := source.FilePaths()
	overlaps := make(map[int][]FileOverlap)

	for _, other := range others {
		if other.Number == source.Number {
			continue
		}
		var shared []string
		for path := range other.FilePaths() {
			if sourceFiles[path] {
				shared = append(shared, path)
			}
		}
		if len(shared) == 0 {
			continue
		}
		sort.Strings(shared)

		fileOverlaps := make([]FileOverlap, 0, len(shared))
		for _, path := range shared {
			fileOverlaps = append(fileOverlaps, FileOverlap{
				FilePath:     path,
				SourcePR:     source.Number,
				TargetPR:     other.Number,
				SourceRanges: modifiedRanges(source, path),
				TargetRanges: modifiedRanges(other, path),
			})
		}
		overlaps[other.Number] = fileOverlaps
	}
	return overlaps
}

// modifiedRanges returns the file's modified line ranges, preferring
// the diff spans already attached to changed symbols and falling back
// to reparsing the raw patch.
func modifiedRanges(pr *models.PullRequest, path string) []diffparse.Range {
	var ranges []diffparse.Range
	for _, cs := range pr.ChangedSymbols {
		if cs.Symbol.FilePath == path {
			ranges = append(ranges, diffparse.Range{Start: cs.DiffStart, End: cs.DiffEnd})
		}
	}
	if len(ranges) > 0 {
		return ranges
	}
	for _, cf := range pr.ChangedFiles {
		if cf.Path != path || cf.Patch == "" {
			continue
		}
		for _, fd := range diffparse.Parse(diffparse.WrapPatch(cf.Path, cf.Patch)) {
			ranges = append(ranges, fd.ModifiedRanges()...)
		}
		break
	}
	return ranges
}

// Classifier detects conflicts between pairs of PRs.
type Classifier struct {
	logger *logrus.Logger
}

func NewClassifier(logger *logrus.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify runs the conflict rules for one PR pair over their file
// overlaps. Rules are not mutually exclusive; one file pair can yield
// conflicts of several types. Classification never fails: degenerate
// inputs produce an empty list.
func (c *Classifier) Classify(source, target *models.PullRequest, overlaps []FileOverlap) []models.Conflict {
	var conflicts []models.Conflict

	for i := range overlaps {
		overlap := &overlaps[i]
		if overlap.HasLineOverlap() {
			conflicts = append(conflicts, c.hardConflicts(source, target, overlap)...)
		} else {
			conflicts = append(conflicts, c.behavioralConflicts(source, target, overlap)...)
		}
	}

	conflicts = append(conflicts, c.interfaceConflicts(source, target)...)

	c.logger.WithFields(logrus.Fields{
		"source_pr": source.Number,
		"target_pr": target.Number,
		"conflicts": len(conflicts),
	}).Debug("classified PR pair")
	return conflicts
}

// hardConflicts fires when the two PRs' modified ranges textually
// intersect. A shared symbol name makes it critical; a bare line
// collision outside any shared definition is a file-level warning.
func (c *Classifier) hardConflicts(source, target *models.PullRequest, overlap *FileOverlap) []models.Conflict {
	shared := sharedSymbolNames(source, target, overlap.FilePath)

	if len(shared) == 0 {
		return []models.Conflict{{
			Type:        models.ConflictHard,
			Severity:    models.SeverityWarning,
			SourcePR:    source.Number,
			TargetPR:    target.Number,
			FilePath:    overlap.FilePath,
			Description: fmt.Sprintf("Both PRs modify `%s` at overlapping line ranges.", overlap.FilePath),
			Recommendation: "Review both changes for compatibility. " +
				"Consider merging one PR first.",
		}}
	}

	conflicts := make([]models.Conflict, 0, len(shared))
	for _, name := range shared {
		conflicts = append(conflicts, models.Conflict{
			Type:       models.ConflictHard,
			Severity:   models.SeverityCritical,
			SourcePR:   source.Number,
			TargetPR:   target.Number,
			FilePath:   overlap.FilePath,
			SymbolName: name,
			Description: fmt.Sprintf("Both PRs modify `%s` in `%s` at overlapping lines.",
				name, overlap.FilePath),
			Recommendation: "Coordinate with the other PR author. One PR should merge " +
				"first, then the other should rebase and resolve conflicts.",
		})
	}
	return conflicts
}

// behavioralConflicts fires when both PRs change the same named entity
// in a shared file at non-overlapping lines.
func (c *Classifier) behavioralConflicts(source, target *models.PullRequest, overlap *FileOverlap) []models.Conflict {
	var conflicts []models.Conflict
	for _, name := range sharedSymbolNames(source, target, overlap.FilePath) {
		conflicts = append(conflicts, models.Conflict{
			Type:       models.ConflictBehavioral,
			Severity:   models.SeverityWarning,
			SourcePR:   source.Number,
			TargetPR:   target.Number,
			FilePath:   overlap.FilePath,
			SymbolName: name,
			Description: fmt.Sprintf("Both PRs modify `%s` in `%s` at different lines. "+
				"Changes may interact unexpectedly.", name, overlap.FilePath),
			Recommendation: "Review both changes to ensure they are semantically compatible.",
		})
	}
	return conflicts
}

// interfaceConflicts fires independent of line overlap: the source PR
// rewrites a signature that a changed symbol in the target PR still
// calls.
func (c *Classifier) interfaceConflicts(source, target *models.PullRequest) []models.Conflict {
	var conflicts []models.Conflict
	for _, cs := range source.ChangedSymbols {
		if cs.Change != models.ChangeModifiedSignature {
			continue
		}
		for _, other := range target.ChangedSymbols {
			if !containsName(other.Symbol.Dependencies, cs.Symbol.Name) {
				continue
			}
			conflicts = append(conflicts, models.Conflict{
				Type:       models.ConflictInterface,
				Severity:   models.SeverityCritical,
				SourcePR:   source.Number,
				TargetPR:   target.Number,
				FilePath:   cs.Symbol.FilePath,
				SymbolName: cs.Symbol.Name,
				Description: fmt.Sprintf("This PR changes the signature of `%s`, but PR #%d "+
					"calls it with the old signature.", cs.Symbol.Name, target.Number),
				Recommendation: "Update the caller in the other PR to match the new " +
					"signature, or merge this PR first and rebase.",
			})
		}
	}
	return conflicts
}

// sharedSymbolNames returns the sorted intersection of both PRs'
// changed-symbol names within one file. Name matching is scoped per
// file; same-named entities in different files never match.
func sharedSymbolNames(source, target *models.PullRequest, path string) []string {
	targetNames := target.SymbolNamesInFile(path)
	var shared []string
	for name := range source.SymbolNamesInFile(path) {
		if targetNames[name] {
			shared = append(shared, name)
		}
	}
	sort.Strings(shared)
	return shared
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
