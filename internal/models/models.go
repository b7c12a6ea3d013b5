package models

import (
	"time"
)

// ConflictSeverity ranks how dangerous a conflict is if both PRs merge.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "critical" // Will break if both merge
	SeverityWarning  ConflictSeverity = "warning"  // Needs human review
	SeverityInfo     ConflictSeverity = "info"     // Overlap detected, probably fine
)

// ConflictType categorizes the mechanism of a cross-PR conflict.
type ConflictType string

const (
	ConflictHard        ConflictType = "hard"        // Same lines modified differently
	ConflictInterface   ConflictType = "interface"   // Signature changed, caller not updated
	ConflictBehavioral  ConflictType = "behavioral"  // Same entity, non-overlapping lines
	ConflictDuplication ConflictType = "duplication" // Same work done in two PRs
	ConflictTransitive  ConflictType = "transitive"  // Conflict through dependency chain
	ConflictRegression  ConflictType = "regression"  // Reverts a deliberate prior change
)

// SymbolKind identifies what sort of code entity a Symbol is.
type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolMethod    SymbolKind = "method"
	SymbolClass     SymbolKind = "class"
	SymbolTypeAlias SymbolKind = "type_alias"
	SymbolInterface SymbolKind = "interface"
	SymbolExport    SymbolKind = "export"
)

// FileChangeStatus mirrors the change status reported by the hosting API.
type FileChangeStatus string

const (
	FileAdded    FileChangeStatus = "added"
	FileModified FileChangeStatus = "modified"
	FileRemoved  FileChangeStatus = "removed"
	FileRenamed  FileChangeStatus = "renamed"
)

// AIAttribution classifies who (or what) authored a PR.
type AIAttribution string

const (
	AttributionHuman       AIAttribution = "human"
	AttributionAIConfirmed AIAttribution = "ai_confirmed" // Commit metadata or trailer
	AttributionAISuspected AIAttribution = "ai_suspected" // Heuristic detection
	AttributionUnknown     AIAttribution = "unknown"
)

// IsAI reports whether the attribution indicates AI authorship.
func (a AIAttribution) IsAI() bool {
	return a == AttributionAIConfirmed || a == AttributionAISuspected
}

// Symbol is a named code entity with a line range. Symbols are value
// records produced per (file, revision); they are never mutated after
// extraction.
type Symbol struct {
	Name         string     `json:"name"`
	Kind         SymbolKind `json:"kind"`
	FilePath     string     `json:"file_path"`
	StartLine    int        `json:"start_line"` // 1-indexed, inclusive
	EndLine      int        `json:"end_line"`   // 1-indexed, inclusive
	Signature    string     `json:"signature,omitempty"`
	Parent       string     `json:"parent,omitempty"`       // Enclosing class for methods
	Dependencies []string   `json:"dependencies,omitempty"` // Names this symbol references
}

// ChangedFile is a file modified in a PR, as reported by the hosting API.
type ChangedFile struct {
	Path         string           `json:"path"`
	Status       FileChangeStatus `json:"status"`
	Additions    int              `json:"additions"`
	Deletions    int              `json:"deletions"`
	Patch        string           `json:"patch,omitempty"` // Raw unified diff hunks
	PreviousPath string           `json:"previous_path,omitempty"`
}

// ChangeKind describes how a symbol was changed in a PR.
type ChangeKind string

const (
	ChangeModifiedBody      ChangeKind = "modified_body"
	ChangeModifiedSignature ChangeKind = "modified_signature"
	ChangeAdded             ChangeKind = "added"
	ChangeRemoved           ChangeKind = "removed"
)

// ChangedSymbol is a symbol touched by a specific PR, carrying the diff
// line range that flagged it.
type ChangedSymbol struct {
	Symbol    Symbol     `json:"symbol"`
	Change    ChangeKind `json:"change"`
	DiffStart int        `json:"diff_start"`
	DiffEnd   int        `json:"diff_end"`
}

// PullRequest is a change set under analysis. The file list is populated
// from the hosting API; the changed-symbol list is populated by mapping
// each file's diff against the symbols extracted at the base revision.
type PullRequest struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	BaseBranch  string    `json:"base_branch"`
	HeadBranch  string    `json:"head_branch"`
	HeadSHA     string    `json:"head_sha"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Labels      []string  `json:"labels,omitempty"`
	Description string    `json:"description,omitempty"`

	ChangedFiles   []ChangedFile   `json:"changed_files,omitempty"`
	ChangedSymbols []ChangedSymbol `json:"changed_symbols,omitempty"`
	Attribution    AIAttribution   `json:"attribution,omitempty"`
}

// FilePaths returns the set of paths touched by the PR.
func (pr *PullRequest) FilePaths() map[string]bool {
	paths := make(map[string]bool, len(pr.ChangedFiles))
	for _, f := range pr.ChangedFiles {
		paths[f.Path] = true
	}
	return paths
}

// SymbolNames returns the set of changed-symbol names across all files.
func (pr *PullRequest) SymbolNames() map[string]bool {
	names := make(map[string]bool, len(pr.ChangedSymbols))
	for _, cs := range pr.ChangedSymbols {
		names[cs.Symbol.Name] = true
	}
	return names
}

// SymbolNamesInFile returns changed-symbol names restricted to one file.
// Conflict rules match names per file, never across files.
func (pr *PullRequest) SymbolNamesInFile(path string) map[string]bool {
	names := make(map[string]bool)
	for _, cs := range pr.ChangedSymbols {
		if cs.Symbol.FilePath == path {
			names[cs.Symbol.Name] = true
		}
	}
	return names
}

// Conflict is a detected conflict between two PRs. Severity is always
// derived from the type and the rule that produced it, never assigned
// ad hoc.
type Conflict struct {
	Type           ConflictType     `json:"type"`
	Severity       ConflictSeverity `json:"severity"`
	SourcePR       int              `json:"source_pr"`
	TargetPR       int              `json:"target_pr"`
	FilePath       string           `json:"file_path"`
	SymbolName     string           `json:"symbol_name,omitempty"` // Empty for file-level conflicts
	Description    string           `json:"description"`
	Recommendation string           `json:"recommendation"`
}

// ConflictReport is the full analysis result for a single PR.
type ConflictReport struct {
	ID             string             `json:"id"`
	PR             *PullRequest       `json:"pr"`
	Conflicts      []Conflict         `json:"conflicts"`
	RiskScore      float64            `json:"risk_score"` // 0-100
	RiskFactors    map[string]float64 `json:"risk_factors"`
	NoConflictPRs  []int              `json:"no_conflict_prs"`
	DurationMillis int64              `json:"analysis_duration_ms"`
	AnalyzedAt     time.Time          `json:"analyzed_at"`
}

// HasCritical reports whether any conflict is critical.
func (r *ConflictReport) HasCritical() bool {
	for _, c := range r.Conflicts {
		if c.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// CountBySeverity tallies conflicts per severity.
func (r *ConflictReport) CountBySeverity() map[ConflictSeverity]int {
	counts := make(map[ConflictSeverity]int)
	for _, c := range r.Conflicts {
		counts[c.Severity]++
	}
	return counts
}

// DecisionType categorizes a deliberate code decision from a merged PR.
type DecisionType string

const (
	DecisionRemoval       DecisionType = "removal"
	DecisionAddition      DecisionType = "addition"
	DecisionMigration     DecisionType = "migration"
	DecisionRefactor      DecisionType = "refactor"
	DecisionPatternChange DecisionType = "pattern_change"
)

// Decision records a significant code decision extracted from a merged PR,
// used for regression checking.
type Decision struct {
	Type        DecisionType `json:"type" db:"decision_type"`
	Entity      string       `json:"entity" db:"entity"`
	FilePath    string       `json:"file_path,omitempty" db:"file_path"`
	Description string       `json:"description" db:"description"`
	PRNumber    int          `json:"pr_number" db:"pr_number"`
	MergedAt    time.Time    `json:"merged_at" db:"merged_at"`
	Author      string       `json:"author" db:"author"`
}

// DecisionsEntry groups the decisions recorded for one merged PR.
type DecisionsEntry struct {
	PRNumber  int        `json:"pr_number"`
	Title     string     `json:"title"`
	MergedAt  time.Time  `json:"merged_at"`
	Author    string     `json:"author"`
	Decisions []Decision `json:"decisions"`
}
