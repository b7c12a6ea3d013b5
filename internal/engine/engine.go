// Package engine orchestrates the full analysis pipeline: fetching
// PRs, extracting changed symbols, classifying conflicts, checking
// regressions and guardrails, and scoring merge risk.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/prguard/prguard/internal/attribution"
	"github.com/prguard/prguard/internal/cache"
	"github.com/prguard/prguard/internal/config"
	"github.com/prguard/prguard/internal/conflict"
	"github.com/prguard/prguard/internal/depgraph"
	"github.com/prguard/prguard/internal/diffparse"
	"github.com/prguard/prguard/internal/guardrails"
	"github.com/prguard/prguard/internal/models"
	"github.com/prguard/prguard/internal/risk"
	"github.com/prguard/prguard/internal/treesitter"
)

// churnLineBudget normalizes total changed lines into [0,1]. A PR
// touching this many lines or more scores full churn.
const churnLineBudget = 800.0

// HostClient is the slice of the hosting API the engine needs.
type HostClient interface {
	FullName() string
	GetPR(ctx context.Context, number int) (*models.PullRequest, error)
	GetOpenPRs(ctx context.Context, maxCount int) ([]*models.PullRequest, error)
	GetPRFiles(ctx context.Context, number int) ([]models.ChangedFile, error)
	GetFileContent(ctx context.Context, path, ref string) ([]byte, error)
}

// BehavioralReviewer gives a semantic second opinion on behavioral
// conflicts. A nil verdict keeps the structural conflict as is.
type BehavioralReviewer interface {
	ReviewBehavioralConflict(ctx context.Context, symbolName, filePath string,
		sourcePR int, sourceDiff string, targetPR int, targetDiff string) *models.Conflict
}

// Engine runs the analysis pipeline. The ledger and reviewer are
// optional; nil disables regression checking and LLM review.
type Engine struct {
	client     HostClient
	cfg        *config.Config
	extractor  *treesitter.Extractor
	classifier *conflict.Classifier
	scorer     *risk.Scorer
	enforcer   *guardrails.Enforcer
	ledger     conflict.DecisionFinder
	reviewer   BehavioralReviewer
	store      *cache.Store
	symbols    *cache.SymbolCache
	logger     *logrus.Logger
}

// Options carries the optional collaborators for New.
type Options struct {
	Ledger   conflict.DecisionFinder
	Reviewer BehavioralReviewer
	Store    *cache.Store
}

func New(client HostClient, cfg *config.Config, logger *logrus.Logger, opts Options) (*Engine, error) {
	symbols, err := cache.NewSymbolCache(0)
	if err != nil {
		return nil, fmt.Errorf("initializing symbol cache: %w", err)
	}
	return &Engine{
		client:     client,
		cfg:        cfg,
		extractor:  treesitter.NewExtractor(logger),
		classifier: conflict.NewClassifier(logger),
		scorer:     risk.NewScorer(logger, risk.DefaultWeights()),
		enforcer:   guardrails.NewEnforcer(logger),
		ledger:     opts.Ledger,
		reviewer:   opts.Reviewer,
		store:      opts.Store,
		symbols:    symbols,
		logger:     logger,
	}, nil
}

// AnalyzePR analyzes one PR against every other open PR and returns the
// full conflict report.
func (e *Engine) AnalyzePR(ctx context.Context, number int) (*models.ConflictReport, error) {
	start := time.Now()

	target, err := e.client.GetPR(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("fetching PR #%d: %w", number, err)
	}
	files, err := e.client.GetPRFiles(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("fetching files for PR #%d: %w", number, err)
	}
	target.ChangedFiles = e.filterIgnored(files)

	// A cached report is keyed by the head SHA, so a new push always
	// misses. Staleness against other PRs is bounded by the store TTL.
	cacheKey := e.reportKey(number, target.HeadSHA)
	if e.store != nil && cacheKey != "" {
		var cached models.ConflictReport
		if ok, err := e.store.Get(cacheKey, &cached); err == nil && ok {
			e.logger.WithField("pr", number).Debug("returning cached report")
			return &cached, nil
		}
	}

	others, err := e.fetchOthers(ctx, number)
	if err != nil {
		return nil, err
	}

	graph := depgraph.New()
	if err := e.enrichPR(ctx, target, graph); err != nil {
		return nil, err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for _, other := range others {
		other := other
		g.Go(func() error {
			return e.enrichPR(gctx, other, nil)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	target.Attribution = attribution.Detect(target)

	var conflicts []models.Conflict
	var noConflictPRs []int
	overlaps := conflict.ComputeFileOverlaps(target, others)

	for _, other := range others {
		var found []models.Conflict
		if prOverlaps := overlaps[other.Number]; len(prOverlaps) > 0 {
			found = e.classifier.Classify(target, other, prOverlaps)
		}
		// Duplicate work needs no shared file: the same function added
		// in two different files is exactly the case worth flagging.
		found = append(found, conflict.DuplicationConflicts(target, other)...)
		found = e.refineBehavioral(ctx, target, other, found)
		if len(found) == 0 {
			noConflictPRs = append(noConflictPRs, other.Number)
			continue
		}
		conflicts = append(conflicts, found...)
	}

	conflicts = append(conflicts, e.enforcer.Enforce(target, e.cfg)...)

	if e.cfg.CheckRegressions && e.ledger != nil {
		regressions, err := conflict.DetectRegressions(ctx, target, e.ledger)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, regressions...)
	}

	depth := 0
	for _, f := range target.ChangedFiles {
		if d := graph.DependencyDepth(f.Path); d > depth {
			depth = d
		}
	}

	score, factors := e.scorer.Score(target, conflicts, depth, churnScore(target), 0.0)

	e.logger.WithFields(logrus.Fields{
		"pr":        number,
		"conflicts": len(conflicts),
		"risk":      score,
	}).Info("analysis complete")

	report := &models.ConflictReport{
		ID:             uuid.NewString(),
		PR:             target,
		Conflicts:      conflicts,
		RiskScore:      score,
		RiskFactors:    factors,
		NoConflictPRs:  noConflictPRs,
		DurationMillis: time.Since(start).Milliseconds(),
		AnalyzedAt:     time.Now().UTC(),
	}

	if e.store != nil && cacheKey != "" {
		if err := e.store.Set(cacheKey, report); err != nil {
			e.logger.WithError(err).Warn("failed to cache report")
		}
	}
	return report, nil
}

func (e *Engine) reportKey(number int, headSHA string) string {
	if headSHA == "" {
		return ""
	}
	return cache.MakeKey(e.client.FullName(), strconv.Itoa(number), headSHA)
}

// AnalyzeAllOpenPRs runs AnalyzePR for every open PR, used by the
// dashboard. Failures on individual PRs are logged and skipped so one
// broken PR does not blank the whole board.
func (e *Engine) AnalyzeAllOpenPRs(ctx context.Context) ([]*models.ConflictReport, error) {
	prs, err := e.client.GetOpenPRs(ctx, e.cfg.MaxOpenPRs)
	if err != nil {
		return nil, fmt.Errorf("listing open PRs: %w", err)
	}

	reports := make([]*models.ConflictReport, 0, len(prs))
	for _, pr := range prs {
		report, err := e.AnalyzePR(ctx, pr.Number)
		if err != nil {
			e.logger.WithError(err).WithField("pr", pr.Number).Warn("skipping PR")
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// OverlapMatrix computes pairwise shared-file counts between open PRs
// for the collision map.
func (e *Engine) OverlapMatrix(ctx context.Context) ([]*models.PullRequest, map[int]map[int]int, error) {
	prs, err := e.fetchOthers(ctx, 0)
	if err != nil {
		return nil, nil, err
	}

	matrix := make(map[int]map[int]int, len(prs))
	for _, a := range prs {
		matrix[a.Number] = make(map[int]int)
		aPaths := a.FilePaths()
		for _, b := range prs {
			if a.Number == b.Number {
				continue
			}
			shared := 0
			for path := range b.FilePaths() {
				if aPaths[path] {
					shared++
				}
			}
			matrix[a.Number][b.Number] = shared
		}
	}

	sort.Slice(prs, func(i, j int) bool { return prs[i].Number < prs[j].Number })
	return prs, matrix, nil
}

// fetchOthers lists open PRs except the given number and populates
// their file lists concurrently.
func (e *Engine) fetchOthers(ctx context.Context, exclude int) ([]*models.PullRequest, error) {
	open, err := e.client.GetOpenPRs(ctx, e.cfg.MaxOpenPRs)
	if err != nil {
		return nil, fmt.Errorf("listing open PRs: %w", err)
	}

	others := make([]*models.PullRequest, 0, len(open))
	for _, pr := range open {
		if pr.Number != exclude {
			others = append(others, pr)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for _, pr := range others {
		pr := pr
		g.Go(func() error {
			files, err := e.client.GetPRFiles(gctx, pr.Number)
			if err != nil {
				return fmt.Errorf("fetching files for PR #%d: %w", pr.Number, err)
			}
			pr.ChangedFiles = e.filterIgnored(files)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return others, nil
}

// enrichPR maps each file's diff onto the symbols extracted at the base
// revision. Files whose content cannot be fetched or parsed contribute
// no symbols but stay in the file list for overlap detection. The
// import graph, when given, collects edges for blast-radius scoring.
func (e *Engine) enrichPR(ctx context.Context, pr *models.PullRequest, graph *depgraph.Graph) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())

	for i := range pr.ChangedFiles {
		file := &pr.ChangedFiles[i]
		if file.Patch == "" {
			continue
		}
		g.Go(func() error {
			diffs := diffparse.Parse(diffparse.WrapPatch(file.Path, file.Patch))
			if len(diffs) == 0 {
				return nil
			}
			ranges := diffs[0].ModifiedRanges()
			if len(ranges) == 0 {
				return nil
			}

			content, err := e.client.GetFileContent(gctx, file.Path, pr.BaseBranch)
			if err != nil {
				return fmt.Errorf("fetching %s@%s: %w", file.Path, pr.BaseBranch, err)
			}
			if content == nil {
				return nil
			}

			symbols, ok := e.symbols.Get(file.Path, pr.BaseBranch)
			if !ok {
				symbols = e.extractor.Extract(gctx, file.Path, content)
				e.symbols.Put(file.Path, pr.BaseBranch, symbols)
			}

			affected := treesitter.MapDiffToSymbols(symbols, ranges)

			mu.Lock()
			pr.ChangedSymbols = append(pr.ChangedSymbols, affected...)
			if graph != nil {
				for _, imported := range depgraph.ExtractImports(string(content), file.Path) {
					graph.AddEdge(depgraph.ImportEdge{SourceFile: file.Path, TargetFile: imported})
				}
			}
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// refineBehavioral asks the LLM reviewer for a second opinion on each
// behavioral conflict. A returned verdict replaces the structural
// conflict; a nil verdict keeps it. Review never removes a conflict
// because a degraded model response is indistinguishable from a clean
// verdict.
func (e *Engine) refineBehavioral(ctx context.Context, source, target *models.PullRequest, conflicts []models.Conflict) []models.Conflict {
	if e.reviewer == nil || !e.cfg.LLM.Enabled {
		return conflicts
	}

	for i, c := range conflicts {
		if c.Type != models.ConflictBehavioral {
			continue
		}
		verdict := e.reviewer.ReviewBehavioralConflict(ctx, c.SymbolName, c.FilePath,
			source.Number, patchFor(source, c.FilePath),
			target.Number, patchFor(target, c.FilePath))
		if verdict != nil {
			conflicts[i] = *verdict
		}
	}
	return conflicts
}

func patchFor(pr *models.PullRequest, path string) string {
	for _, f := range pr.ChangedFiles {
		if f.Path == path {
			return f.Patch
		}
	}
	return ""
}

func (e *Engine) filterIgnored(files []models.ChangedFile) []models.ChangedFile {
	kept := files[:0]
	for _, f := range files {
		if !e.cfg.IsIgnored(f.Path) {
			kept = append(kept, f)
		}
	}
	return kept
}

func (e *Engine) workers() int {
	if e.cfg.Workers > 0 {
		return e.cfg.Workers
	}
	return 1
}

// churnScore normalizes the PR's total changed lines into [0,1].
func churnScore(pr *models.PullRequest) float64 {
	total := 0
	for _, f := range pr.ChangedFiles {
		total += f.Additions + f.Deletions
	}
	score := float64(total) / churnLineBudget
	if score > 1.0 {
		return 1.0
	}
	return score
}
