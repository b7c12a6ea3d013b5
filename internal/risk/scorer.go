package risk

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/prguard/prguard/internal/models"
)

// Weights configures the contribution of each risk factor. The five
// weights must sum to 1.0.
type Weights struct {
	ConflictSeverity float64
	BlastRadius      float64
	PatternDeviation float64
	ChurnRisk        float64
	AIAttribution    float64
}

// DefaultWeights returns the standard factor weighting.
func DefaultWeights() Weights {
	return Weights{
		ConflictSeverity: 0.30,
		BlastRadius:      0.25,
		PatternDeviation: 0.20,
		ChurnRisk:        0.15,
		AIAttribution:    0.10,
	}
}

// Factor names used as keys in the score breakdown.
const (
	FactorConflictSeverity = "conflict_severity"
	FactorBlastRadius      = "blast_radius"
	FactorPatternDeviation = "pattern_deviation"
	FactorChurnRisk        = "churn_risk"
	FactorAIAttribution    = "ai_attribution"
)

const pointsPerDependent = 15.0

// Scorer computes composite PR risk scores.
type Scorer struct {
	logger  *logrus.Logger
	weights Weights
}

func NewScorer(logger *logrus.Logger, weights Weights) *Scorer {
	return &Scorer{logger: logger, weights: weights}
}

// Score combines five factors, each normalized to [0,100], into a
// weighted total clamped to [0,100]. Dependency depth is the count of
// files transitively depending on the changed code. Churn and pattern
// deviation arrive pre-computed in [0,1]; their derivation lives
// outside this package. Scoring never fails: a PR with no conflicts
// and no dependents scores its baseline factors only.
func (s *Scorer) Score(
	pr *models.PullRequest,
	conflicts []models.Conflict,
	dependencyDepth int,
	churnScore float64,
	patternDeviationScore float64,
) (float64, map[string]float64) {
	factors := map[string]float64{
		FactorConflictSeverity: scoreConflicts(conflicts),
		FactorBlastRadius:      clamp(float64(dependencyDepth) * pointsPerDependent),
		FactorPatternDeviation: clamp(patternDeviationScore * 100.0),
		FactorChurnRisk:        clamp(churnScore * 100.0),
		FactorAIAttribution:    attributionScore(pr.Attribution),
	}

	total := factors[FactorConflictSeverity]*s.weights.ConflictSeverity +
		factors[FactorBlastRadius]*s.weights.BlastRadius +
		factors[FactorPatternDeviation]*s.weights.PatternDeviation +
		factors[FactorChurnRisk]*s.weights.ChurnRisk +
		factors[FactorAIAttribution]*s.weights.AIAttribution
	total = clamp(total)

	s.logger.WithFields(logrus.Fields{
		"pr":    pr.Number,
		"score": total,
	}).Debug("computed risk score")
	return total, factors
}

// scoreConflicts maps severities to points (critical 100, warning 50,
// info 15), takes the worst, and adds each further conflict at half
// the rank before it. A second critical adds at most 50, not 100.
func scoreConflicts(conflicts []models.Conflict) float64 {
	if len(conflicts) == 0 {
		return 0.0
	}
	scores := make([]float64, 0, len(conflicts))
	for _, c := range conflicts {
		scores = append(scores, severityPoints(c.Severity))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

	total := scores[0]
	decay := 0.5
	for _, score := range scores[1:] {
		total += score * decay
		decay *= 0.5
	}
	return clamp(total)
}

func severityPoints(severity models.ConflictSeverity) float64 {
	switch severity {
	case models.SeverityCritical:
		return 100.0
	case models.SeverityWarning:
		return 50.0
	case models.SeverityInfo:
		return 15.0
	default:
		return 0.0
	}
}

func attributionScore(attribution models.AIAttribution) float64 {
	switch attribution {
	case models.AttributionAIConfirmed:
		return 40.0
	case models.AttributionAISuspected:
		return 20.0
	default:
		return 0.0
	}
}

func clamp(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 100.0 {
		return 100.0
	}
	return v
}
