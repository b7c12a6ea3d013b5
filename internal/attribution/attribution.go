package attribution

import (
	"strings"

	"github.com/prguard/prguard/internal/models"
)

// Trailers and markers that agents leave in commit bodies and PR
// descriptions. Matching any of these is confirmation, not suspicion.
var confirmedMarkers = []string{
	"co-authored-by: claude",
	"co-authored-by: github copilot",
	"co-authored-by: copilot",
	"co-authored-by: devin",
	"co-authored-by: cursor",
	"generated with claude code",
	"generated by copilot",
	"this pr was written by an ai",
}

// Bot account suffixes and agent logins. A PR opened by one of these
// accounts is AI-authored by definition.
var confirmedAuthors = []string{
	"[bot]",
	"devin-ai-integration",
	"copilot-swe-agent",
	"cursor-agent",
}

// Labels maintainers use to tag agent PRs.
var confirmedLabels = []string{
	"ai-generated",
	"ai-authored",
	"agent",
}

// Weaker signals: phrasing that agents tend to produce but humans
// sometimes use too.
var suspectedMarkers = []string{
	"as an ai",
	"i have implemented",
	"this pull request introduces the following changes",
	"## summary\n\n- ",
}

// Detect classifies who authored a PR. Explicit trailers, bot
// accounts and labels yield a confirmed attribution; weaker textual
// signals yield suspected. With no author and no description there is
// nothing to classify on, so the attribution is unknown; everything
// else is human.
func Detect(pr *models.PullRequest) models.AIAttribution {
	author := strings.ToLower(pr.Author)
	for _, marker := range confirmedAuthors {
		if strings.Contains(author, marker) {
			return models.AttributionAIConfirmed
		}
	}

	for _, label := range pr.Labels {
		normalized := strings.ToLower(label)
		for _, marker := range confirmedLabels {
			if normalized == marker {
				return models.AttributionAIConfirmed
			}
		}
	}

	body := strings.ToLower(pr.Description)
	for _, marker := range confirmedMarkers {
		if strings.Contains(body, marker) {
			return models.AttributionAIConfirmed
		}
	}

	for _, marker := range suspectedMarkers {
		if strings.Contains(body, marker) {
			return models.AttributionAISuspected
		}
	}

	if pr.Author == "" && pr.Description == "" {
		return models.AttributionUnknown
	}
	return models.AttributionHuman
}
