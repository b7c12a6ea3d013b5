// Package similarity scores token and name-level similarity between code
// entities, used to flag independent duplicate work across PRs.
package similarity

import (
	"regexp"
	"strings"

	"github.com/prguard/prguard/internal/models"
)

var tokenRe = regexp.MustCompile(`\w+`)

// Jaccard computes |A∩B| / |A∪B| for two string sets. Two empty sets
// score 0.0, not 1.0: the absence of any tokens is not "identical".
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// TokenizeSignature splits a signature into its word tokens.
func TokenizeSignature(sig string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range tokenRe.FindAllString(sig, -1) {
		tokens[t] = true
	}
	return tokens
}

// SignatureSimilarity is the token-level Jaccard similarity of two
// signatures. Either signature missing scores 0.0.
func SignatureSimilarity(sigA, sigB string) float64 {
	if sigA == "" || sigB == "" {
		return 0.0
	}
	return Jaccard(TokenizeSignature(sigA), TokenizeSignature(sigB))
}

// NameDistance scores how alike two symbol names are. Tiers, highest
// match wins:
//
//	exact                          1.0
//	case/underscore-insensitive    0.95
//	strict prefix, shorter > 3     0.7
//	character-set overlap          Jaccard × 0.5
//
// The character-overlap tier is deliberately weak; it never dominates.
func NameDistance(nameA, nameB string) float64 {
	if nameA == nameB {
		return 1.0
	}

	normA := normalize(nameA)
	normB := normalize(nameB)
	if normA == normB {
		return 0.95
	}

	shorter, longer := normA, normB
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) > 3 && len(shorter) < len(longer) && strings.HasPrefix(longer, shorter) {
		return 0.7
	}

	return Jaccard(charSet(normA), charSet(normB)) * 0.5
}

// SymbolNameSimilarity is the Jaccard similarity of two symbol lists'
// name sets.
func SymbolNameSimilarity(symbolsA, symbolsB []models.Symbol) float64 {
	namesA := make(map[string]bool, len(symbolsA))
	for _, s := range symbolsA {
		namesA[s.Name] = true
	}
	namesB := make(map[string]bool, len(symbolsB))
	for _, s := range symbolsB {
		namesB[s.Name] = true
	}
	return Jaccard(namesA, namesB)
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "")
}

func charSet(s string) map[string]bool {
	set := make(map[string]bool, len(s))
	for _, r := range s {
		set[string(r)] = true
	}
	return set
}
