package treesitter

import (
	"github.com/prguard/prguard/internal/diffparse"
	"github.com/prguard/prguard/internal/models"
)

// MapDiffToSymbols intersects a file's symbol spans with the modified
// line ranges of its diff. A symbol is reported once, against the first
// range that touches it; overlap is inclusive on both ends. A symbol
// whose span sits entirely inside a single modified range counts as
// added, any other overlap as a body modification. Change to the
// symbol's first line additionally counts as a signature change.
func MapDiffToSymbols(symbols []models.Symbol, ranges []diffparse.Range) []models.ChangedSymbol {
	var changed []models.ChangedSymbol
	for _, sym := range symbols {
		for _, r := range ranges {
			if sym.StartLine > r.End || r.Start > sym.EndLine {
				continue
			}
			changed = append(changed, models.ChangedSymbol{
				Symbol:    sym,
				Change:    classifyChange(sym, r),
				DiffStart: r.Start,
				DiffEnd:   r.End,
			})
			break
		}
	}
	return changed
}

func classifyChange(sym models.Symbol, r diffparse.Range) models.ChangeKind {
	if r.Start <= sym.StartLine && sym.EndLine <= r.End {
		return models.ChangeAdded
	}
	if r.Start <= sym.StartLine && sym.StartLine <= r.End {
		return models.ChangeModifiedSignature
	}
	return models.ChangeModifiedBody
}
