package treesitter

import (
	"regexp"
	"strings"

	"github.com/prguard/prguard/internal/models"
)

var (
	fallbackFuncRe  = regexp.MustCompile(`^\s*(?:def|func|function|fn|pub\s+fn|async\s+def|async\s+function)\s+(\w+)`)
	fallbackClassRe = regexp.MustCompile(`^\s*(?:class|struct|interface|enum|trait)\s+(\w+)`)
)

// extractFallback scans a file line by line for definition keywords.
// Each hit becomes a single-line symbol whose signature is the trimmed
// matching line. It catches less than a real parse but keeps languages
// without a grammar binding from going dark.
func extractFallback(path string, content []byte) []models.Symbol {
	var symbols []models.Symbol
	for i, line := range strings.Split(string(content), "\n") {
		lineNo := i + 1
		if m := fallbackClassRe.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, fallbackSymbol(m[1], models.SymbolClass, path, lineNo, line))
			continue
		}
		if m := fallbackFuncRe.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, fallbackSymbol(m[1], models.SymbolFunction, path, lineNo, line))
		}
	}
	return symbols
}

func fallbackSymbol(name string, kind models.SymbolKind, path string, line int, raw string) models.Symbol {
	sig := truncateSignature(strings.TrimSpace(raw))
	return models.Symbol{
		Name:      name,
		Kind:      kind,
		FilePath:  path,
		StartLine: line,
		EndLine:   line,
		Signature: sig,
	}
}
