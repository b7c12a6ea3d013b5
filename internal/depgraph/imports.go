package depgraph

import (
	"regexp"
	"strings"
)

// Import-statement patterns per language family. Lightweight by design:
// the graph needs module references, not resolved paths.
var (
	pythonImportRe = regexp.MustCompile(`(?m)^\s*(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`)
	jsImportRe     = regexp.MustCompile(`(?m)(?:import\s+.*?\s+from\s+['"](.+?)['"]|require\s*\(\s*['"](.+?)['"]\s*\))`)
	goImportRe     = regexp.MustCompile(`(?m)^\s*(?:import\s+)?(?:\w+\s+)?"([\w./\-]+)"`)
	goImportBlock  = regexp.MustCompile(`(?s)import\s*\((.*?)\)`)
)

// ExtractImports returns the module references imported by the given
// source. Language is resolved from the file extension; unsupported
// extensions yield nil.
func ExtractImports(sourceCode, filePath string) []string {
	switch {
	case strings.HasSuffix(filePath, ".py"):
		return extractPythonImports(sourceCode)
	case hasAnySuffix(filePath, ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"):
		return extractJSImports(sourceCode)
	case strings.HasSuffix(filePath, ".go"):
		return extractGoImports(sourceCode)
	}
	return nil
}

func extractPythonImports(source string) []string {
	var imports []string
	for _, m := range pythonImportRe.FindAllStringSubmatch(source, -1) {
		if m[1] != "" {
			imports = append(imports, m[1])
		} else if m[2] != "" {
			imports = append(imports, m[2])
		}
	}
	return imports
}

func extractJSImports(source string) []string {
	var imports []string
	for _, m := range jsImportRe.FindAllStringSubmatch(source, -1) {
		if m[1] != "" {
			imports = append(imports, m[1])
		} else if m[2] != "" {
			imports = append(imports, m[2])
		}
	}
	return imports
}

func extractGoImports(source string) []string {
	var imports []string
	seen := make(map[string]bool)
	add := func(path string) {
		if path != "" && !seen[path] {
			seen[path] = true
			imports = append(imports, path)
		}
	}

	for _, block := range goImportBlock.FindAllStringSubmatch(source, -1) {
		for _, m := range goImportRe.FindAllStringSubmatch(block[1], -1) {
			add(m[1])
		}
	}
	// Single-line form: import "pkg"
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "import ") {
			continue
		}
		if m := goImportRe.FindStringSubmatch(trimmed); m != nil {
			add(m[1])
		}
	}
	return imports
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
