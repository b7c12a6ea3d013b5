package treesitter

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Grammar describes how to read definitions out of one language's parse
// tree. Node kind names follow the tree-sitter grammar for that language.
type Grammar struct {
	Name     string
	Language *sitter.Language

	// Node kinds that introduce a class scope. Traversal descends into
	// them with the class name as the enclosing context.
	ClassNodeKinds []string

	// Node kinds for interface-like declarations. Treated like classes
	// for traversal but recorded with the interface symbol kind.
	InterfaceNodeKinds []string

	// Node kinds for free functions. A match inside a class context is
	// recorded as a method unless the grammar has distinct method kinds.
	FunctionNodeKinds []string

	// Node kinds that are methods regardless of enclosing context.
	// Empty for languages like Python where only context disambiguates.
	MethodNodeKinds []string

	// Node kinds for type declarations, recorded as type aliases.
	TypeNodeKinds []string

	// Candidate kinds for the child node that carries a symbol's name.
	NameChildKinds []string

	// Node kinds for call expressions, used to collect the referenced
	// names of a definition body.
	CallNodeKinds []string

	// Host kind for functions bound to variables (const f = () => ...).
	// The host only counts as a function when it contains a child of
	// ArrowFunctionKind.
	ArrowHostKind     string
	ArrowFunctionKind string
}

var defaultNameKinds = []string{"identifier", "type_identifier", "property_identifier", "field_identifier"}

var pythonGrammar = &Grammar{
	Name:              "python",
	Language:          python.GetLanguage(),
	ClassNodeKinds:    []string{"class_definition"},
	FunctionNodeKinds: []string{"function_definition"},
	NameChildKinds:    defaultNameKinds,
	CallNodeKinds:     []string{"call"},
}

var javascriptGrammar = &Grammar{
	Name:              "javascript",
	Language:          javascript.GetLanguage(),
	ClassNodeKinds:    []string{"class_declaration"},
	FunctionNodeKinds: []string{"function_declaration", "generator_function_declaration"},
	MethodNodeKinds:   []string{"method_definition"},
	NameChildKinds:    defaultNameKinds,
	CallNodeKinds:     []string{"call_expression"},
	ArrowHostKind:     "variable_declarator",
	ArrowFunctionKind: "arrow_function",
}

var typescriptGrammar = &Grammar{
	Name:               "typescript",
	Language:           typescript.GetLanguage(),
	ClassNodeKinds:     []string{"class_declaration", "abstract_class_declaration"},
	InterfaceNodeKinds: []string{"interface_declaration"},
	FunctionNodeKinds:  []string{"function_declaration", "generator_function_declaration"},
	MethodNodeKinds:    []string{"method_definition"},
	TypeNodeKinds:      []string{"type_alias_declaration"},
	NameChildKinds:     defaultNameKinds,
	CallNodeKinds:      []string{"call_expression"},
	ArrowHostKind:      "variable_declarator",
	ArrowFunctionKind:  "arrow_function",
}

var tsxGrammar = &Grammar{
	Name:               "tsx",
	Language:           tsx.GetLanguage(),
	ClassNodeKinds:     typescriptGrammar.ClassNodeKinds,
	InterfaceNodeKinds: typescriptGrammar.InterfaceNodeKinds,
	FunctionNodeKinds:  typescriptGrammar.FunctionNodeKinds,
	MethodNodeKinds:    typescriptGrammar.MethodNodeKinds,
	TypeNodeKinds:      typescriptGrammar.TypeNodeKinds,
	NameChildKinds:     defaultNameKinds,
	CallNodeKinds:      typescriptGrammar.CallNodeKinds,
	ArrowHostKind:      "variable_declarator",
	ArrowFunctionKind:  "arrow_function",
}

var goGrammar = &Grammar{
	Name:              "go",
	Language:          golang.GetLanguage(),
	FunctionNodeKinds: []string{"function_declaration"},
	MethodNodeKinds:   []string{"method_declaration"},
	TypeNodeKinds:     []string{"type_declaration"},
	NameChildKinds:    defaultNameKinds,
	CallNodeKinds:     []string{"call_expression"},
}

// grammarsByExt maps a file extension to its parse grammar.
var grammarsByExt = map[string]*Grammar{
	".py":  pythonGrammar,
	".pyi": pythonGrammar,
	".js":  javascriptGrammar,
	".jsx": javascriptGrammar,
	".mjs": javascriptGrammar,
	".cjs": javascriptGrammar,
	".ts":  typescriptGrammar,
	".mts": typescriptGrammar,
	".cts": typescriptGrammar,
	".tsx": tsxGrammar,
	".go":  goGrammar,
}

// fallbackExts are extensions with no grammar binding that still get
// line-based regex extraction. Anything outside this set and
// grammarsByExt yields no symbols at all.
var fallbackExts = map[string]bool{
	".rs":    true,
	".java":  true,
	".rb":    true,
	".php":   true,
	".c":     true,
	".h":     true,
	".cc":    true,
	".cpp":   true,
	".hpp":   true,
	".cs":    true,
	".swift": true,
	".kt":    true,
	".scala": true,
}

// GrammarFor returns the grammar for a path, or nil when the language
// has no tree-sitter binding.
func GrammarFor(path string) *Grammar {
	return grammarsByExt[strings.ToLower(filepath.Ext(path))]
}

// Recognized reports whether the path's extension belongs to a language
// we extract symbols from, by grammar or by fallback.
func Recognized(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := grammarsByExt[ext]; ok {
		return true
	}
	return fallbackExts[ext]
}

func (g *Grammar) isClass(kind string) bool     { return contains(g.ClassNodeKinds, kind) }
func (g *Grammar) isInterface(kind string) bool { return contains(g.InterfaceNodeKinds, kind) }
func (g *Grammar) isFunction(kind string) bool  { return contains(g.FunctionNodeKinds, kind) }
func (g *Grammar) isMethod(kind string) bool    { return contains(g.MethodNodeKinds, kind) }
func (g *Grammar) isType(kind string) bool      { return contains(g.TypeNodeKinds, kind) }
func (g *Grammar) isCall(kind string) bool      { return contains(g.CallNodeKinds, kind) }

func contains(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
