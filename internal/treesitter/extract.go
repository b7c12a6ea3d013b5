package treesitter

import (
	"context"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/sirupsen/logrus"

	"github.com/prguard/prguard/internal/models"
)

const maxSignatureLen = 200

// Extractor turns source files into flat symbol lists. It is safe for
// concurrent use; each Extract call owns its parser.
type Extractor struct {
	logger *logrus.Logger
}

func NewExtractor(logger *logrus.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract parses content and returns every class, interface, function,
// method and type declaration it finds. Languages without a grammar
// binding fall back to line-based extraction; unrecognized extensions
// return an empty list. Extraction never fails: a file that cannot be
// parsed degrades to the fallback, and a malformed subtree is skipped
// while the rest of the file is still walked.
func (e *Extractor) Extract(ctx context.Context, path string, content []byte) []models.Symbol {
	grammar := GrammarFor(path)
	if grammar == nil {
		if Recognized(path) {
			return extractFallback(path, content)
		}
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar.Language)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil || tree == nil {
		e.logger.WithFields(logrus.Fields{
			"file":     path,
			"language": grammar.Name,
		}).WithError(err).Debug("parse failed, using line-based extraction")
		return extractFallback(path, content)
	}
	defer tree.Close()

	w := &walker{grammar: grammar, path: path, content: content}
	w.visit(tree.RootNode(), "")
	return w.symbols
}

type walker struct {
	grammar *Grammar
	path    string
	content []byte
	symbols []models.Symbol
}

// visit walks the tree depth-first, carrying the name of the nearest
// enclosing class so that function definitions inside a class body are
// recorded as methods.
func (w *walker) visit(node *sitter.Node, class string) {
	if node == nil {
		return
	}
	kind := node.Type()

	switch {
	case w.grammar.isClass(kind):
		name := w.nameOf(node)
		if name != "" {
			w.emit(name, models.SymbolClass, node, "")
			class = name
		}
	case w.grammar.isInterface(kind):
		name := w.nameOf(node)
		if name != "" {
			w.emit(name, models.SymbolInterface, node, "")
			class = name
		}
	case w.grammar.isMethod(kind):
		if name := w.nameOf(node); name != "" {
			w.emit(name, models.SymbolMethod, node, class)
		}
	case w.grammar.isFunction(kind):
		if name := w.nameOf(node); name != "" {
			if class != "" {
				w.emit(name, models.SymbolMethod, node, class)
			} else {
				w.emit(name, models.SymbolFunction, node, "")
			}
		}
	case w.grammar.isType(kind):
		// The span covers the whole declaration even when the name sits
		// on an inner spec node.
		if name := w.nameOf(node); name != "" {
			w.emit(name, models.SymbolTypeAlias, node, "")
		}
	case kind == w.grammar.ArrowHostKind && w.grammar.ArrowHostKind != "":
		if w.hasArrowChild(node) {
			if name := w.nameOf(node); name != "" {
				if class != "" {
					w.emit(name, models.SymbolMethod, node, class)
				} else {
					w.emit(name, models.SymbolFunction, node, "")
				}
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.visit(node.Child(i), class)
	}
}

func (w *walker) emit(name string, kind models.SymbolKind, node *sitter.Node, parent string) {
	w.symbols = append(w.symbols, models.Symbol{
		Name:         name,
		Kind:         kind,
		FilePath:     w.path,
		StartLine:    int(node.StartPoint().Row) + 1,
		EndLine:      int(node.EndPoint().Row) + 1,
		Signature:    w.signatureOf(node),
		Parent:       parent,
		Dependencies: w.calleesOf(node),
	})
}

// nameOf finds the symbol name by scanning children, descending one
// extra level for declarations whose name lives on an inner node
// (Go's type_spec under type_declaration).
func (w *walker) nameOf(node *sitter.Node) string {
	if child := node.ChildByFieldName("name"); child != nil {
		return w.text(child)
	}
	for depth := 0; depth < 2; depth++ {
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			if contains(w.grammar.NameChildKinds, child.Type()) {
				return w.text(child)
			}
		}
		found := false
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child != nil && child.ChildCount() > 0 {
				node = child
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	return ""
}

func (w *walker) hasArrowChild(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.Type() == w.grammar.ArrowFunctionKind {
			return true
		}
	}
	return false
}

// signatureOf returns the first source line of the definition, capped
// so pathological one-liners stay bounded.
func (w *walker) signatureOf(node *sitter.Node) string {
	text := w.text(node)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return truncateSignature(strings.TrimSpace(text))
}

// truncateSignature caps a signature at maxSignatureLen bytes without
// cutting through a multibyte rune.
func truncateSignature(s string) string {
	if len(s) <= maxSignatureLen {
		return s
	}
	cut := maxSignatureLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// calleesOf collects the distinct names a definition body calls.
func (w *walker) calleesOf(node *sitter.Node) []string {
	seen := make(map[string]bool)
	var names []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if w.grammar.isCall(n.Type()) {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := w.text(fn)
				if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
					name = name[idx+1:]
				}
				if name != "" && !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i))
	}
	return names
}

func (w *walker) text(node *sitter.Node) string {
	start, end := node.StartByte(), node.EndByte()
	if int(start) > len(w.content) || int(end) > len(w.content) || start > end {
		return ""
	}
	return string(w.content[start:end])
}
