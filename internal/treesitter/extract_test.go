package treesitter

import (
	"context"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prguard/prguard/internal/models"
)

func newTestExtractor() *Extractor {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewExtractor(logger)
}

func findSymbol(t *testing.T, symbols []models.Symbol, name string) models.Symbol {
	t.Helper()
	for _, s := range symbols {
		if s.Name == name {
			return s
		}
	}
	require.Failf(t, "symbol not found", "no symbol named %q in %v", name, symbols)
	return models.Symbol{}
}

func TestExtractPython(t *testing.T) {
	src := []byte(`class UserService:
    def get_user(self, user_id):
        return self.repo.find(user_id)

    def delete_user(self, user_id):
        self.repo.remove(user_id)


def standalone():
    return 42
`)
	symbols := newTestExtractor().Extract(context.Background(), "service.py", src)

	svc := findSymbol(t, symbols, "UserService")
	assert.Equal(t, models.SymbolClass, svc.Kind)
	assert.Equal(t, 1, svc.StartLine)

	getUser := findSymbol(t, symbols, "get_user")
	assert.Equal(t, models.SymbolMethod, getUser.Kind)
	assert.Equal(t, "UserService", getUser.Parent)
	assert.Equal(t, 2, getUser.StartLine)
	assert.Equal(t, "def get_user(self, user_id):", getUser.Signature)

	standalone := findSymbol(t, symbols, "standalone")
	assert.Equal(t, models.SymbolFunction, standalone.Kind)
	assert.Empty(t, standalone.Parent)
	assert.Equal(t, 9, standalone.StartLine)
}

func TestExtractPythonDecorated(t *testing.T) {
	src := []byte(`@app.route("/users")
def list_users():
    return fetch_all()
`)
	symbols := newTestExtractor().Extract(context.Background(), "routes.py", src)

	fn := findSymbol(t, symbols, "list_users")
	assert.Equal(t, models.SymbolFunction, fn.Kind)
	assert.Contains(t, fn.Dependencies, "fetch_all")
}

func TestExtractGo(t *testing.T) {
	src := []byte(`package server

type Config struct {
	Port int
}

func New(cfg Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Start() error {
	return s.listen()
}
`)
	symbols := newTestExtractor().Extract(context.Background(), "server.go", src)

	cfg := findSymbol(t, symbols, "Config")
	assert.Equal(t, models.SymbolTypeAlias, cfg.Kind)
	assert.Equal(t, 3, cfg.StartLine)
	assert.Equal(t, 5, cfg.EndLine)

	newFn := findSymbol(t, symbols, "New")
	assert.Equal(t, models.SymbolFunction, newFn.Kind)

	start := findSymbol(t, symbols, "Start")
	assert.Equal(t, models.SymbolMethod, start.Kind)
	assert.Contains(t, start.Dependencies, "listen")
}

func TestExtractJavaScript(t *testing.T) {
	src := []byte(`class Cart {
  addItem(item) {
    this.items.push(item);
  }
}

function checkout(cart) {
  return submit(cart);
}

const total = (cart) => cart.items.length;
`)
	symbols := newTestExtractor().Extract(context.Background(), "cart.js", src)

	cart := findSymbol(t, symbols, "Cart")
	assert.Equal(t, models.SymbolClass, cart.Kind)

	add := findSymbol(t, symbols, "addItem")
	assert.Equal(t, models.SymbolMethod, add.Kind)
	assert.Equal(t, "Cart", add.Parent)

	checkout := findSymbol(t, symbols, "checkout")
	assert.Equal(t, models.SymbolFunction, checkout.Kind)

	total := findSymbol(t, symbols, "total")
	assert.Equal(t, models.SymbolFunction, total.Kind)
}

func TestExtractTypeScript(t *testing.T) {
	src := []byte(`interface Props {
  name: string;
}

type Handler = (req: Request) => void;

class Widget {
  render(): string {
    return this.props.name;
  }
}
`)
	symbols := newTestExtractor().Extract(context.Background(), "widget.ts", src)

	props := findSymbol(t, symbols, "Props")
	assert.Equal(t, models.SymbolInterface, props.Kind)

	handler := findSymbol(t, symbols, "Handler")
	assert.Equal(t, models.SymbolTypeAlias, handler.Kind)

	render := findSymbol(t, symbols, "render")
	assert.Equal(t, models.SymbolMethod, render.Kind)
	assert.Equal(t, "Widget", render.Parent)
}

func TestExtractUnrecognizedExtension(t *testing.T) {
	symbols := newTestExtractor().Extract(context.Background(), "notes.txt", []byte("def not_code():"))
	assert.Empty(t, symbols)
}

func TestExtractEmptyFile(t *testing.T) {
	symbols := newTestExtractor().Extract(context.Background(), "empty.py", nil)
	assert.Empty(t, symbols)
}

func TestExtractSignatureTruncated(t *testing.T) {
	long := "def f("
	for i := 0; i < 60; i++ {
		long += "arg_name, "
	}
	long += "last):\n    pass\n"
	symbols := newTestExtractor().Extract(context.Background(), "long.py", []byte(long))

	f := findSymbol(t, symbols, "f")
	assert.LessOrEqual(t, len(f.Signature), maxSignatureLen)
}

func TestExtractSignatureTruncationKeepsValidUTF8(t *testing.T) {
	// "def f(s=\"" is 9 bytes, so the 200-byte cap lands at an odd
	// offset into the run of 2-byte runes.
	long := "def f(s=\"" + strings.Repeat("é", 120) + "\"):\n    pass\n"
	symbols := newTestExtractor().Extract(context.Background(), "long.py", []byte(long))

	f := findSymbol(t, symbols, "f")
	assert.Equal(t, maxSignatureLen-1, len(f.Signature))
	assert.True(t, utf8.ValidString(f.Signature))
}

func TestTruncateSignatureRuneBoundary(t *testing.T) {
	s := strings.Repeat("a", maxSignatureLen-1) + "é"
	got := truncateSignature(s)
	assert.Equal(t, maxSignatureLen-1, len(got))
	assert.True(t, utf8.ValidString(got))

	short := "def f(x):"
	assert.Equal(t, short, truncateSignature(short))
}
