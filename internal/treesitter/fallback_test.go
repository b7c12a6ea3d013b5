package treesitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prguard/prguard/internal/models"
)

func TestFallbackRust(t *testing.T) {
	src := []byte(`struct Inventory {
    items: Vec<Item>,
}

pub fn restock(inv: &mut Inventory) {
}

fn audit() {
}
`)
	symbols := newTestExtractor().Extract(context.Background(), "inventory.rs", src)

	inv := findSymbol(t, symbols, "Inventory")
	assert.Equal(t, models.SymbolClass, inv.Kind)
	assert.Equal(t, 1, inv.StartLine)
	assert.Equal(t, 1, inv.EndLine)

	restock := findSymbol(t, symbols, "restock")
	assert.Equal(t, models.SymbolFunction, restock.Kind)
	assert.Equal(t, 5, restock.StartLine)
	assert.Equal(t, "pub fn restock(inv: &mut Inventory) {", restock.Signature)

	audit := findSymbol(t, symbols, "audit")
	assert.Equal(t, models.SymbolFunction, audit.Kind)
}

func TestFallbackJava(t *testing.T) {
	src := []byte(`public class OrderController {
    void submit() {}
}

interface Repository {
}
`)
	symbols := newTestExtractor().Extract(context.Background(), "OrderController.java", src)

	assert.Equal(t, models.SymbolClass, findSymbol(t, symbols, "OrderController").Kind)
	assert.Equal(t, models.SymbolClass, findSymbol(t, symbols, "Repository").Kind)
}

func TestFallbackNoMatches(t *testing.T) {
	symbols := newTestExtractor().Extract(context.Background(), "config.rb", []byte("x = 1\ny = 2\n"))
	assert.Empty(t, symbols)
}
