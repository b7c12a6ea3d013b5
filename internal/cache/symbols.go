package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/prguard/prguard/internal/models"
)

const defaultSymbolCacheSize = 2048

// SymbolCache holds extracted symbol lists keyed by (file path,
// revision). Extraction is pure, so a stale entry is impossible while
// the revision is part of the key. Safe for concurrent use; duplicate
// concurrent misses recompute redundantly, which is harmless.
type SymbolCache struct {
	entries *lru.Cache[string, []models.Symbol]
}

// NewSymbolCache creates a cache bounded to size entries. size <= 0
// uses the default bound.
func NewSymbolCache(size int) (*SymbolCache, error) {
	if size <= 0 {
		size = defaultSymbolCacheSize
	}
	entries, err := lru.New[string, []models.Symbol](size)
	if err != nil {
		return nil, err
	}
	return &SymbolCache{entries: entries}, nil
}

// Get returns the cached symbols for a file at a revision.
func (c *SymbolCache) Get(path, revision string) ([]models.Symbol, bool) {
	return c.entries.Get(key(path, revision))
}

// Put stores symbols for a file at a revision.
func (c *SymbolCache) Put(path, revision string, symbols []models.Symbol) {
	c.entries.Add(key(path, revision), symbols)
}

// Len returns the number of cached entries.
func (c *SymbolCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *SymbolCache) Purge() {
	c.entries.Purge()
}

func key(path, revision string) string {
	return fmt.Sprintf("%s@%s", path, revision)
}
