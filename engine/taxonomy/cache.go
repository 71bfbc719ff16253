package taxonomy

import (
	"sync"

	"github.com/WessleyAI/relgraph/engine/domain"
)

// Reader is the read-only view of a Cache handed to callers that do not own it.
type Reader interface {
	ValuesOf(kind domain.Kind, typ string) []string
	Types(kind domain.Kind) []string
	HasType(kind domain.Kind, typ string) bool
	HasValue(kind domain.Kind, typ, value string) bool
	Snapshot() Snapshot
}

// Snapshot is a point-in-time copy of both taxonomies.
type Snapshot struct {
	Nodes []Entry `json:"nodes"`
	Edges []Entry `json:"edges"`
}

// Cache is the in-memory taxonomy cache for nodes and edges.
// All methods are safe for concurrent use; writers never expose a partially
// replaced state to readers.
type Cache struct {
	mu    sync.RWMutex
	nodes *Taxonomy
	edges *Taxonomy
}

var _ Reader = (*Cache)(nil)

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{nodes: New(), edges: New()}
}

func (c *Cache) tax(kind domain.Kind) *Taxonomy {
	if kind == domain.KindEdge {
		return c.edges
	}
	return c.nodes
}

// ReplaceAll swaps the entire contents. The arguments are copied; nil means empty.
func (c *Cache) ReplaceAll(nodes, edges *Taxonomy) {
	n, e := New(), New()
	if nodes != nil {
		n = nodes.Clone()
	}
	if edges != nil {
		e = edges.Clone()
	}
	c.mu.Lock()
	c.nodes, c.edges = n, e
	c.mu.Unlock()
}

// RegisterType creates typ with an empty value set unless it already exists,
// and returns its current values.
func (c *Cache) RegisterType(kind domain.Kind, typ string) ([]string, error) {
	if err := domain.ValidateTypeName(typ); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.tax(kind)
	t.AddType(typ)
	return t.Values(typ), nil
}

// RegisterValues appends values under an existing type, skipping ones
// already present. Nothing is written if any value is invalid.
func (c *Cache) RegisterValues(kind domain.Kind, typ string, values []string) error {
	for _, v := range values {
		if err := domain.ValidateValueName(v); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.tax(kind)
	if !t.Has(typ) {
		return &domain.UnknownTypeError{Kind: kind, Type: typ}
	}
	t.Add(typ, values...)
	return nil
}

// ValuesOf returns the values under typ; unknown types yield an empty result.
func (c *Cache) ValuesOf(kind domain.Kind, typ string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tax(kind).Values(typ)
}

// Types returns the type names of kind in registration order.
func (c *Cache) Types(kind domain.Kind) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tax(kind).Types()
}

// HasType reports whether typ is registered for kind.
func (c *Cache) HasType(kind domain.Kind, typ string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tax(kind).Has(typ)
}

// HasValue reports whether value is registered under typ.
func (c *Cache) HasValue(kind domain.Kind, typ, value string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tax(kind).HasValue(typ, value)
}

// Snapshot copies both taxonomies.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{Nodes: c.nodes.Entries(), Edges: c.edges.Entries()}
}
