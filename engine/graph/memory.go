package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/WessleyAI/relgraph/engine/domain"
)

// Op names a store operation for fault injection.
type Op string

const (
	OpListNodeTypes  Op = "list_node_types"
	OpListEdgeTypes  Op = "list_edge_types"
	OpListNodeValues Op = "list_node_values"
	OpListEdgeLabels Op = "list_edge_labels"
	OpUpsertNode     Op = "upsert_node"
	OpUpsertEdge     Op = "upsert_edge"
)

// FaultFunc decides whether an operation fails. typ and value are the
// operation's type name and value or label, empty where not applicable.
type FaultFunc func(op Op, typ, value string) error

type nodeKey struct{ typ, value string }

type edgeKey struct{ from, typ, label, to string }

// MemoryStore is an in-process Store with the same identity rules as
// Neo4jStore. It backs memory:// connections and tests.
type MemoryStore struct {
	mu     sync.Mutex
	nodes  map[nodeKey]NodeHandle
	byID   map[string]nodeKey
	edges  map[edgeKey]EdgeHandle
	nextID int
	fault  FaultFunc
	closed bool
}

var (
	_ Store         = (*MemoryStore)(nil)
	_ StatsReporter = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[nodeKey]NodeHandle),
		byID:  make(map[string]nodeKey),
		edges: make(map[edgeKey]EdgeHandle),
	}
}

// SetFault installs f; nil removes it.
func (m *MemoryStore) SetFault(f FaultFunc) {
	m.mu.Lock()
	m.fault = f
	m.mu.Unlock()
}

// Close marks the store closed; later calls fail.
func (m *MemoryStore) Close(context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// check must be called with mu held.
func (m *MemoryStore) check(op Op, typ, value string) error {
	if m.closed {
		return domain.NewStoreError(string(op), typ, fmt.Errorf("store closed"))
	}
	if m.fault != nil {
		if err := m.fault(op, typ, value); err != nil {
			return domain.NewStoreError(string(op), typ, err)
		}
	}
	return nil
}

func (m *MemoryStore) ListNodeTypes(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListNodeTypes, "", ""); err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for k := range m.nodes {
		set[k.typ] = struct{}{}
	}
	return sortedKeys(set), nil
}

func (m *MemoryStore) ListEdgeTypes(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListEdgeTypes, "", ""); err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for k := range m.edges {
		set[k.typ] = struct{}{}
	}
	return sortedKeys(set), nil
}

func (m *MemoryStore) ListValuesOfNodeType(_ context.Context, typ string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListNodeValues, typ, ""); err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for k := range m.nodes {
		if k.typ == typ {
			set[k.value] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

func (m *MemoryStore) ListDistinctEdgeLabelsOfType(_ context.Context, typ string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpListEdgeLabels, typ, ""); err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for k := range m.edges {
		if k.typ == typ {
			set[k.label] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

func (m *MemoryStore) UpsertNode(_ context.Context, typ, value string) (NodeHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpUpsertNode, typ, value); err != nil {
		return NodeHandle{}, err
	}
	if err := domain.ValidateTypeName(typ); err != nil {
		return NodeHandle{}, domain.NewStoreError(string(OpUpsertNode), typ, err)
	}
	k := nodeKey{typ, value}
	if h, ok := m.nodes[k]; ok {
		return h, nil
	}
	h := NodeHandle{ID: m.newID("n"), Type: typ, Value: value}
	m.nodes[k] = h
	m.byID[h.ID] = k
	return h, nil
}

func (m *MemoryStore) UpsertEdge(_ context.Context, from NodeHandle, typ, label string, to NodeHandle) (EdgeHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(OpUpsertEdge, typ, label); err != nil {
		return EdgeHandle{}, err
	}
	if err := domain.ValidateTypeName(typ); err != nil {
		return EdgeHandle{}, domain.NewStoreError(string(OpUpsertEdge), typ, err)
	}
	for _, id := range []string{from.ID, to.ID} {
		if _, ok := m.byID[id]; !ok {
			return EdgeHandle{}, domain.NewStoreError(string(OpUpsertEdge), typ, fmt.Errorf("node %q not found", id))
		}
	}
	k := edgeKey{from.ID, typ, label, to.ID}
	if h, ok := m.edges[k]; ok {
		return h, nil
	}
	h := EdgeHandle{ID: m.newID("e"), Type: typ, Label: label, From: from.ID, To: to.ID}
	m.edges[k] = h
	return h, nil
}

// Stats counts nodes per type and edges per type.
func (m *MemoryStore) Stats(context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{Nodes: make(map[string]int64), Relationships: make(map[string]int64)}
	for k := range m.nodes {
		s.Nodes[k.typ]++
	}
	for k := range m.edges {
		s.Relationships[k.typ]++
	}
	return s, nil
}

// HasNode reports whether a node (typ, value) exists.
func (m *MemoryStore) HasNode(typ, value string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[nodeKey{typ, value}]
	return ok
}

// HasEdge reports whether the relation a -[typ {label}]-> b exists.
func (m *MemoryStore) HasEdge(aType, aValue, typ, label, bType, bValue string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.nodes[nodeKey{aType, aValue}]
	if !ok {
		return false
	}
	b, ok := m.nodes[nodeKey{bType, bValue}]
	if !ok {
		return false
	}
	_, ok = m.edges[edgeKey{a.ID, typ, label, b.ID}]
	return ok
}

// Counts returns the number of nodes and edges.
func (m *MemoryStore) Counts() (nodes, edges int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes), len(m.edges)
}

func (m *MemoryStore) newID(prefix string) string {
	id := fmt.Sprintf("%s:%d", prefix, m.nextID)
	m.nextID++
	return id
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
