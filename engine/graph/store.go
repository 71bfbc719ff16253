// Package graph provides the graph store capability the relation engine
// commits into: a Neo4j implementation and an in-process one.
package graph

import "context"

// Property keys holding a node's value and an edge's label.
const (
	NodeValueProperty = "name"
	EdgeLabelProperty = "label"
)

// Store is the graph store capability. Upserts are create-if-absent: nodes
// are keyed by (type, value), edges by (from, type, label, to).
// Every error returned is a *domain.StoreError.
type Store interface {
	ListNodeTypes(ctx context.Context) ([]string, error)
	ListEdgeTypes(ctx context.Context) ([]string, error)
	ListValuesOfNodeType(ctx context.Context, typ string) ([]string, error)
	ListDistinctEdgeLabelsOfType(ctx context.Context, typ string) ([]string, error)
	UpsertNode(ctx context.Context, typ, value string) (NodeHandle, error)
	UpsertEdge(ctx context.Context, from NodeHandle, typ, label string, to NodeHandle) (EdgeHandle, error)
}

// NodeHandle identifies a node in the store.
type NodeHandle struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// EdgeHandle identifies a relationship in the store.
type EdgeHandle struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Stats holds entity counts grouped by node label and relationship type.
type Stats struct {
	Nodes         map[string]int64 `json:"nodes"`
	Relationships map[string]int64 `json:"relationships"`
}

// TotalNodes sums node counts.
func (s Stats) TotalNodes() int64 { return sum(s.Nodes) }

// TotalRelationships sums relationship counts.
func (s Stats) TotalRelationships() int64 { return sum(s.Relationships) }

func sum(m map[string]int64) int64 {
	var n int64
	for _, v := range m {
		n += v
	}
	return n
}

// StatsReporter is implemented by stores that can count their entities.
type StatsReporter interface {
	Stats(ctx context.Context) (Stats, error)
}
