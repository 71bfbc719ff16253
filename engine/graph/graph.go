package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/relgraph/engine/domain"
)

// Neo4jStore implements Store on Neo4j. Each call opens its own session and
// closes it before returning.
type Neo4jStore struct {
	opener SessionOpener
}

var (
	_ Store         = (*Neo4jStore)(nil)
	_ StatsReporter = (*Neo4jStore)(nil)
)

// New creates a Neo4jStore on driver. database may be empty.
func New(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return NewWithOpener(NewDriverOpener(driver, database))
}

// NewWithOpener creates a Neo4jStore using a custom session opener.
func NewWithOpener(opener SessionOpener) *Neo4jStore {
	return &Neo4jStore{opener: opener}
}

// ListNodeTypes returns all node labels.
func (g *Neo4jStore) ListNodeTypes(ctx context.Context) ([]string, error) {
	return g.readStrings(ctx, "list node types", "", listNodeTypesQuery, nil, "type")
}

// ListEdgeTypes returns all relationship types.
func (g *Neo4jStore) ListEdgeTypes(ctx context.Context) ([]string, error) {
	return g.readStrings(ctx, "list edge types", "", listEdgeTypesQuery, nil, "type")
}

// ListValuesOfNodeType returns the distinct string values of nodes labelled typ.
// Nodes whose value property is missing or not a string are skipped.
func (g *Neo4jStore) ListValuesOfNodeType(ctx context.Context, typ string) ([]string, error) {
	label, err := quoteIdentifier(typ)
	if err != nil {
		return nil, domain.NewStoreError("list node values", typ, err)
	}
	return g.readStrings(ctx, "list node values", typ, nodeValuesQuery(label), nil, "value")
}

// ListDistinctEdgeLabelsOfType returns the distinct labels on relationships of type typ.
func (g *Neo4jStore) ListDistinctEdgeLabelsOfType(ctx context.Context, typ string) ([]string, error) {
	relType, err := quoteIdentifier(typ)
	if err != nil {
		return nil, domain.NewStoreError("list edge labels", typ, err)
	}
	return g.readStrings(ctx, "list edge labels", typ, edgeLabelsQuery(relType), nil, "value")
}

// UpsertNode merges a node keyed by label and value.
func (g *Neo4jStore) UpsertNode(ctx context.Context, typ, value string) (NodeHandle, error) {
	label, err := quoteIdentifier(typ)
	if err != nil {
		return NodeHandle{}, domain.NewStoreError("upsert node", typ, err)
	}
	id, err := g.writeID(ctx, mergeNodeQuery(label), map[string]any{"value": value})
	if err != nil {
		return NodeHandle{}, domain.NewStoreError("upsert node", typ, err)
	}
	return NodeHandle{ID: id, Type: typ, Value: value}, nil
}

// UpsertEdge merges a directed relationship of type typ carrying label between two existing nodes.
func (g *Neo4jStore) UpsertEdge(ctx context.Context, from NodeHandle, typ, label string, to NodeHandle) (EdgeHandle, error) {
	relType, err := quoteIdentifier(typ)
	if err != nil {
		return EdgeHandle{}, domain.NewStoreError("upsert edge", typ, err)
	}
	id, err := g.writeID(ctx, mergeEdgeQuery(relType), map[string]any{
		"from":  from.ID,
		"to":    to.ID,
		"label": label,
	})
	if err != nil {
		return EdgeHandle{}, domain.NewStoreError("upsert edge", typ, err)
	}
	return EdgeHandle{ID: id, Type: typ, Label: label, From: from.ID, To: to.ID}, nil
}

// Stats returns node counts per label and relationship counts per type.
func (g *Neo4jStore) Stats(ctx context.Context) (Stats, error) {
	nodes, err := g.counts(ctx, nodeCountsQuery)
	if err != nil {
		return Stats{}, domain.NewStoreError("count nodes", "", err)
	}
	rels, err := g.counts(ctx, relCountsQuery)
	if err != nil {
		return Stats{}, domain.NewStoreError("count relationships", "", err)
	}
	return Stats{Nodes: nodes, Relationships: rels}, nil
}

func (g *Neo4jStore) readStrings(ctx context.Context, op, typ, cypher string, params map[string]any, key string) ([]string, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, domain.NewStoreError(op, typ, err)
	}
	var out []string
	for result.Next(ctx) {
		v, ok := result.Record().Get(key)
		if !ok {
			return nil, domain.NewStoreError(op, typ, fmt.Errorf("no %s field in result", key))
		}
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	if err := result.Err(); err != nil {
		return nil, domain.NewStoreError(op, typ, err)
	}
	return out, nil
}

func (g *Neo4jStore) writeID(ctx context.Context, cypher string, params map[string]any) (string, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	raw, err := sess.ExecuteWrite(ctx, func(tx CypherRunner) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, errors.New("merge returned no row")
		}
		id, ok := result.Record().Get("id")
		if !ok {
			return nil, errors.New("no id field in result")
		}
		s, ok := id.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected id type %T", id)
		}
		return s, nil
	})
	if err != nil {
		return "", err
	}
	return raw.(string), nil
}

func (g *Neo4jStore) counts(ctx context.Context, cypher string) (map[string]int64, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for result.Next(ctx) {
		rec := result.Record()
		typ, _ := rec.Get("type")
		cnt, _ := rec.Get("count")
		if t, ok := typ.(string); ok {
			if c, ok := cnt.(int64); ok {
				counts[t] += c
			}
		}
	}
	return counts, result.Err()
}
