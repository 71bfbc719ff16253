package graphsync

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/WessleyAI/relgraph/engine/domain"
	"github.com/WessleyAI/relgraph/engine/graph"
	"github.com/WessleyAI/relgraph/engine/taxonomy"
)

// Warning records a type whose values could not be listed. The type is kept
// in the cache with no values.
type Warning struct {
	Kind string `json:"kind"`
	Type string `json:"type"`
	Err  string `json:"error"`
}

// PullReport describes a completed pull.
type PullReport struct {
	NodeTypes int       `json:"node_types"`
	EdgeTypes int       `json:"edge_types"`
	Warnings  []Warning `json:"warnings,omitempty"`
}

// PullTaxonomy rebuilds the cache from store. If either type listing fails the
// cache is untouched and the StoreError is returned; per-type value failures
// only produce warnings.
func (e *Engine) PullTaxonomy(ctx context.Context, store graph.Store) (PullReport, error) {
	if err := e.begin(); err != nil {
		return PullReport{}, err
	}
	defer e.end()
	return e.pull(ctx, store)
}

func (e *Engine) pull(ctx context.Context, store graph.Store) (rep PullReport, err error) {
	ctx, span := e.tracer.Start(ctx, "graphsync.pull")
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		e.metrics.Counter("relgraph_pulls_total", "Taxonomy pulls", "outcome", result).Inc()
		e.metrics.Histogram("relgraph_pull_duration_seconds", "Taxonomy pull duration", nil).Since(start)
		span.SetAttributes(
			attribute.Int("node_types", rep.NodeTypes),
			attribute.Int("edge_types", rep.EdgeTypes),
			attribute.Int("warnings", len(rep.Warnings)),
		)
		spanEnd(span, err)
	}()

	nodeTypes, err := store.ListNodeTypes(ctx)
	if err != nil {
		e.logger.Error("list node types", "err", err)
		return PullReport{}, err
	}
	edgeTypes, err := store.ListEdgeTypes(ctx)
	if err != nil {
		e.logger.Error("list edge types", "err", err)
		return PullReport{}, err
	}

	nodes := taxonomy.New()
	for _, typ := range nodeTypes {
		nodes.AddType(typ)
		vals, verr := store.ListValuesOfNodeType(ctx, typ)
		if verr != nil {
			rep.Warnings = append(rep.Warnings, e.warn(domain.KindNode, typ, verr))
			continue
		}
		nodes.Add(typ, vals...)
	}

	edges := taxonomy.New()
	for _, typ := range edgeTypes {
		edges.AddType(typ)
		labels, lerr := store.ListDistinctEdgeLabelsOfType(ctx, typ)
		if lerr != nil {
			rep.Warnings = append(rep.Warnings, e.warn(domain.KindEdge, typ, lerr))
			continue
		}
		edges.Add(typ, labels...)
	}

	e.cache.ReplaceAll(nodes, edges)
	e.recordSizes()
	rep.NodeTypes, rep.EdgeTypes = nodes.Len(), edges.Len()
	e.logger.Info("taxonomy pulled",
		"node_types", rep.NodeTypes,
		"edge_types", rep.EdgeTypes,
		"warnings", len(rep.Warnings),
		"duration", time.Since(start),
	)
	return rep, nil
}

func (e *Engine) warn(kind domain.Kind, typ string, err error) Warning {
	e.logger.Warn("list values failed", "kind", kind, "type", typ, "err", err)
	return Warning{Kind: kind.String(), Type: typ, Err: err.Error()}
}
