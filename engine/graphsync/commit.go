package graphsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/WessleyAI/relgraph/engine/graph"
	"github.com/WessleyAI/relgraph/engine/relation"
)

// CommitResult reports how far a commit got. Relations before FailedAt were
// created; nothing is rolled back.
type CommitResult struct {
	BatchID   string `json:"batch_id"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	// FailedAt is the index of the triple that failed, -1 if none did.
	FailedAt int   `json:"failed_at"`
	Err      error `json:"-"`

	Refreshed  bool       `json:"refreshed"`
	Refresh    PullReport `json:"refresh"`
	RefreshErr error      `json:"-"`
}

// OK reports whether every triple was committed.
func (r CommitResult) OK() bool { return r.Err == nil }

// Summary is a one-line human description.
func (r CommitResult) Summary() string {
	switch {
	case r.Err == nil && r.Total == 0:
		return "no relations to commit"
	case r.Err == nil:
		return fmt.Sprintf("%d relations created", r.Succeeded)
	case r.Succeeded == 0:
		return fmt.Sprintf("nothing was committed: %v", r.Err)
	default:
		return fmt.Sprintf("%d of %d relations were created before relation %d failed: %v",
			r.Succeeded, r.Total, r.FailedAt+1, r.Err)
	}
}

// Commit applies triples in order: both endpoint nodes, then the edge. The
// first failure stops the batch. Once the store has been touched the taxonomy
// is pulled again, even after a failure.
func (e *Engine) Commit(ctx context.Context, store graph.Store, triples []relation.Triple) CommitResult {
	res := CommitResult{BatchID: uuid.NewString(), Total: len(triples), FailedAt: -1}
	if err := e.begin(); err != nil {
		res.Err = err
		return res
	}
	defer e.end()

	ctx, span := e.tracer.Start(ctx, "graphsync.commit")
	span.SetAttributes(attribute.String("batch_id", res.BatchID), attribute.Int("total", res.Total))
	start := time.Now()
	log := e.logger.With("batch_id", res.BatchID)

	touched := false
	for i, t := range triples {
		if err := e.wait(ctx); err != nil {
			res.FailedAt, res.Err = i, err
			break
		}
		touched = true
		if err := applyTriple(ctx, store, t); err != nil {
			res.FailedAt, res.Err = i, err
			log.Error("commit relation", "index", i, "relation", t.String(), "err", err)
			break
		}
		res.Succeeded++
		log.Debug("relation committed", "index", i, "relation", t.String())
	}
	e.metrics.Counter("relgraph_relations_committed_total", "Relations written to the store").Add(int64(res.Succeeded))
	e.metrics.Counter("relgraph_commits_total", "Commit batches", "outcome", outcome(res)).Inc()
	e.metrics.Histogram("relgraph_commit_duration_seconds", "Commit batch duration", nil).Since(start)
	span.SetAttributes(attribute.Int("succeeded", res.Succeeded), attribute.Int("failed_at", res.FailedAt))
	spanEnd(span, res.Err)

	log.Info("commit finished",
		"total", res.Total,
		"succeeded", res.Succeeded,
		"failed_at", res.FailedAt,
		"duration", time.Since(start),
	)

	if !touched {
		return res
	}

	// The batch may have been cancelled; the refresh still has to reflect
	// what reached the store.
	refreshCtx := context.WithoutCancel(ctx)
	res.Refresh, res.RefreshErr = e.pull(refreshCtx, store)
	res.Refreshed = res.RefreshErr == nil
	e.notify(refreshCtx, res, triples)
	return res
}

func (e *Engine) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit cancelled: %w", err)
	}
	if e.limiter == nil {
		return nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("commit cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("write limiter: %w", err)
	}
	return nil
}

func applyTriple(ctx context.Context, store graph.Store, t relation.Triple) error {
	a, err := store.UpsertNode(ctx, t.NodeAType, t.NodeAValue)
	if err != nil {
		return err
	}
	b, err := store.UpsertNode(ctx, t.NodeBType, t.NodeBValue)
	if err != nil {
		return err
	}
	_, err = store.UpsertEdge(ctx, a, t.EdgeType, t.EdgeLabel, b)
	return err
}

func outcome(r CommitResult) string {
	switch {
	case r.Err == nil:
		return "ok"
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return "cancelled"
	case r.Succeeded > 0:
		return "partial"
	default:
		return "failed"
	}
}
