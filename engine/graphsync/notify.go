package graphsync

import (
	"context"
	"time"

	"github.com/WessleyAI/relgraph/engine/relation"
)

// CommitEvent is sent to the Notifier after a commit reached the store.
type CommitEvent struct {
	BatchID   string            `json:"batch_id"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	FailedAt  int               `json:"failed_at"`
	Error     string            `json:"error,omitempty"`
	Committed []relation.Triple `json:"committed"`
	At        time.Time         `json:"at"`
}

// Notifier receives commit events. Errors are logged and otherwise ignored.
type Notifier interface {
	NotifyCommit(ctx context.Context, ev CommitEvent) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev CommitEvent) error

func (f NotifierFunc) NotifyCommit(ctx context.Context, ev CommitEvent) error { return f(ctx, ev) }

func (e *Engine) notify(ctx context.Context, res CommitResult, triples []relation.Triple) {
	if e.notifier == nil {
		return
	}
	ev := CommitEvent{
		BatchID:   res.BatchID,
		Total:     res.Total,
		Succeeded: res.Succeeded,
		FailedAt:  res.FailedAt,
		Committed: triples[:res.Succeeded],
		At:        time.Now().UTC(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	if err := e.notifier.NotifyCommit(ctx, ev); err != nil {
		e.logger.Warn("commit notification failed", "batch_id", res.BatchID, "err", err)
	}
}
