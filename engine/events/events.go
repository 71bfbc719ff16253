// Package events publishes commit notifications to NATS.
package events

import (
	"context"
	"log/slog"

	"github.com/WessleyAI/relgraph/engine/graphsync"
	"github.com/WessleyAI/relgraph/pkg/natsutil"
)

// DefaultSubject is where commit events go unless configured otherwise.
const DefaultSubject = "relgraph.relations.committed"

// NATSNotifier publishes every graphsync.CommitEvent as JSON.
type NATSNotifier struct {
	pub     natsutil.Publisher
	subject string
	logger  *slog.Logger
}

var _ graphsync.Notifier = (*NATSNotifier)(nil)

// NewNATSNotifier returns a notifier publishing on subject (DefaultSubject if empty).
func NewNATSNotifier(pub natsutil.Publisher, subject string, logger *slog.Logger) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSNotifier{pub: pub, subject: subject, logger: logger}
}

// NotifyCommit implements graphsync.Notifier.
func (n *NATSNotifier) NotifyCommit(ctx context.Context, ev graphsync.CommitEvent) error {
	if err := natsutil.Publish(ctx, n.pub, n.subject, ev); err != nil {
		return err
	}
	n.logger.Debug("commit event published", "subject", n.subject, "batch_id", ev.BatchID)
	return nil
}

// Subject returns the subject events are published on.
func (n *NATSNotifier) Subject() string { return n.subject }
