// Package graphsync keeps the taxonomy cache in step with the graph store and
// commits expanded relations into it.
package graphsync

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/WessleyAI/relgraph/engine/domain"
	"github.com/WessleyAI/relgraph/engine/taxonomy"
	"github.com/WessleyAI/relgraph/pkg/metrics"
)

// State is the engine's sync state.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateSyncing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateSyncing:
		return "syncing"
	default:
		return "unknown"
	}
}

// Engine owns the taxonomy cache. It is the only writer; everyone else reads
// through Taxonomy().
type Engine struct {
	mu    sync.Mutex
	state State

	cache    *taxonomy.Cache
	logger   *slog.Logger
	metrics  *metrics.Registry
	limiter  *rate.Limiter
	notifier Notifier
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithMetrics records pull and commit metrics into r.
func WithMetrics(r *metrics.Registry) Option { return func(e *Engine) { e.metrics = r } }

// WithWriteLimiter paces commits: one token per relation.
func WithWriteLimiter(l *rate.Limiter) Option { return func(e *Engine) { e.limiter = l } }

// WithNotifier sends a CommitEvent after every commit that reached the store.
func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option { return func(e *Engine) { e.tracer = t } }

// New creates a disconnected Engine around cache. A nil cache gets an empty one.
func New(cache *taxonomy.Cache, opts ...Option) *Engine {
	if cache == nil {
		cache = taxonomy.NewCache()
	}
	e := &Engine{cache: cache}
	for _, o := range opts {
		o(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.metrics == nil {
		e.metrics = metrics.New()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer("engine/graphsync")
	}
	return e
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetConnected moves the engine between Disconnected and Connected. A sync in
// flight finishes but leaves the engine in the state set here.
func (e *Engine) SetConnected(connected bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if connected {
		if e.state == StateDisconnected {
			e.state = StateConnected
		}
		return
	}
	e.state = StateDisconnected
}

// begin enters Syncing or explains why it cannot.
func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateDisconnected:
		return domain.ErrNotConnected
	case StateSyncing:
		return domain.ErrBusy
	}
	e.state = StateSyncing
	return nil
}

func (e *Engine) end() {
	e.mu.Lock()
	if e.state == StateSyncing {
		e.state = StateConnected
	}
	e.mu.Unlock()
}

// Taxonomy returns the read-only view of the cache.
func (e *Engine) Taxonomy() taxonomy.Reader { return e.cache }

// RegisterType adds a type locally, ahead of the store.
func (e *Engine) RegisterType(kind domain.Kind, typ string) ([]string, error) {
	return e.cache.RegisterType(kind, typ)
}

// RegisterValues adds values under an existing local type.
func (e *Engine) RegisterValues(kind domain.Kind, typ string, values []string) error {
	return e.cache.RegisterValues(kind, typ, values)
}

// Seed replaces the cache with the seed's taxonomies.
func (e *Engine) Seed(s taxonomy.Seed) {
	nodes, edges := s.Taxonomies()
	e.cache.ReplaceAll(nodes, edges)
	e.recordSizes()
	e.logger.Info("taxonomy seeded", "node_types", nodes.Len(), "edge_types", edges.Len())
}

func (e *Engine) recordSizes() {
	for _, k := range []domain.Kind{domain.KindNode, domain.KindEdge} {
		e.metrics.Gauge("relgraph_taxonomy_types", "Types known to the taxonomy cache", "kind", k.String()).
			Set(int64(len(e.cache.Types(k))))
	}
}

// spanEnd closes span, recording err when set.
func spanEnd(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
