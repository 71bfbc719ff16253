// Package session is the single interactive editing session shared by the
// HTTP API and the CLI: connection, selection, create-then-select and submit.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/WessleyAI/relgraph/engine/conn"
	"github.com/WessleyAI/relgraph/engine/domain"
	"github.com/WessleyAI/relgraph/engine/graph"
	"github.com/WessleyAI/relgraph/engine/graphsync"
	"github.com/WessleyAI/relgraph/engine/relation"
	"github.com/WessleyAI/relgraph/engine/selection"
	"github.com/WessleyAI/relgraph/engine/taxonomy"
)

// Session serialises every operation behind one mutex.
type Session struct {
	mu     sync.Mutex
	conn   *conn.Lifecycle
	engine *graphsync.Engine
	sel    *selection.Set
	logger *slog.Logger
}

// New creates a session in single mode.
func New(lc *conn.Lifecycle, engine *graphsync.Engine, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		conn:   lc,
		engine: engine,
		sel:    selection.New(domain.ModeSingle),
		logger: logger,
	}
}

// Status describes the connection.
type Status struct {
	Connection string `json:"connection"`
	Sync       string `json:"sync"`
	URI        string `json:"uri,omitempty"`
}

// Status returns the connection and sync state.
func (s *Session) Status() Status {
	return Status{
		Connection: s.conn.State().String(),
		Sync:       s.engine.State().String(),
		URI:        s.conn.URI(),
	}
}

// Connected reports whether a store connection is live.
func (s *Session) Connected() bool { return s.conn.State() == conn.StateConnected }

// Connect opens a connection and pulls the taxonomy. A failed pull leaves the
// session connected and is returned as the error.
func (s *Session) Connect(ctx context.Context, creds conn.Credentials) (graphsync.PullReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.SetConnected(false)
	if err := s.conn.Connect(ctx, creds); err != nil {
		return graphsync.PullReport{}, err
	}
	s.engine.SetConnected(true)
	return s.refresh(ctx)
}

// Disconnect closes the connection. The cache and selection are kept.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetConnected(false)
	return s.conn.Disconnect(ctx)
}

// Refresh pulls the taxonomy from the store.
func (s *Session) Refresh(ctx context.Context) (graphsync.PullReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

func (s *Session) refresh(ctx context.Context) (graphsync.PullReport, error) {
	store, err := s.conn.Store()
	if err != nil {
		return graphsync.PullReport{}, err
	}
	return s.engine.PullTaxonomy(ctx, store)
}

// Stats returns entity counts when the store supports it.
func (s *Session) Stats(ctx context.Context) (graph.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, err := s.conn.Store()
	if err != nil {
		return graph.Stats{}, err
	}
	sr, ok := store.(graph.StatsReporter)
	if !ok {
		return graph.Stats{}, errors.New("store does not report stats")
	}
	return sr.Stats(ctx)
}

// Taxonomy returns the read-only cache view.
func (s *Session) Taxonomy() taxonomy.Reader { return s.engine.Taxonomy() }

// Selection returns a copy of the current selection.
func (s *Session) Selection() selection.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.View()
}

// ResetSelection clears every slot, keeping the mode.
func (s *Session) ResetSelection() {
	s.mu.Lock()
	s.sel.Reset()
	s.mu.Unlock()
}

// SetMode switches between single and bulk.
func (s *Session) SetMode(m domain.Mode) {
	s.mu.Lock()
	s.sel.SetMode(m)
	s.mu.Unlock()
}

// ChooseType sets the slot's type, which must be known to the cache.
func (s *Session) ChooseType(slot domain.Slot, typ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.engine.Taxonomy().HasType(slot.Kind(), typ) {
		return &domain.UnknownTypeError{Kind: slot.Kind(), Type: typ}
	}
	s.sel.ChooseType(slot, typ)
	return nil
}

// Select picks or toggles a value of the slot's chosen type.
func (s *Session) Select(slot domain.Slot, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	typ, err := s.chosenType(slot)
	if err != nil {
		return err
	}
	if !s.engine.Taxonomy().HasValue(slot.Kind(), typ, value) {
		return &domain.UnknownValueError{Kind: slot.Kind(), Type: typ, Value: value}
	}
	s.sel.Select(slot, value)
	return nil
}

// CreateTypes registers each line of raw as a type of the slot's kind and
// chooses the first one. It returns the parsed entries.
func (s *Session) CreateTypes(slot domain.Slot, raw string) ([]string, error) {
	entries := selection.ParseEntries(raw)
	if len(entries) == 0 {
		return nil, domain.NewValidationError("types", raw, domain.ErrInvalidName)
	}
	for _, e := range entries {
		if err := domain.ValidateTypeName(e); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, err := s.engine.RegisterType(slot.Kind(), e); err != nil {
			return nil, err
		}
	}
	s.sel.ChooseType(slot, entries[0])
	s.logger.Info("types created", "slot", slot, "types", entries)
	return entries, nil
}

// CreateValues registers each line of raw under the slot's chosen type, then
// selects them: appended in bulk mode, the first one in single mode.
func (s *Session) CreateValues(slot domain.Slot, raw string) ([]string, error) {
	entries := selection.ParseEntries(raw)
	if len(entries) == 0 {
		return nil, domain.NewValidationError("values", raw, domain.ErrInvalidName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	typ, err := s.chosenType(slot)
	if err != nil {
		return nil, err
	}
	if err := s.engine.RegisterValues(slot.Kind(), typ, entries); err != nil {
		return nil, err
	}
	if s.sel.Mode() == domain.ModeBulk {
		s.sel.SetValues(slot, append(s.sel.Values(slot), entries...))
	} else {
		s.sel.SetValues(slot, entries[:1])
	}
	s.logger.Info("values created", "slot", slot, "type", typ, "values", entries)
	return entries, nil
}

func (s *Session) chosenType(slot domain.Slot) (string, error) {
	typ, ok := s.sel.Type(slot)
	if !ok {
		return "", &domain.IncompleteSelectionError{Slot: slot, Missing: "type"}
	}
	return typ, nil
}

// Preview returns the relations Submit would create.
func (s *Session) Preview() ([]relation.Triple, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return relation.Expand(s.sel)
}

// Count returns how many relations Preview would list without building them.
func (s *Session) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return relation.Count(s.sel)
}

// Submit expands the selection and commits it. The selection is reset only
// when every relation was created.
func (s *Session) Submit(ctx context.Context) (graphsync.CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	triples, err := relation.Expand(s.sel)
	if err != nil {
		return graphsync.CommitResult{}, err
	}
	store, err := s.conn.Store()
	if err != nil {
		return graphsync.CommitResult{}, err
	}
	res := s.engine.Commit(ctx, store, triples)
	if res.OK() {
		s.sel.Reset()
		return res, nil
	}
	return res, fmt.Errorf("submit: %w", res.Err)
}
