package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/WessleyAI/relgraph/engine/domain"
	"github.com/WessleyAI/relgraph/engine/graphsync"
	"github.com/WessleyAI/relgraph/engine/relation"
	"github.com/WessleyAI/relgraph/engine/selection"
	"github.com/WessleyAI/relgraph/engine/session"
	"github.com/WessleyAI/relgraph/pkg/credentials"
	"github.com/WessleyAI/relgraph/pkg/fn"
	"github.com/WessleyAI/relgraph/pkg/metrics"
)

type server struct {
	sess    *session.Session
	creds   *credentials.FileStore
	metrics *metrics.Registry
	logger  *slog.Logger
	retry   fn.RetryOpts
}

func newServer(sess *session.Session, creds *credentials.FileStore, reg *metrics.Registry, logger *slog.Logger) *server {
	retry := fn.DefaultRetry
	retry.Retryable = func(err error) bool { return errors.Is(err, domain.ErrConnectivity) }
	retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.Warn("connect attempt failed", "attempt", attempt, "retry_in", wait, "err", err)
	}
	return &server{sess: sess, creds: creds, metrics: reg, logger: logger, retry: retry}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/credentials", s.handleCredentials)
	mux.HandleFunc("POST /api/connect", s.handleConnect)
	mux.HandleFunc("POST /api/disconnect", s.handleDisconnect)
	mux.HandleFunc("GET /api/taxonomy", s.handleTaxonomy)
	mux.HandleFunc("POST /api/taxonomy/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/selection", s.handleSelection)
	mux.HandleFunc("DELETE /api/selection", s.handleResetSelection)
	mux.HandleFunc("PUT /api/selection/mode", s.handleMode)
	mux.HandleFunc("PUT /api/selection/{slot}/type", s.withSlot(s.handleChooseType))
	mux.HandleFunc("POST /api/selection/{slot}/select", s.withSlot(s.handleSelect))
	mux.HandleFunc("POST /api/selection/{slot}/types", s.withSlot(s.handleCreateTypes))
	mux.HandleFunc("POST /api/selection/{slot}/values", s.withSlot(s.handleCreateValues))
	mux.HandleFunc("GET /api/relations/preview", s.handlePreview)
	mux.HandleFunc("POST /api/relations", s.handleSubmit)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps engine errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrIncompleteSelection), errors.Is(err, domain.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownType), errors.Is(err, domain.ErrUnknownValue):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotConnected), errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrConnectivity), errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *server) withSlot(h func(http.ResponseWriter, *http.Request, domain.Slot)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := domain.ParseSlot(r.PathValue("slot"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		h(w, r, slot)
	}
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Status())
}

// CredentialsResponse prefills the connection form. The password never
// leaves the server.
type CredentialsResponse struct {
	Saved bool   `json:"saved"`
	URI   string `json:"uri,omitempty"`
	User  string `json:"user,omitempty"`
}

func (s *server) handleCredentials(w http.ResponseWriter, _ *http.Request) {
	c, ok, err := s.creds.Load()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CredentialsResponse{Saved: ok, URI: c.URI, User: c.User})
}

// ConnectRequest is the JSON body for POST /api/connect. Empty fields fall
// back to the saved credentials, but only for the saved URI.
type ConnectRequest struct {
	URI      string `json:"uri"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// ConnectResponse reports the connection and the initial pull.
type ConnectResponse struct {
	Status session.Status       `json:"status"`
	Pull   graphsync.PullReport `json:"pull"`
}

func (s *server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !decode(w, r, &req) {
		return
	}
	saved, _, err := s.creds.Load()
	if err != nil {
		s.logger.Warn("read saved credentials", "err", err)
	}
	creds := credentials.Fill(credentials.Credentials{URI: req.URI, User: req.User, Password: req.Password}, saved)
	if strings.TrimSpace(creds.URI) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "uri is required"})
		return
	}

	rep, err := s.connect(r.Context(), creds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConnectResponse{Status: s.sess.Status(), Pull: rep})
}

func (s *server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Disconnect(r.Context()); err != nil {
		s.logger.Warn("disconnect", "err", err)
	}
	if err := s.creds.Clear(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Status())
}

func (s *server) handleTaxonomy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Taxonomy().Snapshot())
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	rep, err := s.sess.Refresh(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *server) handleSelection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Selection())
}

func (s *server) handleResetSelection(w http.ResponseWriter, _ *http.Request) {
	s.sess.ResetSelection()
	writeJSON(w, http.StatusOK, s.sess.Selection())
}

func (s *server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if !decode(w, r, &req) {
		return
	}
	m, err := domain.ParseMode(req.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.sess.SetMode(m)
	writeJSON(w, http.StatusOK, s.sess.Selection())
}

func (s *server) handleChooseType(w http.ResponseWriter, r *http.Request, slot domain.Slot) {
	var req struct {
		Type string `json:"type"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.sess.ChooseType(slot, req.Type); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Selection())
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request, slot domain.Slot) {
	var req struct {
		Value string `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.sess.Select(slot, req.Value); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Selection())
}

// CreateRequest carries newline-separated entries.
type CreateRequest struct {
	Entries string `json:"entries"`
}

// CreateResponse lists what was registered and the resulting selection.
type CreateResponse struct {
	Created   []string       `json:"created"`
	Selection selection.View `json:"selection"`
}

func (s *server) handleCreateTypes(w http.ResponseWriter, r *http.Request, slot domain.Slot) {
	s.create(w, r, func(raw string) ([]string, error) { return s.sess.CreateTypes(slot, raw) })
}

func (s *server) handleCreateValues(w http.ResponseWriter, r *http.Request, slot domain.Slot) {
	s.create(w, r, func(raw string) ([]string, error) { return s.sess.CreateValues(slot, raw) })
}

func (s *server) create(w http.ResponseWriter, r *http.Request, f func(string) ([]string, error)) {
	var req CreateRequest
	if !decode(w, r, &req) {
		return
	}
	created, err := f(req.Entries)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateResponse{Created: created, Selection: s.sess.Selection()})
}

// PreviewResponse lists the relations a submit would create. Relations is
// omitted for ?count_only=true.
type PreviewResponse struct {
	Count     int               `json:"count"`
	Relations []relation.Triple `json:"relations,omitempty"`
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	n, err := s.sess.Count()
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := PreviewResponse{Count: n}
	if r.URL.Query().Get("count_only") != "true" {
		if resp.Relations, err = s.sess.Preview(); err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitResponse is the JSON response for POST /api/relations.
type SubmitResponse struct {
	graphsync.CommitResult
	Summary      string `json:"summary"`
	Error        string `json:"error,omitempty"`
	RefreshError string `json:"refresh_error,omitempty"`
}

func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := s.sess.Submit(r.Context())
	if err != nil && res.BatchID == "" {
		s.writeError(w, err)
		return
	}
	resp := SubmitResponse{CommitResult: res, Summary: res.Summary()}
	if res.RefreshErr != nil {
		resp.RefreshError = res.RefreshErr.Error()
	}
	status := http.StatusCreated
	if err != nil {
		resp.Error = res.Err.Error()
		status = statusFor(err)
	}
	writeJSON(w, status, resp)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.sess.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes":               st.Nodes,
		"relationships":       st.Relationships,
		"total_nodes":         st.TotalNodes(),
		"total_relationships": st.TotalRelationships(),
	})
}
