// Package conn owns the single live connection to the graph store.
package conn

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/WessleyAI/relgraph/engine/domain"
	"github.com/WessleyAI/relgraph/engine/graph"
)

// State is the connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Credentials identify a store and the account to use on it.
type Credentials struct {
	URI      string
	User     string
	Password string
}

// Handle is a live connection. Close releases it.
type Handle interface {
	Store() graph.Store
	Close(ctx context.Context) error
}

// Dialer opens handles. Implementations must release anything they opened
// before returning an error.
type Dialer interface {
	Dial(ctx context.Context, creds Credentials) (Handle, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, creds Credentials) (Handle, error)

func (f DialerFunc) Dial(ctx context.Context, creds Credentials) (Handle, error) {
	return f(ctx, creds)
}

// Lifecycle holds at most one live Handle.
type Lifecycle struct {
	mu     sync.Mutex
	dialer Dialer
	logger *slog.Logger
	state  State
	handle Handle
	uri    string
}

// New creates a Lifecycle in the disconnected state.
func New(dialer Dialer, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{dialer: dialer, logger: logger}
}

// Connect opens a new handle, releasing any existing one first. Failures are
// returned as *domain.ConnectivityError and leave the lifecycle disconnected.
func (l *Lifecycle) Connect(ctx context.Context, creds Credentials) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle != nil {
		l.logger.Info("replacing existing connection", "uri", l.uri)
		l.release(ctx)
	}

	l.state = StateConnecting
	h, err := l.dialer.Dial(ctx, creds)
	if err != nil {
		l.state = StateDisconnected
		var ce *domain.ConnectivityError
		if !errors.As(err, &ce) {
			err = &domain.ConnectivityError{URI: creds.URI, Err: err}
		}
		l.logger.Warn("connect failed", "uri", creds.URI, "err", err)
		return err
	}
	l.handle = h
	l.uri = creds.URI
	l.state = StateConnected
	l.logger.Info("connected", "uri", creds.URI, "user", creds.User)
	return nil
}

// Disconnect releases the handle. It is a no-op when already disconnected.
func (l *Lifecycle) Disconnect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == nil {
		return nil
	}
	return l.release(ctx)
}

// release must be called with mu held.
func (l *Lifecycle) release(ctx context.Context) error {
	err := l.handle.Close(ctx)
	if err != nil {
		l.logger.Warn("close connection", "uri", l.uri, "err", err)
	} else {
		l.logger.Info("disconnected", "uri", l.uri)
	}
	l.handle = nil
	l.uri = ""
	l.state = StateDisconnected
	return err
}

// Store returns the live store or domain.ErrNotConnected.
func (l *Lifecycle) Store() (graph.Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == nil {
		return nil, domain.ErrNotConnected
	}
	return l.handle.Store(), nil
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// URI returns the connected URI, empty when disconnected.
func (l *Lifecycle) URI() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.uri
}
