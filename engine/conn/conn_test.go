package conn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/relgraph/engine/domain"
	"github.com/WessleyAI/relgraph/engine/graph"
)

type fakeHandle struct {
	store    graph.Store
	closed   int
	closeErr error
}

func (h *fakeHandle) Store() graph.Store { return h.store }

func (h *fakeHandle) Close(context.Context) error {
	h.closed++
	return h.closeErr
}

type fakeDialer struct {
	handles []*fakeHandle
	err     error
}

func (d *fakeDialer) Dial(_ context.Context, _ Credentials) (Handle, error) {
	if d.err != nil {
		return nil, d.err
	}
	h := &fakeHandle{store: graph.NewMemoryStore()}
	d.handles = append(d.handles, h)
	return h, nil
}

func TestConnectDisconnect(t *testing.T) {
	d := &fakeDialer{}
	l := New(d, nil)
	ctx := context.Background()

	assert.Equal(t, StateDisconnected, l.State())
	_, err := l.Store()
	require.ErrorIs(t, err, domain.ErrNotConnected)

	require.NoError(t, l.Connect(ctx, Credentials{URI: "neo4j://a"}))
	assert.Equal(t, StateConnected, l.State())
	assert.Equal(t, "neo4j://a", l.URI())
	s, err := l.Store()
	require.NoError(t, err)
	assert.Same(t, d.handles[0].store, s)

	require.NoError(t, l.Disconnect(ctx))
	assert.Equal(t, StateDisconnected, l.State())
	assert.Equal(t, 1, d.handles[0].closed)
	assert.Empty(t, l.URI())
}

func TestDisconnect_Idempotent(t *testing.T) {
	d := &fakeDialer{}
	l := New(d, nil)
	ctx := context.Background()

	require.NoError(t, l.Disconnect(ctx))
	require.NoError(t, l.Connect(ctx, Credentials{URI: "neo4j://a"}))
	require.NoError(t, l.Disconnect(ctx))
	require.NoError(t, l.Disconnect(ctx))
	assert.Equal(t, 1, d.handles[0].closed)
}

func TestConnect_ReplacesPriorHandle(t *testing.T) {
	d := &fakeDialer{}
	l := New(d, nil)
	ctx := context.Background()

	require.NoError(t, l.Connect(ctx, Credentials{URI: "neo4j://a"}))
	require.NoError(t, l.Connect(ctx, Credentials{URI: "neo4j://b"}))

	require.Len(t, d.handles, 2)
	assert.Equal(t, 1, d.handles[0].closed, "prior handle must be released")
	assert.Equal(t, 0, d.handles[1].closed)
	assert.Equal(t, "neo4j://b", l.URI())
}

func TestConnect_FailureIsConnectivityError(t *testing.T) {
	cause := errors.New("unauthorized")
	l := New(&fakeDialer{err: cause}, nil)

	err := l.Connect(context.Background(), Credentials{URI: "neo4j://a", User: "neo4j"})
	var ce *domain.ConnectivityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "neo4j://a", ce.URI)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StateDisconnected, l.State())
}

func TestConnect_FailureAfterPriorConnectionLeavesDisconnected(t *testing.T) {
	d := &fakeDialer{}
	l := New(d, nil)
	ctx := context.Background()
	require.NoError(t, l.Connect(ctx, Credentials{URI: "neo4j://a"}))

	d.err = errors.New("refused")
	require.Error(t, l.Connect(ctx, Credentials{URI: "neo4j://b"}))
	assert.Equal(t, 1, d.handles[0].closed)
	assert.Equal(t, StateDisconnected, l.State())
}

func TestDisconnect_CloseErrorStillReleases(t *testing.T) {
	d := &fakeDialer{}
	l := New(d, nil)
	ctx := context.Background()
	require.NoError(t, l.Connect(ctx, Credentials{URI: "neo4j://a"}))
	d.handles[0].closeErr = errors.New("close failed")

	require.Error(t, l.Disconnect(ctx))
	assert.Equal(t, StateDisconnected, l.State())
	require.NoError(t, l.Disconnect(ctx))
}

func TestNeo4jDialer_Memory(t *testing.T) {
	h, err := Neo4jDialer{}.Dial(context.Background(), Credentials{URI: "memory://demo"})
	require.NoError(t, err)
	_, ok := h.Store().(*graph.MemoryStore)
	assert.True(t, ok)
	require.NoError(t, h.Close(context.Background()))
}

func TestNeo4jDialer_BadURI(t *testing.T) {
	_, err := Neo4jDialer{}.Dial(context.Background(), Credentials{URI: "ftp://nowhere"})
	assert.ErrorIs(t, err, domain.ErrConnectivity)
}

func TestDialerFunc(t *testing.T) {
	called := false
	var d Dialer = DialerFunc(func(context.Context, Credentials) (Handle, error) {
		called = true
		return &fakeHandle{}, nil
	})
	_, err := d.Dial(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.True(t, called)
}
