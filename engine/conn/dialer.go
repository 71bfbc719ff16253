package conn

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/relgraph/engine/domain"
	"github.com/WessleyAI/relgraph/engine/graph"
)

// MemoryScheme selects an in-process store instead of a Neo4j server.
const MemoryScheme = "memory://"

// Neo4jDialer dials Neo4j with basic auth and verifies connectivity before
// handing out the driver. memory:// URIs get a fresh in-process store.
type Neo4jDialer struct {
	// Database is the target database name; empty means the server default.
	Database string
}

var _ Dialer = Neo4jDialer{}

// Dial implements Dialer.
func (d Neo4jDialer) Dial(ctx context.Context, creds Credentials) (Handle, error) {
	if strings.HasPrefix(creds.URI, MemoryScheme) {
		return &memoryHandle{store: graph.NewMemoryStore()}, nil
	}

	driver, err := neo4j.NewDriverWithContext(creds.URI, neo4j.BasicAuth(creds.User, creds.Password, ""))
	if err != nil {
		return nil, &domain.ConnectivityError{URI: creds.URI, Err: err}
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, &domain.ConnectivityError{URI: creds.URI, Err: err}
	}
	return &neo4jHandle{driver: driver, store: graph.New(driver, d.Database)}, nil
}

type neo4jHandle struct {
	driver neo4j.DriverWithContext
	store  *graph.Neo4jStore
}

func (h *neo4jHandle) Store() graph.Store { return h.store }

func (h *neo4jHandle) Close(ctx context.Context) error { return h.driver.Close(ctx) }

type memoryHandle struct {
	store *graph.MemoryStore
}

func (h *memoryHandle) Store() graph.Store { return h.store }

func (h *memoryHandle) Close(ctx context.Context) error { return h.store.Close(ctx) }
