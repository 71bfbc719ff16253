//go:build integration

package graph

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func testDriver(t *testing.T) neo4j.DriverWithContext {
	t.Helper()
	url := envOr("NEO4J_URL", "neo4j://localhost:7687")
	driver, err := neo4j.NewDriverWithContext(url, neo4j.BasicAuth(envOr("NEO4J_USER", "neo4j"), envOr("NEO4J_PASS", "password"), ""))
	if err != nil {
		t.Fatalf("neo4j connect: %v", err)
	}
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		t.Fatalf("neo4j verify: %v", err)
	}
	t.Cleanup(func() {
		sess := driver.NewSession(ctx, neo4j.SessionConfig{})
		sess.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
		sess.Close(ctx)
		driver.Close(ctx)
	})
	return driver
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestNeo4j_UpsertIsIdempotent(t *testing.T) {
	store := New(testDriver(t), "")
	ctx := context.Background()

	a1, err := store.UpsertNode(ctx, "Person", "Alice")
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	a2, err := store.UpsertNode(ctx, "Person", "Alice")
	if err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}
	if a1.ID != a2.ID {
		t.Fatalf("expected same element id, got %s and %s", a1.ID, a2.ID)
	}
	b, _ := store.UpsertNode(ctx, "Located In", "Tokyo")
	for i := 0; i < 2; i++ {
		if _, err := store.UpsertEdge(ctx, a1, "LIVES`IN", "home", b); err != nil {
			t.Fatalf("UpsertEdge: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalNodes() != 2 || stats.TotalRelationships() != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	labels, err := store.ListDistinctEdgeLabelsOfType(ctx, "LIVES`IN")
	if err != nil || len(labels) != 1 || labels[0] != "home" {
		t.Fatalf("labels: %v %v", labels, err)
	}
	vals, err := store.ListValuesOfNodeType(ctx, "Located In")
	if err != nil || len(vals) != 1 || vals[0] != "Tokyo" {
		t.Fatalf("values: %v %v", vals, err)
	}
}
