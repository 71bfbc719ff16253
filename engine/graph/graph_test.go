package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/relgraph/engine/domain"
)

func TestListNodeTypes(t *testing.T) {
	sess := &mockSession{runResult: newMockResult(record("type", "Location"), record("type", "Person"))}
	gs, _ := newMockStore(sess)

	got, err := gs.ListNodeTypes(context.Background())
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if len(got) != 2 || got[0] != "Location" || got[1] != "Person" {
		t.Fatalf("unexpected types: %v", got)
	}
	if sess.queries[0] != listNodeTypesQuery {
		t.Fatalf("wrong query: %s", sess.queries[0])
	}
	if sess.closed != 1 {
		t.Fatalf("expected session closed once, got %d", sess.closed)
	}
}

func TestListEdgeTypes_RunError(t *testing.T) {
	sess := &mockSession{runErr: errors.New("connection reset")}
	gs, _ := newMockStore(sess)

	_, err := gs.ListEdgeTypes(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if sess.closed != 1 {
		t.Fatal("session must be closed on error path")
	}
}

func TestListValuesOfNodeType_QuotesLabel(t *testing.T) {
	sess := &mockSession{runResult: newMockResult(record("value", "Alice"), record("value", 42), record("value", "Bob"))}
	gs, _ := newMockStore(sess)

	got, err := gs.ListValuesOfNodeType(context.Background(), "Per`son")
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Fatalf("non-string values should be skipped: %v", got)
	}
	if !strings.Contains(sess.queries[0], "MATCH (n:`Per``son`)") {
		t.Fatalf("label not quoted: %s", sess.queries[0])
	}
}

func TestListValuesOfNodeType_InvalidType(t *testing.T) {
	sess := &mockSession{}
	gs, o := newMockStore(sess)

	_, err := gs.ListValuesOfNodeType(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if o.opened != 0 {
		t.Fatal("no session should be opened for an invalid type")
	}
}

func TestListDistinctEdgeLabelsOfType_ResultError(t *testing.T) {
	res := newMockResult(record("value", "Owner"))
	res.err = errors.New("stream broke")
	gs, _ := newMockStore(&mockSession{runResult: res})

	_, err := gs.ListDistinctEdgeLabelsOfType(context.Background(), "Ownership")
	var se *domain.StoreError
	if !errors.As(err, &se) || se.Type != "Ownership" {
		t.Fatalf("expected StoreError for Ownership, got %v", err)
	}
}

func TestListStrings_MissingField(t *testing.T) {
	gs, _ := newMockStore(&mockSession{runResult: newMockResult(record("other", "x"))})
	if _, err := gs.ListNodeTypes(context.Background()); err == nil {
		t.Fatal("expected error about missing field")
	}
}

func TestUpsertNode(t *testing.T) {
	sess := &mockSession{runResult: newMockResult(record("id", "4:abc:1"))}
	gs, _ := newMockStore(sess)

	h, err := gs.UpsertNode(context.Background(), "Person", "Alice")
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if h != (NodeHandle{ID: "4:abc:1", Type: "Person", Value: "Alice"}) {
		t.Fatalf("unexpected handle: %+v", h)
	}
	if !strings.HasPrefix(strings.TrimSpace(sess.queries[0]), "MERGE (n:`Person` {name: $value})") {
		t.Fatalf("unexpected query: %s", sess.queries[0])
	}
	if sess.params[0]["value"] != "Alice" {
		t.Fatalf("value must be a parameter: %v", sess.params[0])
	}
}

func TestUpsertNode_WriteError(t *testing.T) {
	sess := &mockSession{writeErr: errors.New("write fail")}
	gs, _ := newMockStore(sess)

	_, err := gs.UpsertNode(context.Background(), "Person", "Alice")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if sess.closed != 1 {
		t.Fatal("session must be closed on error path")
	}
}

func TestUpsertNode_NoRow(t *testing.T) {
	gs, _ := newMockStore(&mockSession{runResult: newMockResult()})
	if _, err := gs.UpsertNode(context.Background(), "Person", "Alice"); err == nil {
		t.Fatal("expected error for empty merge result")
	}
}

func TestUpsertNode_WrongIDType(t *testing.T) {
	gs, _ := newMockStore(&mockSession{runResult: newMockResult(record("id", int64(7)))})
	if _, err := gs.UpsertNode(context.Background(), "Person", "Alice"); err == nil {
		t.Fatal("expected error for non-string id")
	}
}

func TestUpsertEdge(t *testing.T) {
	sess := &mockSession{runResult: newMockResult(record("id", "5:abc:9"))}
	gs, _ := newMockStore(sess)

	a := NodeHandle{ID: "4:abc:1", Type: "Person", Value: "Alice"}
	b := NodeHandle{ID: "4:abc:2", Type: "Location", Value: "Tokyo"}
	h, err := gs.UpsertEdge(context.Background(), a, "Located In", "Workplace", b)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if h.ID != "5:abc:9" || h.From != a.ID || h.To != b.ID || h.Label != "Workplace" {
		t.Fatalf("unexpected handle: %+v", h)
	}
	q := sess.queries[0]
	if !strings.Contains(q, "MERGE (a)-[r:`Located In` {label: $label}]->(b)") {
		t.Fatalf("unexpected query: %s", q)
	}
	p := sess.params[0]
	if p["from"] != a.ID || p["to"] != b.ID || p["label"] != "Workplace" {
		t.Fatalf("unexpected params: %v", p)
	}
}

func TestUpsertEdge_InjectionAttemptIsQuoted(t *testing.T) {
	sess := &mockSession{runResult: newMockResult(record("id", "e"))}
	gs, _ := newMockStore(sess)

	evil := "X`]->(b) DETACH DELETE a //"
	_, err := gs.UpsertEdge(context.Background(), NodeHandle{ID: "1"}, evil, "l", NodeHandle{ID: "2"})
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if !strings.Contains(sess.queries[0], "[r:`X``]->(b) DETACH DELETE a //` {") {
		t.Fatalf("identifier escaped incorrectly: %s", sess.queries[0])
	}
}

func TestStats(t *testing.T) {
	sess := &mockSession{runResult: newMockResult(
		&neo4j.Record{Keys: []string{"type", "count"}, Values: []any{"Person", int64(3)}},
		&neo4j.Record{Keys: []string{"type", "count"}, Values: []any{"City", int64(2)}},
	)}
	gs, _ := newMockStore(sess)

	s, err := gs.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	// the mock replays the same (exhausted) result for the second query
	if s.Nodes["Person"] != 3 || s.TotalNodes() != 5 {
		t.Fatalf("unexpected node stats: %+v", s.Nodes)
	}
	if s.TotalRelationships() != 0 {
		t.Fatalf("unexpected relationship stats: %+v", s.Relationships)
	}
}

func TestNewWithNilDriver(t *testing.T) {
	if gs := New(nil, ""); gs == nil {
		t.Fatal("expected non-nil store")
	}
}
