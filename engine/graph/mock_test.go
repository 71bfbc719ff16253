package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// mockResult replays fixed records.
type mockResult struct {
	records []*neo4j.Record
	idx     int
	err     error
}

func newMockResult(records ...*neo4j.Record) *mockResult {
	return &mockResult{records: records, idx: -1}
}

func (r *mockResult) Next(_ context.Context) bool {
	r.idx++
	return r.idx < len(r.records)
}

func (r *mockResult) Record() *neo4j.Record { return r.records[r.idx] }

func (r *mockResult) Err() error { return r.err }

func record(key string, value any) *neo4j.Record {
	return &neo4j.Record{Keys: []string{key}, Values: []any{value}}
}

// mockSession records queries and returns canned results.
type mockSession struct {
	runResult CypherResult
	runErr    error
	writeErr  error
	queries   []string
	params    []map[string]any
	closed    int
}

func (s *mockSession) Run(_ context.Context, cypher string, params map[string]any) (CypherResult, error) {
	s.queries = append(s.queries, cypher)
	s.params = append(s.params, params)
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.runResult, nil
}

func (s *mockSession) Close(_ context.Context) error {
	s.closed++
	return nil
}

func (s *mockSession) ExecuteWrite(ctx context.Context, work func(tx CypherRunner) (any, error)) (any, error) {
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	return work(s)
}

type mockOpener struct {
	session *mockSession
	opened  int
}

func (o *mockOpener) OpenSession(_ context.Context) CypherSession {
	o.opened++
	return o.session
}

func newMockStore(sess *mockSession) (*Neo4jStore, *mockOpener) {
	o := &mockOpener{session: sess}
	return NewWithOpener(o), o
}
