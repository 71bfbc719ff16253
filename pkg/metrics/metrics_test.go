package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounter(t *testing.T) {
	r := New()
	c := r.Counter("test_total", "A test counter")
	c.Inc()
	c.Add(5)
	if c.Value() != 6 {
		t.Fatalf("expected 6, got %d", c.Value())
	}
	if r.Counter("test_total", "") != c {
		t.Fatal("expected same counter instance")
	}
	if r.Counter("test_total", "", "op", "pull") == c {
		t.Fatal("labelled series must be distinct")
	}
}

func TestGauge(t *testing.T) {
	r := New()
	g := r.Gauge("connected", "")
	g.Set(1)
	if g.Value() != 1 {
		t.Fatalf("expected 1, got %d", g.Value())
	}
}

func TestHistogram(t *testing.T) {
	r := New()
	h := r.Histogram("dur_seconds", "durations", []float64{1, 0.1, 0.5})
	h.Observe(0.05)
	h.Observe(0.3)
	h.Observe(0.8)
	h.Observe(5)
	if h.Count() != 4 {
		t.Fatalf("expected 4, got %d", h.Count())
	}

	out := r.Render()
	for _, want := range []string{
		`dur_seconds_bucket{le="0.1"} 1`,
		`dur_seconds_bucket{le="0.5"} 2`,
		`dur_seconds_bucket{le="1"} 3`,
		`dur_seconds_bucket{le="+Inf"} 4`,
		`dur_seconds_count 4`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRender_Labels(t *testing.T) {
	r := New()
	r.Counter("commits_total", "Commits", "outcome", "ok").Add(2)
	r.Counter("commits_total", "Commits", "outcome", "failed").Inc()
	r.Histogram("pull_seconds", "", []float64{1}, "kind", "node").Observe(0.5)

	out := r.Render()
	for _, want := range []string{
		"# HELP commits_total Commits",
		"# TYPE commits_total counter",
		`commits_total{outcome="failed"} 1`,
		`commits_total{outcome="ok"} 2`,
		`pull_seconds_bucket{kind="node",le="1"} 1`,
		`pull_seconds_sum{kind="node"} 0.5`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Count(out, "# TYPE commits_total") != 1 {
		t.Fatal("family header must be rendered once")
	}
}

func TestKindMismatchPanics(t *testing.T) {
	r := New()
	r.Counter("x", "")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	r.Gauge("x", "")
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("hits_total", "").Inc()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hits_total 1") {
		t.Fatalf("body: %s", rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatal("wrong content type")
	}
}
