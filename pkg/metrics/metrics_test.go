package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	c := NewCounter("test_total", "test counter")

	c.Inc()
	c.Inc()
	c.Add(3)

	if got := c.Value(); got != 5 {
		t.Errorf("counter value = %d, want 5", got)
	}
	if c.Type() != TypeCounter {
		t.Errorf("counter type = %s, want counter", c.Type())
	}
}

func TestCounterConcurrent(t *testing.T) {
	c := NewCounter("test_total", "test counter")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()

	if got := c.Value(); got != 10000 {
		t.Errorf("counter value = %d, want 10000", got)
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("test_gauge", "test gauge")

	g.Set(10)
	g.Inc()
	g.Dec()
	g.Add(-5)

	if got := g.Value(); got != 5 {
		t.Errorf("gauge value = %d, want 5", got)
	}

	g.SetUint64(42)
	if got := g.Value(); got != 42 {
		t.Errorf("gauge value = %d, want 42", got)
	}
}

func TestHistogram(t *testing.T) {
	h := NewHistogram("test_seconds", "test histogram", []float64{0.01, 0.1, 1.0})

	h.Observe(0.005)
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5.0)

	snap := h.Snapshot()
	if snap.Count != 4 {
		t.Errorf("histogram count = %d, want 4", snap.Count)
	}
	if snap.Buckets[0].Count != 1 {
		t.Errorf("bucket le=0.01 count = %d, want 1", snap.Buckets[0].Count)
	}
	if snap.Buckets[1].Count != 2 {
		t.Errorf("bucket le=0.1 count = %d, want 2", snap.Buckets[1].Count)
	}
	if snap.Buckets[2].Count != 3 {
		t.Errorf("bucket le=1.0 count = %d, want 3", snap.Buckets[2].Count)
	}
}

func TestHistogramObserveDuration(t *testing.T) {
	h := NewHistogram("test_seconds", "test histogram", nil)

	h.ObserveDuration(50 * time.Millisecond)

	snap := h.Snapshot()
	if snap.Count != 1 {
		t.Errorf("histogram count = %d, want 1", snap.Count)
	}
	if snap.Sum < 0.04 || snap.Sum > 0.06 {
		t.Errorf("histogram sum = %f, want ~0.05", snap.Sum)
	}
}

func TestMetricsRegistry(t *testing.T) {
	m := NewMetrics()

	if m.Get("nanotoken_invocations_total") == nil {
		t.Error("invocations counter not registered")
	}
	if m.Get("nanotoken_accounts_count") == nil {
		t.Error("accounts count gauge not registered")
	}
	if m.Get("nonexistent") != nil {
		t.Error("unknown metric should return nil")
	}
}

func TestRecordInvocation(t *testing.T) {
	m := NewMetrics()

	m.RecordInvocation(3, 1500, 2, 10*time.Millisecond)
	m.RecordInvocation(1, 500, 1, 5*time.Millisecond)
	m.RecordInvocationError()

	if got := m.InvocationsTotal.Value(); got != 3 {
		t.Errorf("invocations = %d, want 3", got)
	}
	if got := m.InvocationErrorsTotal.Value(); got != 1 {
		t.Errorf("errors = %d, want 1", got)
	}
	if got := m.InstructionsTotal.Value(); got != 4 {
		t.Errorf("instructions = %d, want 4", got)
	}
	if got := m.ComputeUnitsTotal.Value(); got != 2000 {
		t.Errorf("compute units = %d, want 2000", got)
	}
	if got := m.AccountsWrittenTotal.Value(); got != 3 {
		t.Errorf("accounts written = %d, want 3", got)
	}
}

func TestFormatPrometheusText(t *testing.T) {
	m := NewMetrics()
	m.InvocationsTotal.Add(7)
	m.AccountsCount.Set(42)
	m.InvocationDuration.Observe(0.002)

	out := m.Format()

	checks := []string{
		"# HELP nanotoken_invocations_total",
		"# TYPE nanotoken_invocations_total counter",
		"nanotoken_invocations_total 7",
		"# TYPE nanotoken_accounts_count gauge",
		"nanotoken_accounts_count 42",
		"# TYPE nanotoken_invocation_duration_seconds histogram",
		"nanotoken_invocation_duration_seconds_count 1",
		`nanotoken_invocation_duration_seconds_bucket{le="+Inf"} 1`,
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

type fakeCounter uint64

func (f fakeCounter) AccountsCount() uint64 { return uint64(f) }

func TestDBCollector(t *testing.T) {
	m := NewMetrics()
	dc := NewDBCollector(m, fakeCounter(17), "", time.Second)

	dc.Collect()

	if got := m.AccountsCount.Value(); got != 17 {
		t.Errorf("accounts count = %d, want 17", got)
	}
}

func TestRuntimeCollector(t *testing.T) {
	m := NewMetrics()
	rc := NewRuntimeCollector(m, time.Second)

	rc.Collect()

	if m.Goroutines.Value() == 0 {
		t.Error("goroutines gauge should be non-zero after collect")
	}
	if m.MemoryBytes.Value() == 0 {
		t.Error("memory gauge should be non-zero after collect")
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.InvocationsTotal.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	MetricsHandler(m).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "nanotoken_invocations_total 1") {
		t.Error("metrics output missing invocation counter")
	}

	req = httptest.NewRequest(http.MethodPost, "/metrics", nil)
	rec = httptest.NewRecorder()
	MetricsHandler(m).ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}
