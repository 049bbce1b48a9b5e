package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"scopedlock/pkg/concurrency/lock"
	"scopedlock/pkg/logging"
	"strings"
	"sync"
	"testing"
	"time"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLogs(t *testing.T) *lockedBuffer {
	t.Helper()
	if err := logging.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	buf := &lockedBuffer{}
	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Writer: buf}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { _ = logging.Close() })
	return buf
}

func newTestCollector(t *testing.T) (*MetricsCollector, *Simulation) {
	t.Helper()
	f := lock.DefaultFactory()
	collector := NewMetricsCollector(f)
	sim := NewSimulation(f, 4)
	for _, l := range sim.Locks() {
		if err := collector.Register(l); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	return collector, sim
}

func TestWithLabel(t *testing.T) {
	tests := []struct {
		metric string
		want   string
	}{
		{"scopedlock_upgrades_total", `scopedlock_upgrades_total{lock="m"}`},
		{`scopedlock_acquisitions_total{mode="read"}`, `scopedlock_acquisitions_total{lock="m",mode="read"}`},
	}
	for _, tt := range tests {
		if got := withLabel(tt.metric, "m"); got != tt.want {
			t.Errorf("withLabel(%q) = %q, want %q", tt.metric, got, tt.want)
		}
	}
}

func TestMetricsCollector_GetMetrics(t *testing.T) {
	collector, sim := newTestCollector(t)
	if err := sim.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	body, err := collector.GetMetrics()
	if err != nil {
		t.Fatalf("GetMetrics failed: %v", err)
	}

	for _, want := range []string{
		`# TYPE scopedlock_upgrades_total counter`,
		`scopedlock_acquisitions_total{lock="sessions",mode="read"}`,
		`scopedlock_state{lock="events"} 0`,
		`scopedlock_violations_total{lock="tags"} 0`,
		"scopedlock_up 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Metrics missing %q:\n%s", want, body)
		}
	}
	if strings.Count(body, "# HELP scopedlock_acquisitions_total") != 1 {
		t.Error("HELP line for acquisitions repeated")
	}
}

func TestMetricsCollector_RegisterKeepsFirst(t *testing.T) {
	f := lock.DefaultFactory()
	collector := NewMetricsCollector(f)
	first := f.New("dup")
	collector.Register(first)
	collector.Register(f.New("dup"))

	locks, err := collector.sortedLocks()
	if err != nil {
		t.Fatalf("sortedLocks failed: %v", err)
	}
	if len(locks) != 1 || locks[0] != first {
		t.Errorf("Expected the first registration to win, got %v", locks)
	}
}

func TestHTTPHandlers(t *testing.T) {
	collector, sim := newTestCollector(t)
	srv := httptest.NewServer(newMux(collector))
	defer srv.Close()

	h, err := sim.events.Lock().AcquireRead(time.Second)
	if err != nil {
		t.Fatalf("AcquireRead failed: %v", err)
	}
	defer h.Release()

	resp, err := http.Get(srv.URL + "/holders")
	if err != nil {
		t.Fatalf("GET /holders failed: %v", err)
	}
	defer resp.Body.Close()

	var holders map[string][]holderView
	if err := json.NewDecoder(resp.Body).Decode(&holders); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := holders["events"]; len(got) != 1 || got[0].Mode != "read" || got[0].ID != h.ID().String() {
		t.Errorf("Unexpected holders for events: %+v", got)
	}
	if got := holders["sessions"]; got == nil || len(got) != 0 {
		t.Errorf("Expected empty holder list for sessions, got %+v", got)
	}

	for path, want := range map[string]string{
		"/metrics": `scopedlock_readers{lock="events"} 1`,
		"/health":  "OK",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), want) {
			t.Errorf("GET %s: status %d, body missing %q", path, resp.StatusCode, want)
		}
	}
}

func TestSimulation_RunStopsOnCancel(t *testing.T) {
	_, sim := newTestCollector(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sim.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if s := sim.sessions.Lock().Stats(); s.Acquired() == 0 {
		t.Error("Simulation produced no traffic")
	}
}

func TestSimulation_TrimsEvents(t *testing.T) {
	_, sim := newTestCollector(t)
	buf := captureLogs(t)

	backlog := make([]string, 1200)
	if err := sim.events.Append(backlog...); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := sim.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	n, err := sim.events.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected the event list to be cleared, got %d", n)
	}
	if !strings.Contains(buf.String(), "msg=\"trimmed simulation events\"") {
		t.Errorf("Expected a trim log line, got %q", buf.String())
	}
}

func TestMetricsHandler_LogsScrapeFailure(t *testing.T) {
	cfg := lock.DefaultConfig()
	cfg.DefaultTimeout = 20 * time.Millisecond
	f, err := lock.NewFactory(cfg)
	if err != nil {
		t.Fatalf("NewFactory failed: %v", err)
	}
	collector := NewMetricsCollector(f)
	buf := captureLogs(t)

	w, err := collector.locks.Lock().AcquireWrite(time.Second)
	if err != nil {
		t.Fatalf("AcquireWrite failed: %v", err)
	}
	defer w.Release()

	srv := httptest.NewServer(newMux(collector))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 while the registry is locked, got %d", resp.StatusCode)
	}
	if out := buf.String(); !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "metrics scrape failed") {
		t.Errorf("Expected an ERROR scrape line, got %q", out)
	}
}
