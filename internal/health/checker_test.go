package health

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/malinka/malinka/internal/config"
	"github.com/malinka/malinka/internal/metrics"
	"github.com/malinka/malinka/internal/store"
)

var testHealthCfg = config.HealthConfig{
	Interval:         30 * time.Second,
	FailureThreshold: 3,
	Timeout:          time.Second,
}

// fakeProber fails for the tables in its set.
type fakeProber struct {
	mu     sync.Mutex
	broken map[string]bool
	calls  int
}

func (p *fakeProber) Probe(ctx context.Context, table string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.broken[table] {
		return errors.New("table unavailable")
	}
	return nil
}

func TestCheckerInitialState(t *testing.T) {
	c := NewChecker(&fakeProber{}, nil, testHealthCfg)

	// Unknown table should be treated as healthy
	if !c.IsHealthy("unknown") {
		t.Error("unknown table should be treated as healthy")
	}

	status := c.GetStatus("unknown")
	if status.Status != StatusUnknown {
		t.Errorf("expected StatusUnknown, got %v", status.Status)
	}
}

func TestCheckerUpdateStatus(t *testing.T) {
	c := NewChecker(&fakeProber{}, nil, testHealthCfg)

	c.updateStatus("sales", true, time.Millisecond)
	if !c.IsHealthy("sales") {
		t.Error("should be healthy after healthy update")
	}

	status := c.GetStatus("sales")
	if status.Status != StatusHealthy {
		t.Errorf("expected StatusHealthy, got %v", status.Status)
	}
	if status.Latency != time.Millisecond {
		t.Errorf("expected latency 1ms, got %v", status.Latency)
	}

	// Single failure shouldn't make it unhealthy (threshold is 3)
	c.updateStatus("sales", false, 0)
	if !c.IsHealthy("sales") {
		t.Error("should still be healthy after one failure")
	}

	status = c.GetStatus("sales")
	if status.ConsecutiveFailures != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", status.ConsecutiveFailures)
	}
}

func TestCheckerThresholdAndRecovery(t *testing.T) {
	c := NewChecker(&fakeProber{}, nil, testHealthCfg)

	c.updateStatus("sales", false, 0)
	c.updateStatus("sales", false, 0)
	c.updateStatus("sales", false, 0)

	if c.IsHealthy("sales") {
		t.Error("should be unhealthy after 3 consecutive failures")
	}
	if c.OverallHealthy() {
		t.Error("should not be overall healthy with one unhealthy table")
	}

	c.updateStatus("sales", true, 0)
	if !c.IsHealthy("sales") {
		t.Error("should be healthy after recovery")
	}
	if status := c.GetStatus("sales"); status.ConsecutiveFailures != 0 {
		t.Errorf("expected 0 consecutive failures after recovery, got %d", status.ConsecutiveFailures)
	}
}

func TestCheckAll(t *testing.T) {
	p := &fakeProber{broken: map[string]bool{store.TableReturns: true}}
	m := metrics.New()
	c := NewChecker(p, m, config.HealthConfig{Interval: time.Minute, FailureThreshold: 1, Timeout: time.Second})

	c.CheckAll()

	statuses := c.GetAllStatuses()
	if len(statuses) != len(store.Tables) {
		t.Errorf("expected %d statuses, got %d", len(store.Tables), len(statuses))
	}
	if st := statuses[store.TableReturns]; st.Status != StatusUnhealthy || st.LastError != "table unavailable" {
		t.Errorf("unexpected returns status %+v", st)
	}
	if !c.IsHealthy(store.TableSales) {
		t.Error("expected sales healthy")
	}
	if c.OverallHealthy() {
		t.Error("expected overall unhealthy")
	}
}

func TestCheckAllCSVSource(t *testing.T) {
	dir := t.TempDir()
	for _, table := range store.Tables {
		if table == store.TableEvents {
			continue
		}
		header := strings.Join(store.RequiredColumns(table), ",") + "\n"
		if table == store.TableReturns {
			header = "return_id\n"
		}
		if err := os.WriteFile(filepath.Join(dir, table+".csv"), []byte(header), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	c := NewChecker(store.NewCSVSource(dir), nil, config.HealthConfig{Interval: time.Minute, FailureThreshold: 1})
	c.CheckAll()

	if c.IsHealthy(store.TableEvents) {
		t.Error("expected missing events file to be unhealthy")
	}
	if c.IsHealthy(store.TableReturns) {
		t.Error("expected returns file without required columns to be unhealthy")
	}
	if !c.IsHealthy(store.TableSales) {
		t.Error("expected sales file to be healthy")
	}
}

func TestStatusJSON(t *testing.T) {
	data, err := json.Marshal(TableHealth{Status: StatusHealthy})
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", out["status"])
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusUnknown, "unknown"},
		{StatusHealthy, "healthy"},
		{StatusUnhealthy, "unhealthy"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestDoubleStop(t *testing.T) {
	p := &fakeProber{}
	c := NewChecker(p, nil, testHealthCfg)
	c.Start()

	// Should not panic
	c.Stop()
	c.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls != len(store.Tables) {
		t.Errorf("expected one immediate round of %d probes, got %d", len(store.Tables), p.calls)
	}
}

func TestCheckerNonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -5 * time.Second} {
		c := NewChecker(&fakeProber{}, nil, config.HealthConfig{Interval: interval, FailureThreshold: 1})
		if c.interval != DefaultInterval {
			t.Errorf("expected interval %v for %v, got %v", DefaultInterval, interval, c.interval)
		}
		c.Start()
		c.Stop()
	}
}
