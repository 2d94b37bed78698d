package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/malinka/malinka/internal/config"
	"github.com/malinka/malinka/internal/metrics"
	"github.com/malinka/malinka/internal/store"
)

// Status represents the health status of a source table.
type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText renders the status name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Prober checks that a table can be read. store.Source implements it.
type Prober interface {
	Probe(ctx context.Context, table string) error
}

// TableHealth holds health information for a source table.
type TableHealth struct {
	Status              Status        `json:"status"`
	LastCheck           time.Time     `json:"last_check"`
	Latency             time.Duration `json:"latency_ns"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastError           string        `json:"last_error,omitempty"`
}

// Checker performs periodic probes of every source table.
type Checker struct {
	mu      sync.RWMutex
	tables  map[string]*TableHealth
	source  Prober
	metrics *metrics.Collector

	interval         time.Duration
	failureThreshold int
	timeout          time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// DefaultInterval replaces a non-positive check interval.
const DefaultInterval = 30 * time.Second

// NewChecker creates a new health checker with configurable parameters.
func NewChecker(src Prober, m *metrics.Collector, hcCfg config.HealthConfig) *Checker {
	if hcCfg.Interval <= 0 {
		hcCfg.Interval = DefaultInterval
	}
	return &Checker{
		tables:           make(map[string]*TableHealth),
		source:           src,
		metrics:          m,
		interval:         hcCfg.Interval,
		failureThreshold: hcCfg.FailureThreshold,
		timeout:          hcCfg.Timeout,
		stopCh:           make(chan struct{}),
	}
}

// Start begins periodic health checking.
func (c *Checker) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run()
	}()
	slog.Info("health checker started", "interval", c.interval, "threshold", c.failureThreshold)
}

// Stop stops the health checker. Safe to call multiple times.
func (c *Checker) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()
	slog.Info("health checker stopped")
}

func (c *Checker) run() {
	c.CheckAll()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CheckAll()
		case <-c.stopCh:
			return
		}
	}
}

// CheckAll probes every table once, in parallel.
func (c *Checker) CheckAll() {
	var wg sync.WaitGroup
	for _, table := range store.Tables {
		table := table
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := c.probe(table)
			elapsed := time.Since(start)
			if c.metrics != nil {
				c.metrics.HealthCheckCompleted(table, elapsed)
			}
			if err != nil {
				c.setLastError(table, err.Error())
			}
			c.updateStatus(table, err == nil, elapsed)
		}()
	}
	wg.Wait()
}

func (c *Checker) probe(table string) error {
	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.source.Probe(ctx, table)
}

func (c *Checker) setLastError(table, errMsg string) {
	c.mu.Lock()
	th := c.getOrCreate(table)
	if errMsg != "" {
		th.LastError = errMsg
	}
	c.mu.Unlock()
}

func (c *Checker) updateStatus(table string, healthy bool, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	th := c.getOrCreate(table)
	th.LastCheck = time.Now()
	th.Latency = latency

	if healthy {
		if th.ConsecutiveFailures > 0 {
			slog.Info("table recovered", "table", table, "failures", th.ConsecutiveFailures)
		}
		th.Status = StatusHealthy
		th.ConsecutiveFailures = 0
		th.LastError = ""
	} else {
		th.ConsecutiveFailures++
		if th.ConsecutiveFailures >= c.failureThreshold {
			if th.Status != StatusUnhealthy {
				slog.Warn("table marked unhealthy", "table", table, "failures", th.ConsecutiveFailures, "error", th.LastError)
			}
			th.Status = StatusUnhealthy
		}
	}

	if c.metrics != nil {
		c.metrics.SetTableHealth(table, th.Status == StatusHealthy)
	}
}

func (c *Checker) getOrCreate(table string) *TableHealth {
	th, ok := c.tables[table]
	if !ok {
		th = &TableHealth{Status: StatusUnknown}
		c.tables[table] = th
	}
	return th
}

// IsHealthy returns whether a table is healthy (or unknown, which is treated as healthy).
func (c *Checker) IsHealthy(table string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	th, ok := c.tables[table]
	if !ok {
		return true
	}
	return th.Status != StatusUnhealthy
}

// GetStatus returns the health status for a table.
func (c *Checker) GetStatus(table string) TableHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()

	th, ok := c.tables[table]
	if !ok {
		return TableHealth{Status: StatusUnknown}
	}
	return *th
}

// GetAllStatuses returns health statuses for all checked tables.
func (c *Checker) GetAllStatuses() map[string]TableHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]TableHealth, len(c.tables))
	for id, th := range c.tables {
		result[id] = *th
	}
	return result
}

// OverallHealthy returns true if no table is unhealthy.
func (c *Checker) OverallHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, th := range c.tables {
		if th.Status == StatusUnhealthy {
			return false
		}
	}
	return true
}
