package metrics

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is an interface for metrics collectors.
type Collector interface {
	// Collect collects metrics.
	Collect()
	// Start starts the collector.
	Start(ctx context.Context)
	// Stop stops the collector.
	Stop()
}

// RuntimeCollector collects Go runtime statistics.
type RuntimeCollector struct {
	metrics  *Metrics
	interval time.Duration
	running  atomic.Bool
	stopCh   chan struct{}

	HeapAlloc   *Gauge
	HeapInuse   *Gauge
	HeapObjects *Gauge
	GCPauseNs   *Gauge
	NumGC       *Gauge
}

// NewRuntimeCollector creates a new runtime collector.
func NewRuntimeCollector(m *Metrics, interval time.Duration) *RuntimeCollector {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &RuntimeCollector{
		metrics:  m,
		interval: interval,
		stopCh:   make(chan struct{}),

		HeapAlloc:   NewGauge("nanotoken_runtime_heap_alloc_bytes", "Heap allocation in bytes"),
		HeapInuse:   NewGauge("nanotoken_runtime_heap_inuse_bytes", "Heap in use in bytes"),
		HeapObjects: NewGauge("nanotoken_runtime_heap_objects", "Number of allocated heap objects"),
		GCPauseNs:   NewGauge("nanotoken_runtime_gc_pause_total_ns", "Total GC pause time in nanoseconds"),
		NumGC:       NewGauge("nanotoken_runtime_gc_completed_cycles", "Number of completed GC cycles"),
	}
}

// Collect collects runtime metrics.
func (rc *RuntimeCollector) Collect() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	if rc.metrics != nil {
		rc.metrics.MemoryBytes.SetUint64(memStats.Alloc)
		rc.metrics.Goroutines.SetUint64(uint64(runtime.NumGoroutine()))
	}

	rc.HeapAlloc.SetUint64(memStats.HeapAlloc)
	rc.HeapInuse.SetUint64(memStats.HeapInuse)
	rc.HeapObjects.SetUint64(memStats.HeapObjects)
	rc.GCPauseNs.SetUint64(memStats.PauseTotalNs)
	rc.NumGC.SetUint64(uint64(memStats.NumGC))
}

// Start starts periodic collection.
func (rc *RuntimeCollector) Start(ctx context.Context) {
	if rc.running.Swap(true) {
		return
	}

	go func() {
		ticker := time.NewTicker(rc.interval)
		defer ticker.Stop()

		rc.Collect()

		for {
			select {
			case <-ctx.Done():
				rc.running.Store(false)
				return
			case <-rc.stopCh:
				rc.running.Store(false)
				return
			case <-ticker.C:
				rc.Collect()
			}
		}
	}()
}

// Stop stops the collector.
func (rc *RuntimeCollector) Stop() {
	if rc.running.Load() {
		close(rc.stopCh)
	}
}

// AdditionalMetrics returns additional runtime metrics for registration.
func (rc *RuntimeCollector) AdditionalMetrics() []Metric {
	return []Metric{
		rc.HeapAlloc,
		rc.HeapInuse,
		rc.HeapObjects,
		rc.GCPauseNs,
		rc.NumGC,
	}
}

// AccountsCounter reports the number of accounts held by a database.
type AccountsCounter interface {
	AccountsCount() uint64
}

// DBCollector collects account database statistics.
type DBCollector struct {
	metrics  *Metrics
	counter  AccountsCounter
	dbPath   string
	interval time.Duration
	running  atomic.Bool
	stopCh   chan struct{}
}

// NewDBCollector creates a new database collector. dbPath may be empty
// when the database is not file backed.
func NewDBCollector(m *Metrics, counter AccountsCounter, dbPath string, interval time.Duration) *DBCollector {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &DBCollector{
		metrics:  m,
		counter:  counter,
		dbPath:   dbPath,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Collect collects database metrics.
func (dc *DBCollector) Collect() {
	if dc.metrics == nil {
		return
	}

	if dc.counter != nil {
		dc.metrics.AccountsCount.SetUint64(dc.counter.AccountsCount())
	}

	if dc.dbPath != "" {
		if size := dirSize(dc.dbPath); size > 0 {
			dc.metrics.DBSizeBytes.Set(size)
		}
	}
}

// dirSize returns the total size of regular files under path.
func dirSize(path string) int64 {
	var size int64

	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0
	}

	return size
}

// Start starts periodic collection.
func (dc *DBCollector) Start(ctx context.Context) {
	if dc.running.Swap(true) {
		return
	}

	go func() {
		ticker := time.NewTicker(dc.interval)
		defer ticker.Stop()

		dc.Collect()

		for {
			select {
			case <-ctx.Done():
				dc.running.Store(false)
				return
			case <-dc.stopCh:
				dc.running.Store(false)
				return
			case <-ticker.C:
				dc.Collect()
			}
		}
	}()
}

// Stop stops the collector.
func (dc *DBCollector) Stop() {
	if dc.running.Load() {
		close(dc.stopCh)
	}
}

// CollectorManager manages multiple collectors.
type CollectorManager struct {
	mu         sync.RWMutex
	collectors []Collector
	ctx        context.Context
	cancel     context.CancelFunc
	running    bool
}

// NewCollectorManager creates a new collector manager.
func NewCollectorManager() *CollectorManager {
	return &CollectorManager{
		collectors: make([]Collector, 0),
	}
}

// Add adds a collector to the manager.
func (cm *CollectorManager) Add(c Collector) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.collectors = append(cm.collectors, c)
}

// Start starts all collectors.
func (cm *CollectorManager) Start() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.running {
		return
	}

	cm.ctx, cm.cancel = context.WithCancel(context.Background())
	cm.running = true

	for _, c := range cm.collectors {
		c.Start(cm.ctx)
	}
}

// Stop stops all collectors.
func (cm *CollectorManager) Stop() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.running {
		return
	}

	cm.cancel()
	cm.running = false

	for _, c := range cm.collectors {
		c.Stop()
	}
}

// CollectAll triggers collection on all collectors.
func (cm *CollectorManager) CollectAll() {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for _, c := range cm.collectors {
		c.Collect()
	}
}
