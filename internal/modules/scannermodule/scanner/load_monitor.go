package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/netshelf/netshelf/internal/logger"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

const (
	sampleInterval = 5 * time.Second

	// Pacing thresholds. Scans are background work; when the host is this
	// busy they yield between folders instead of competing.
	cpuPacingThreshold = 85.0
	memPacingThreshold = 90.0

	pacingDelay = 250 * time.Millisecond
)

// LoadMonitor samples host CPU and memory usage in the background so the
// orchestrator can pace itself on loaded systems. Snapshot reads are cheap
// and never trigger a sample.
type LoadMonitor struct {
	mu         sync.RWMutex
	cpuPercent float64
	memPercent float64
	sampledAt  time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewLoadMonitor creates a load monitor and starts its sampling loop.
func NewLoadMonitor() *LoadMonitor {
	m := &LoadMonitor{
		stop: make(chan struct{}),
	}
	go m.sampleLoop()
	return m
}

// Stop terminates the sampling loop. Safe to call more than once.
func (m *LoadMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

func (m *LoadMonitor) sampleLoop() {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	m.sample()
	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stop:
			return
		}
	}
}

func (m *LoadMonitor) sample() {
	ctx, cancel := context.WithTimeout(context.Background(), sampleInterval)
	defer cancel()

	var cpuPct, memPct float64

	if percents, err := cpu.PercentWithContext(ctx, time.Second, false); err == nil && len(percents) > 0 {
		cpuPct = percents[0]
	} else if err != nil {
		logger.Debug("Load monitor: CPU sample failed: %v", err)
	}

	if stats, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		memPct = stats.UsedPercent
	} else {
		logger.Debug("Load monitor: memory sample failed: %v", err)
	}

	m.mu.Lock()
	m.cpuPercent = cpuPct
	m.memPercent = memPct
	m.sampledAt = time.Now()
	m.mu.Unlock()
}

// Snapshot returns the most recent CPU and memory usage percentages.
func (m *LoadMonitor) Snapshot() (cpuPercent, memPercent float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cpuPercent, m.memPercent
}

// Pace sleeps briefly when the host is under heavy load. It returns
// immediately when load is normal or the context is done.
func (m *LoadMonitor) Pace(ctx context.Context) {
	cpuPct, memPct := m.Snapshot()
	if cpuPct < cpuPacingThreshold && memPct < memPacingThreshold {
		return
	}

	logger.Debug("Load monitor: pacing scan (cpu=%.1f%%, mem=%.1f%%)", cpuPct, memPct)
	select {
	case <-time.After(pacingDelay):
	case <-ctx.Done():
	}
}
