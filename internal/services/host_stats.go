package services

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostSnapshot captures host resource usage for the health endpoint.
type HostSnapshot struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUCores      int       `json:"cpu_cores"`
	CPUUsage      float64   `json:"cpu_usage_percent"`
	MemoryUsage   float64   `json:"memory_usage_percent"`
	MemoryTotalMB uint64    `json:"memory_total_mb"`
	Goroutines    int       `json:"goroutines"`
}

// HostMonitor samples CPU and memory, reusing a snapshot for minAge.
type HostMonitor struct {
	mu     sync.Mutex
	minAge time.Duration
	last   *HostSnapshot
	now    func() time.Time
}

func NewHostMonitor(minAge time.Duration) *HostMonitor {
	return &HostMonitor{minAge: minAge, now: time.Now}
}

// Snapshot returns current host usage. Sampling errors leave the affected fields zero.
func (m *HostMonitor) Snapshot(ctx context.Context) HostSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.last != nil && now.Sub(m.last.Timestamp) < m.minAge {
		return *m.last
	}

	snapshot := HostSnapshot{
		Timestamp:  now,
		CPUCores:   runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
	}

	// A zero interval compares against the previous call instead of blocking.
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		snapshot.CPUUsage = percents[0]
	}
	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snapshot.MemoryUsage = memInfo.UsedPercent
		snapshot.MemoryTotalMB = memInfo.Total / 1024 / 1024
	}

	m.last = &snapshot
	return snapshot
}
