package monitor

import (
	"time"

	"github.com/voluzi/memwatch/pkg/history"
)

// cpuAverageWindow bounds the window used for the average CPU figure.
const cpuAverageWindow = time.Hour

// PeakEntry is the highest observed heap-used value and when it occurred.
type PeakEntry struct {
	Value     uint64    `json:"value_bytes"`
	Timestamp time.Time `json:"timestamp"`
}

// CPUStats groups current and averaged CPU figures.
type CPUStats struct {
	Current            *history.CPUSample `json:"current,omitempty"`
	AverageUtilization float64            `json:"average_utilization"`
}

// ImpactStats reports the sampler's own overhead.
type ImpactStats struct {
	AverageTickDuration time.Duration `json:"average_tick_duration"`
	Samples             uint64        `json:"samples"`
}

// GCStats summarizes the GC snapshot buffer.
type GCStats struct {
	Snapshots  int       `json:"snapshots"`
	LastUpdate time.Time `json:"last_update,omitempty"`
}

// Statistics is a read-only composite view over the monitor's state.
type Statistics struct {
	Current         *history.MemorySample `json:"current,omitempty"`
	AverageHeapUsed uint64                `json:"average_heap_used_bytes"`
	Peak            *PeakEntry            `json:"peak,omitempty"`
	Trend           *Trend                `json:"trend,omitempty"`
	CPU             CPUStats              `json:"cpu"`
	Impact          ImpactStats           `json:"impact"`
	GC              GCStats               `json:"gc"`
}

// Statistics aggregates the current sample, history averages, peak entry,
// trend, CPU figures, self-overhead and GC bookkeeping. Nothing is mutated.
func (m *Monitor) Statistics() *Statistics {
	stats := &Statistics{
		AverageHeapUsed: m.store.AverageHeapUsed(),
		CPU: CPUStats{
			AverageUtilization: m.store.AverageCPUUtilization(cpuAverageWindow),
		},
		Trend: m.AnalyzeMemoryTrend(),
	}

	if current, ok := m.store.LatestMemory(); ok {
		stats.Current = &current
	}
	if peak, ok := m.store.PeakHeapUsed(); ok {
		stats.Peak = &PeakEntry{Value: peak.HeapUsed, Timestamp: peak.Timestamp}
	}
	if cpu, ok := m.store.LatestCPU(); ok {
		stats.CPU.Current = &cpu
	}
	if gc, ok := m.store.LatestGC(); ok {
		stats.GC.LastUpdate = gc.Timestamp
	}
	_, _, gcCount := m.store.Counts()
	stats.GC.Snapshots = gcCount

	m.lock.Lock()
	stats.Impact = ImpactStats{AverageTickDuration: m.impactAvg, Samples: m.impactCount}
	m.lock.Unlock()

	return stats
}
