// Package sources provides the sample-source collaborators the monitor reads
// from: process memory and CPU accounting, runtime heap statistics, system
// memory, disk space and runtime version probes.
package sources

import (
	"time"

	"github.com/voluzi/memwatch/pkg/history"
)

// MemorySource supplies a point-in-time memory usage sample.
type MemorySource interface {
	MemoryUsage() (history.MemorySample, error)
}

// CPUSource supplies cumulative CPU time consumed since process start.
// Callers difference successive readings to obtain per-interval deltas.
type CPUSource interface {
	CPUTimes() (user, system time.Duration, err error)
}

// HeapStatsSource supplies a heap-statistics snapshot from the runtime
// allocator. Snapshots are stored verbatim, never parsed.
type HeapStatsSource interface {
	HeapStats() (history.HeapStats, error)
}

// SystemMemorySource supplies total and free bytes for the host.
type SystemMemorySource interface {
	SystemMemory() (total, free uint64, err error)
}

// DiskSource supplies available bytes for a target volume.
type DiskSource interface {
	AvailableBytes(path string) uint64
}

// VersionSource supplies a dotted runtime version string for compatibility
// reporting.
type VersionSource interface {
	Version() string
}
