package history

import "time"

// MemorySample is a point-in-time memory snapshot. Immutable once recorded.
type MemorySample struct {
	Timestamp time.Time `json:"timestamp"`
	RSS       uint64    `json:"rss_bytes"`
	HeapTotal uint64    `json:"heap_total_bytes"`
	HeapUsed  uint64    `json:"heap_used_bytes"`
	External  uint64    `json:"external_bytes"`
	Buffers   uint64    `json:"buffers_bytes"`
}

// CPUSample holds CPU time consumed since the previous collection,
// not cumulative counters.
type CPUSample struct {
	Timestamp time.Time     `json:"timestamp"`
	User      time.Duration `json:"user"`
	System    time.Duration `json:"system"`
}

// HeapStats is a heap-statistics snapshot taken from the runtime allocator.
// It is stored verbatim and never interpreted by the history store.
type HeapStats struct {
	HeapSys      uint64 `json:"heap_sys_bytes"`
	HeapAlloc    uint64 `json:"heap_alloc_bytes"`
	HeapIdle     uint64 `json:"heap_idle_bytes"`
	HeapInuse    uint64 `json:"heap_inuse_bytes"`
	HeapReleased uint64 `json:"heap_released_bytes"`
	HeapObjects  uint64 `json:"heap_objects"`
	NumGC        uint32 `json:"num_gc"`
	PauseTotal   uint64 `json:"pause_total_ns"`
	LastGC       uint64 `json:"last_gc_ns"`
}

// GCSnapshot pairs a heap-statistics snapshot with its collection time.
type GCSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Stats     HeapStats `json:"stats"`
}
