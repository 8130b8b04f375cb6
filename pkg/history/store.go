// Package history provides bounded, timestamp-ordered sample buffers for
// memory, CPU and garbage-collector statistics.
package history

import (
	"sync"
	"time"

	"emperror.dev/errors"
)

// Store keeps one bounded buffer per sample kind. Entries are appended in
// chronological order by their single writer; once a buffer exceeds its
// capacity the oldest entries are evicted.
type Store struct {
	lock sync.RWMutex

	memory []MemorySample
	cpu    []CPUSample
	gc     []GCSnapshot

	// maxSize is the maximum number of samples retained per buffer
	maxSize int
}

// NewStore creates a Store with the given per-buffer retention limit.
func NewStore(maxSize int) (*Store, error) {
	if maxSize < 1 {
		return nil, errors.Errorf("history size must be at least 1, got %d", maxSize)
	}
	return &Store{
		memory:  make([]MemorySample, 0, maxSize),
		cpu:     make([]CPUSample, 0, maxSize),
		gc:      make([]GCSnapshot, 0, maxSize),
		maxSize: maxSize,
	}, nil
}

// MaxSize returns the per-buffer retention limit.
func (s *Store) MaxSize() int {
	return s.maxSize
}

// RecordMemory appends a memory sample, evicting the oldest entries when the
// buffer is full.
func (s *Store) RecordMemory(sample MemorySample) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.memory = append(s.memory, sample)
	if len(s.memory) > s.maxSize {
		s.memory = s.memory[len(s.memory)-s.maxSize:]
	}
}

// RecordCPU appends a CPU sample, evicting the oldest entries when the
// buffer is full.
func (s *Store) RecordCPU(sample CPUSample) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.cpu = append(s.cpu, sample)
	if len(s.cpu) > s.maxSize {
		s.cpu = s.cpu[len(s.cpu)-s.maxSize:]
	}
}

// RecordGC appends a GC snapshot, evicting the oldest entries when the
// buffer is full.
func (s *Store) RecordGC(snapshot GCSnapshot) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.gc = append(s.gc, snapshot)
	if len(s.gc) > s.maxSize {
		s.gc = s.gc[len(s.gc)-s.maxSize:]
	}
}

// Memory returns an order-preserving copy of the memory buffer.
func (s *Store) Memory() []MemorySample {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]MemorySample, len(s.memory))
	copy(out, s.memory)
	return out
}

// CPU returns an order-preserving copy of the CPU buffer.
func (s *Store) CPU() []CPUSample {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]CPUSample, len(s.cpu))
	copy(out, s.cpu)
	return out
}

// GC returns an order-preserving copy of the GC buffer.
func (s *Store) GC() []GCSnapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]GCSnapshot, len(s.gc))
	copy(out, s.gc)
	return out
}

// Clear empties all three buffers. Readers never observe a partial clear.
func (s *Store) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.memory = s.memory[:0]
	s.cpu = s.cpu[:0]
	s.gc = s.gc[:0]
}

// LatestMemory returns the most recent memory sample, if any.
func (s *Store) LatestMemory() (MemorySample, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if len(s.memory) == 0 {
		return MemorySample{}, false
	}
	return s.memory[len(s.memory)-1], true
}

// LatestCPU returns the most recent CPU sample, if any.
func (s *Store) LatestCPU() (CPUSample, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if len(s.cpu) == 0 {
		return CPUSample{}, false
	}
	return s.cpu[len(s.cpu)-1], true
}

// LatestGC returns the most recent GC snapshot, if any.
func (s *Store) LatestGC() (GCSnapshot, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if len(s.gc) == 0 {
		return GCSnapshot{}, false
	}
	return s.gc[len(s.gc)-1], true
}

// Counts returns the current length of each buffer.
func (s *Store) Counts() (memory, cpu, gc int) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.memory), len(s.cpu), len(s.gc)
}

// AverageHeapUsed returns the mean heap-used across the memory buffer.
func (s *Store) AverageHeapUsed() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if len(s.memory) == 0 {
		return 0
	}

	var total uint64
	for _, m := range s.memory {
		total += m.HeapUsed
	}
	return total / uint64(len(s.memory))
}

// PeakHeapUsed returns the entry with the highest heap-used value. When
// several entries share the maximum, the first occurrence wins.
func (s *Store) PeakHeapUsed() (MemorySample, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if len(s.memory) == 0 {
		return MemorySample{}, false
	}

	peak := s.memory[0]
	for _, m := range s.memory[1:] {
		if m.HeapUsed > peak.HeapUsed {
			peak = m
		}
	}
	return peak, true
}

// AverageCPUUtilization computes mean CPU usage as a fraction of one core
// over the samples recorded within the given window. Samples hold
// per-interval deltas, so each pair of consecutive timestamps yields one
// utilization reading.
func (s *Store) AverageCPUUtilization(since time.Duration) float64 {
	cutoff := time.Now().Add(-since)

	s.lock.RLock()
	defer s.lock.RUnlock()

	var totalUtil float64
	var count int

	for i := 1; i < len(s.cpu); i++ {
		cur := s.cpu[i]
		if !cur.Timestamp.After(cutoff) {
			continue
		}
		elapsed := cur.Timestamp.Sub(s.cpu[i-1].Timestamp).Seconds()
		if elapsed <= 0 {
			continue
		}
		busy := (cur.User + cur.System).Seconds()
		totalUtil += busy / elapsed
		count++
	}
	if count == 0 {
		return 0
	}
	return totalUtil / float64(count)
}
