package sources

import (
	"time"

	"emperror.dev/errors"
	"github.com/shirou/gopsutil/process"

	"github.com/voluzi/memwatch/pkg/history"
)

// ProcessSource samples a sibling process through OS accounting. Allocator
// internals are not visible from outside the target, so resident set size
// stands in for the heap figures; thresholds then apply to RSS.
type ProcessSource struct {
	proc *process.Process
}

// NewProcessSource creates a source bound to the named process.
func NewProcessSource(name string) (*ProcessSource, error) {
	proc, err := FindProcessByName(name)
	if err != nil {
		return nil, err
	}
	return &ProcessSource{proc: proc}, nil
}

// MemoryUsage returns the current memory sample for the target process.
func (p *ProcessSource) MemoryUsage() (history.MemorySample, error) {
	mem, err := p.proc.MemoryInfo()
	if err != nil {
		return history.MemorySample{}, errors.Wrap(err, "failed to get memory info")
	}

	return history.MemorySample{
		Timestamp: time.Now(),
		RSS:       mem.RSS,
		HeapTotal: mem.RSS,
		HeapUsed:  mem.RSS,
		External:  mem.Swap,
	}, nil
}

// CPUTimes returns cumulative user and system CPU time for the target.
func (p *ProcessSource) CPUTimes() (time.Duration, time.Duration, error) {
	times, err := p.proc.Times()
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get CPU times")
	}
	user := time.Duration(times.User * float64(time.Second))
	system := time.Duration(times.System * float64(time.Second))
	return user, system, nil
}
