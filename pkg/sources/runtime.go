package sources

import (
	"os"
	"runtime"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/shirou/gopsutil/process"

	"github.com/voluzi/memwatch/pkg/history"
)

// RuntimeSource samples the current process: heap figures come from the
// runtime allocator, RSS and CPU times from the OS accounting via gopsutil.
type RuntimeSource struct {
	proc *process.Process
}

// NewRuntimeSource creates a source bound to the calling process.
func NewRuntimeSource() (*RuntimeSource, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open own process")
	}
	return &RuntimeSource{proc: proc}, nil
}

// MemoryUsage returns the current memory sample.
func (r *RuntimeSource) MemoryUsage() (history.MemorySample, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	sample := history.MemorySample{
		Timestamp: time.Now(),
		HeapTotal: ms.HeapSys,
		HeapUsed:  ms.HeapAlloc,
		External:  ms.Sys - ms.HeapSys,
		Buffers:   ms.StackInuse,
	}

	mem, err := r.proc.MemoryInfo()
	if err != nil {
		return history.MemorySample{}, errors.Wrap(err, "failed to get memory info")
	}
	sample.RSS = mem.RSS

	return sample, nil
}

// CPUTimes returns cumulative user and system CPU time.
func (r *RuntimeSource) CPUTimes() (time.Duration, time.Duration, error) {
	times, err := r.proc.Times()
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get CPU times")
	}
	user := time.Duration(times.User * float64(time.Second))
	system := time.Duration(times.System * float64(time.Second))
	return user, system, nil
}

// HeapStats returns a verbatim heap-statistics snapshot.
func (r *RuntimeSource) HeapStats() (history.HeapStats, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return history.HeapStats{
		HeapSys:      ms.HeapSys,
		HeapAlloc:    ms.HeapAlloc,
		HeapIdle:     ms.HeapIdle,
		HeapInuse:    ms.HeapInuse,
		HeapReleased: ms.HeapReleased,
		HeapObjects:  ms.HeapObjects,
		NumGC:        ms.NumGC,
		PauseTotal:   ms.PauseTotalNs,
		LastGC:       ms.LastGC,
	}, nil
}

// GoVersion probes the version of the Go runtime executing this process,
// e.g. "1.24.0".
type GoVersion struct{}

// Version returns the dotted runtime version string.
func (GoVersion) Version() string {
	v := runtime.Version()
	return strings.TrimPrefix(v, "go")
}

// FindProcessByName locates a process by executable name. Useful when the
// daemon monitors a sibling process instead of itself.
func FindProcessByName(name string) (*process.Process, error) {
	processes, err := process.Processes()
	if err != nil {
		return nil, err
	}

	for _, proc := range processes {
		pname, err := proc.Name()
		if err == nil && pname == name {
			return proc, nil
		}
	}
	return nil, errors.Errorf("process %s not found", name)
}
