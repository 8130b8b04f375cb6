package monitor

import (
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/voluzi/memwatch/pkg/sources"
)

const (
	DefaultThreshold      = 512 * datasize.MB
	DefaultMaxHistorySize = 100
	DefaultGCInterval     = 5 * time.Second
	DefaultSnapshotGap    = 5 * time.Minute
)

func defaultOptions() *Options {
	return &Options{
		Threshold:         DefaultThreshold,
		MaxHistorySize:    DefaultMaxHistorySize,
		EnableGC:          true,
		EnablePredictions: true,
		GCInterval:        DefaultGCInterval,
		SnapshotDir:       ".",
		MinSnapshotGap:    DefaultSnapshotGap,
	}
}

// Options holds the monitor configuration. A populated Options value is
// never mutated after New returns; warning/critical levels are the only
// settings that can be swapped later, through SetAlertThresholds.
type Options struct {
	Threshold         datasize.ByteSize
	MaxHistorySize    int
	EnableGC          bool
	EnablePredictions bool
	WarningThreshold  datasize.ByteSize
	CriticalThreshold datasize.ByteSize

	GCInterval     time.Duration
	SnapshotDir    string
	AutoSnapshot   bool
	MinSnapshotGap time.Duration

	Memory  sources.MemorySource
	CPU     sources.CPUSource
	Heap    sources.HeapStatsSource
	System  sources.SystemMemorySource
	Disk    sources.DiskSource
	Version sources.VersionSource
}

// Option is a functional option for configuring the monitor.
type Option func(*Options)

// WithThreshold sets the hard heap-used alert threshold.
func WithThreshold(v datasize.ByteSize) Option {
	return func(opts *Options) {
		opts.Threshold = v
	}
}

// WithMaxHistorySize sets the per-buffer sample retention limit.
func WithMaxHistorySize(n int) Option {
	return func(opts *Options) {
		opts.MaxHistorySize = n
	}
}

// WithGCTracking toggles the independent GC statistics poller.
func WithGCTracking(enable bool) Option {
	return func(opts *Options) {
		opts.EnableGC = enable
	}
}

// WithPredictions toggles trend evaluation on the sampling tick.
func WithPredictions(enable bool) Option {
	return func(opts *Options) {
		opts.EnablePredictions = enable
	}
}

// WithAlertThresholds sets the optional two-tier alert levels. A zero value
// leaves the corresponding tier unset.
func WithAlertThresholds(warning, critical datasize.ByteSize) Option {
	return func(opts *Options) {
		opts.WarningThreshold = warning
		opts.CriticalThreshold = critical
	}
}

// WithGCInterval overrides the GC poller cadence.
func WithGCInterval(d time.Duration) Option {
	return func(opts *Options) {
		opts.GCInterval = d
	}
}

// WithSnapshotDir sets where heap captures are written.
func WithSnapshotDir(dir string) Option {
	return func(opts *Options) {
		opts.SnapshotDir = dir
	}
}

// WithAutoSnapshot enables rate-limited automatic heap captures on critical
// alerts.
func WithAutoSnapshot(enable bool) Option {
	return func(opts *Options) {
		opts.AutoSnapshot = enable
	}
}

// WithMinSnapshotGap sets the minimum spacing between automatic captures.
func WithMinSnapshotGap(d time.Duration) Option {
	return func(opts *Options) {
		opts.MinSnapshotGap = d
	}
}

// WithMemorySource overrides the memory sample source.
func WithMemorySource(s sources.MemorySource) Option {
	return func(opts *Options) {
		opts.Memory = s
	}
}

// WithCPUSource overrides the CPU sample source.
func WithCPUSource(s sources.CPUSource) Option {
	return func(opts *Options) {
		opts.CPU = s
	}
}

// WithHeapStatsSource overrides the heap-statistics source.
func WithHeapStatsSource(s sources.HeapStatsSource) Option {
	return func(opts *Options) {
		opts.Heap = s
	}
}

// WithSystemMemorySource overrides the host memory probe.
func WithSystemMemorySource(s sources.SystemMemorySource) Option {
	return func(opts *Options) {
		opts.System = s
	}
}

// WithDiskSource overrides the disk space probe.
func WithDiskSource(s sources.DiskSource) Option {
	return func(opts *Options) {
		opts.Disk = s
	}
}

// WithVersionSource overrides the runtime version probe.
func WithVersionSource(s sources.VersionSource) Option {
	return func(opts *Options) {
		opts.Version = s
	}
}
