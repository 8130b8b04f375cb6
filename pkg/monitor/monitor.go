// Package monitor implements periodic process resource sampling with bounded
// history, threshold and trend alerting, leak heuristics and memory pressure
// evaluation.
package monitor

import (
	"context"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/c2h5oh/datasize"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/memwatch/pkg/history"
	"github.com/voluzi/memwatch/pkg/sources"
)

// MinInterval is the lowest accepted sampling cadence.
const MinInterval = time.Second

// impactAlpha weighs the newest tick duration in the self-overhead moving
// average.
const impactAlpha = 0.1

// Monitor drives periodic measurement, history retention and alert
// evaluation for one observed process.
type Monitor struct {
	cfg     *Options
	store   *history.Store
	ntf     *Notifier
	version sources.VersionSource

	lock       sync.Mutex
	cancelMain context.CancelFunc
	cancelGC   context.CancelFunc

	// cumulative CPU readings from the previous tick
	lastUser   time.Duration
	lastSystem time.Duration

	warning  datasize.ByteSize
	critical datasize.ByteSize

	notifyFns []func(string)

	impactAvg    time.Duration
	impactCount  uint64
	lastSnapshot time.Time
}

// New creates a monitor. Invalid threshold or history size fails immediately.
func New(opts ...Option) (*Monitor, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.Threshold == 0 {
		return nil, errors.New("threshold must be greater than zero")
	}

	store, err := history.NewStore(options.MaxHistorySize)
	if err != nil {
		return nil, err
	}

	if options.Memory == nil || options.CPU == nil || options.Heap == nil {
		rt, err := sources.NewRuntimeSource()
		if err != nil {
			return nil, err
		}
		if options.Memory == nil {
			options.Memory = rt
		}
		if options.CPU == nil {
			options.CPU = rt
		}
		if options.Heap == nil {
			options.Heap = rt
		}
	}
	if options.System == nil || options.Disk == nil {
		sys := sources.NewSystemSource()
		if options.System == nil {
			options.System = sys
		}
		if options.Disk == nil {
			options.Disk = sys
		}
	}

	version := options.Version
	if version == nil {
		version = sources.GoVersion{}
	}

	return &Monitor{
		cfg:      options,
		store:    store,
		ntf:      NewNotifier(),
		version:  version,
		warning:  options.WarningThreshold,
		critical: options.CriticalThreshold,
	}, nil
}

// History exposes the sample buffers. Accessors return copies, never the
// internal slices.
func (m *Monitor) History() *history.Store {
	return m.store
}

// Subscribe registers an observer for the given signal.
func (m *Monitor) Subscribe(t EventType, h Handler) {
	m.ntf.Subscribe(t, h)
}

// Threshold returns the configured hard heap-used threshold.
func (m *Monitor) Threshold() datasize.ByteSize {
	return m.cfg.Threshold
}

// Start begins periodic sampling. If the monitor is already running, the
// previous timers are stopped first, so at most one main timer is ever
// active per monitor.
func (m *Monitor) Start(interval time.Duration) error {
	if interval < MinInterval {
		return errors.Errorf("sampling interval must be at least %s, got %s", MinInterval, interval)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.stopLocked()

	// CPU deltas are measured against this baseline on the first tick.
	if user, system, err := m.cfg.CPU.CPUTimes(); err == nil {
		m.lastUser, m.lastSystem = user, system
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMain = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.tick()
			}
		}
	}()

	if m.cfg.EnableGC {
		gcCtx, gcCancel := context.WithCancel(context.Background())
		m.cancelGC = gcCancel

		go func() {
			ticker := time.NewTicker(m.cfg.GCInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gcCtx.Done():
					return
				case <-ticker.C:
					m.collectGCStats()
				}
			}
		}()
	}

	log.WithField("interval", interval).Info("monitoring started")
	return nil
}

// Stop cancels the sampling and GC timers. Safe to call when not running,
// and safe to call repeatedly. A tick already in flight finishes its
// emissions.
func (m *Monitor) Stop() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.cancelMain != nil {
		m.cancelMain()
		m.cancelMain = nil
		log.Info("monitoring stopped")
	}
	if m.cancelGC != nil {
		m.cancelGC()
		m.cancelGC = nil
	}
}

// Running reports whether the main sampling timer is active.
func (m *Monitor) Running() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.cancelMain != nil
}

// tick performs one sampling pass: collect, record, evaluate, emit.
func (m *Monitor) tick() {
	start := time.Now()

	memSample, err := m.cfg.Memory.MemoryUsage()
	if err != nil {
		log.Errorf("error collecting memory sample: %v", err)
		m.ntf.Emit(EventError, err)
		return
	}

	cpuSample, err := m.collectCPUDelta()
	if err != nil {
		log.Errorf("error collecting CPU sample: %v", err)
		m.ntf.Emit(EventError, err)
		return
	}

	m.store.RecordMemory(memSample)
	m.store.RecordCPU(cpuSample)

	exceeded, alert := m.evaluateThresholds(memSample)

	var trend *Trend
	if m.cfg.EnablePredictions {
		trend = m.AnalyzeMemoryTrend()
	}

	m.ntf.Emit(EventMemoryStats, memSample)
	m.ntf.Emit(EventCPUStats, cpuSample)

	if exceeded {
		m.emitThresholdExceeded(memSample)
	}
	if alert != nil {
		m.emitAlert(memSample, alert)
	}
	if trend != nil {
		m.ntf.Emit(EventMemoryTrend, trend)
	}

	m.recordImpact(time.Since(start))
}

// collectCPUDelta differences cumulative readings against the previous tick.
func (m *Monitor) collectCPUDelta() (history.CPUSample, error) {
	user, system, err := m.cfg.CPU.CPUTimes()
	if err != nil {
		return history.CPUSample{}, err
	}

	m.lock.Lock()
	deltaUser := user - m.lastUser
	deltaSystem := system - m.lastSystem
	m.lastUser, m.lastSystem = user, system
	m.lock.Unlock()

	if deltaUser < 0 {
		deltaUser = 0
	}
	if deltaSystem < 0 {
		deltaSystem = 0
	}

	return history.CPUSample{
		Timestamp: time.Now(),
		User:      deltaUser,
		System:    deltaSystem,
	}, nil
}

// collectGCStats appends one heap-statistics snapshot. This is a periodic
// sample of allocator state, not a log of collection passes.
func (m *Monitor) collectGCStats() {
	stats, err := m.cfg.Heap.HeapStats()
	if err != nil {
		log.Errorf("error collecting heap statistics: %v", err)
		m.ntf.Emit(EventError, err)
		return
	}

	snapshot := history.GCSnapshot{Timestamp: time.Now(), Stats: stats}
	m.store.RecordGC(snapshot)
	m.ntf.Emit(EventGCStats, snapshot)
}

// recordImpact folds one tick's duration into the self-overhead average.
func (m *Monitor) recordImpact(elapsed time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.impactCount++
	if m.impactCount == 1 {
		m.impactAvg = elapsed
		return
	}
	m.impactAvg = time.Duration(impactAlpha*float64(elapsed) + (1-impactAlpha)*float64(m.impactAvg))
}

// ClearHistory empties all sample buffers.
func (m *Monitor) ClearHistory() {
	m.store.Clear()
}
