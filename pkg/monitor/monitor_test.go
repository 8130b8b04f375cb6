package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voluzi/memwatch/pkg/history"
)

// fakeSource serves scripted memory samples and cumulative CPU readings. The
// last entry repeats once the script is exhausted.
type fakeSource struct {
	lock    sync.Mutex
	samples []history.MemorySample
	idx     int
	err     error

	user   time.Duration
	system time.Duration
}

func (f *fakeSource) MemoryUsage() (history.MemorySample, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.err != nil {
		return history.MemorySample{}, f.err
	}
	if len(f.samples) == 0 {
		return history.MemorySample{Timestamp: time.Now()}, nil
	}
	sample := f.samples[f.idx]
	if f.idx < len(f.samples)-1 {
		f.idx++
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	return sample, nil
}

func (f *fakeSource) CPUTimes() (time.Duration, time.Duration, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.user += 10 * time.Millisecond
	f.system += 5 * time.Millisecond
	return f.user, f.system, nil
}

func (f *fakeSource) HeapStats() (history.HeapStats, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.err != nil {
		return history.HeapStats{}, f.err
	}
	return history.HeapStats{HeapAlloc: 1 << 20, NumGC: 3}, nil
}

type fakeSystem struct {
	total uint64
	free  uint64
	disk  uint64
}

func (f fakeSystem) SystemMemory() (uint64, uint64, error) { return f.total, f.free, nil }
func (f fakeSystem) AvailableBytes(string) uint64          { return f.disk }

type fakeVersion struct{ version string }

func (f fakeVersion) Version() string { return f.version }

func newTestMonitor(t *testing.T, src *fakeSource, opts ...Option) *Monitor {
	t.Helper()
	base := []Option{
		WithMemorySource(src),
		WithCPUSource(src),
		WithHeapStatsSource(src),
		WithSystemMemorySource(fakeSystem{total: 16 << 30, free: 8 << 30, disk: 100 << 30}),
		WithDiskSource(fakeSystem{disk: 100 << 30}),
	}
	m, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return m
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "defaults", opts: nil, wantErr: false},
		{name: "zero threshold", opts: []Option{WithThreshold(0)}, wantErr: true},
		{name: "zero history size", opts: []Option{WithMaxHistorySize(0)}, wantErr: true},
		{name: "negative history size", opts: []Option{WithMaxHistorySize(-5)}, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m, err := New(test.opts...)
			if test.wantErr {
				assert.Error(t, err)
				assert.Nil(t, m)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, m)
			}
		})
	}
}

func TestMonitor_StartValidatesInterval(t *testing.T) {
	m := newTestMonitor(t, &fakeSource{})

	err := m.Start(500 * time.Millisecond)
	assert.Error(t, err)
	assert.False(t, m.Running())
}

func TestMonitor_StartStop(t *testing.T) {
	m := newTestMonitor(t, &fakeSource{})

	require.NoError(t, m.Start(time.Second))
	assert.True(t, m.Running())

	m.Stop()
	assert.False(t, m.Running())

	// repeated stops are safe
	m.Stop()
	assert.False(t, m.Running())
}

func TestMonitor_RestartReplacesTimer(t *testing.T) {
	m := newTestMonitor(t, &fakeSource{})

	require.NoError(t, m.Start(time.Second))
	require.NoError(t, m.Start(time.Second))
	assert.True(t, m.Running())

	m.Stop()
	assert.False(t, m.Running())
}

func TestMonitor_TickRecordsAndEmits(t *testing.T) {
	src := &fakeSource{samples: []history.MemorySample{
		{HeapUsed: 1 << 20, HeapTotal: 4 << 20, RSS: 8 << 20},
	}}
	m := newTestMonitor(t, src)

	var memEvents []history.MemorySample
	var cpuEvents []history.CPUSample
	m.Subscribe(EventMemoryStats, func(ev Event) {
		memEvents = append(memEvents, ev.Payload.(history.MemorySample))
	})
	m.Subscribe(EventCPUStats, func(ev Event) {
		cpuEvents = append(cpuEvents, ev.Payload.(history.CPUSample))
	})

	m.tick()

	require.Len(t, memEvents, 1)
	require.Len(t, cpuEvents, 1)
	assert.Equal(t, uint64(1<<20), memEvents[0].HeapUsed)

	memCount, cpuCount, _ := m.History().Counts()
	assert.Equal(t, 1, memCount)
	assert.Equal(t, 1, cpuCount)
}

func TestMonitor_TickSourceError(t *testing.T) {
	src := &fakeSource{err: assert.AnError}
	m := newTestMonitor(t, src)

	var errEvents int
	m.Subscribe(EventError, func(Event) { errEvents++ })

	m.tick()

	assert.Equal(t, 1, errEvents)
	memCount, cpuCount, _ := m.History().Counts()
	assert.Zero(t, memCount)
	assert.Zero(t, cpuCount)
}

func TestMonitor_GCStatsEmitted(t *testing.T) {
	m := newTestMonitor(t, &fakeSource{}, WithGCInterval(10*time.Millisecond))

	snapshots := make(chan history.GCSnapshot, 16)
	m.Subscribe(EventGCStats, func(ev Event) {
		snapshots <- ev.Payload.(history.GCSnapshot)
	})

	require.NoError(t, m.Start(time.Second))
	defer m.Stop()

	select {
	case snapshot := <-snapshots:
		assert.Equal(t, uint64(1<<20), snapshot.Stats.HeapAlloc)
		assert.Equal(t, uint32(3), snapshot.Stats.NumGC)
		assert.False(t, snapshot.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no gc_stats emission")
	}

	m.Stop()
	_, _, gcCount := m.History().Counts()
	assert.GreaterOrEqual(t, gcCount, 1)
}

func TestMonitor_GCTrackingDisabled(t *testing.T) {
	m := newTestMonitor(t, &fakeSource{},
		WithGCTracking(false),
		WithGCInterval(5*time.Millisecond),
	)

	var gcEvents int
	m.Subscribe(EventGCStats, func(Event) { gcEvents++ })

	require.NoError(t, m.Start(time.Second))
	defer m.Stop()

	m.lock.Lock()
	assert.Nil(t, m.cancelGC)
	m.lock.Unlock()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, gcEvents)
	_, _, gcCount := m.History().Counts()
	assert.Zero(t, gcCount)
}

func TestMonitor_GCStatsSourceError(t *testing.T) {
	src := &fakeSource{err: assert.AnError}
	m := newTestMonitor(t, src)

	var errEvents int
	m.Subscribe(EventError, func(Event) { errEvents++ })

	m.collectGCStats()

	assert.Equal(t, 1, errEvents)
	_, _, gcCount := m.History().Counts()
	assert.Zero(t, gcCount)
}

func TestMonitor_ThresholdCallbacksAccumulate(t *testing.T) {
	src := &fakeSource{samples: []history.MemorySample{{HeapUsed: 1 << 20}}}
	m := newTestMonitor(t, src, WithThreshold(1))

	var first, second []string
	m.NotifyOnThresholdExceeded(func(msg string) { first = append(first, msg) })
	m.NotifyOnThresholdExceeded(func(msg string) { second = append(second, msg) })

	var exceededEvents int
	m.Subscribe(EventThresholdExceeded, func(Event) { exceededEvents++ })

	m.tick()

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Contains(t, first[0], "exceeds threshold")
	assert.Equal(t, 1, exceededEvents)
}

func TestMonitor_CriticalTakesPrecedence(t *testing.T) {
	tests := []struct {
		name         string
		heapUsed     uint64
		wantWarning  int
		wantCritical int
	}{
		{name: "above critical", heapUsed: 300, wantWarning: 0, wantCritical: 1},
		{name: "between levels", heapUsed: 150, wantWarning: 1, wantCritical: 0},
		{name: "below both", heapUsed: 50, wantWarning: 0, wantCritical: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src := &fakeSource{samples: []history.MemorySample{{HeapUsed: test.heapUsed}}}
			m := newTestMonitor(t, src,
				WithThreshold(datasize.GB),
				WithAlertThresholds(100, 200),
			)

			var warnings, criticals int
			m.Subscribe(EventWarningAlert, func(Event) { warnings++ })
			m.Subscribe(EventCriticalAlert, func(Event) { criticals++ })

			m.tick()

			assert.Equal(t, test.wantWarning, warnings)
			assert.Equal(t, test.wantCritical, criticals)
		})
	}
}

func TestMonitor_SetAlertThresholds(t *testing.T) {
	src := &fakeSource{samples: []history.MemorySample{{HeapUsed: 150}}}
	m := newTestMonitor(t, src, WithThreshold(datasize.GB))

	var warnings int
	m.Subscribe(EventWarningAlert, func(Event) { warnings++ })

	m.tick()
	assert.Zero(t, warnings)

	m.SetAlertThresholds(100, 0)
	warning, critical := m.AlertThresholds()
	assert.Equal(t, datasize.ByteSize(100), warning)
	assert.Zero(t, critical)

	m.tick()
	assert.Equal(t, 1, warnings)
}

func TestMonitor_ClearHistory(t *testing.T) {
	src := &fakeSource{samples: []history.MemorySample{{HeapUsed: 100}}}
	m := newTestMonitor(t, src)

	m.tick()
	m.tick()
	m.ClearHistory()

	memCount, cpuCount, gcCount := m.History().Counts()
	assert.Zero(t, memCount)
	assert.Zero(t, cpuCount)
	assert.Zero(t, gcCount)
}

func TestMonitor_Statistics(t *testing.T) {
	src := &fakeSource{samples: []history.MemorySample{
		{HeapUsed: 100},
		{HeapUsed: 300},
	}}
	m := newTestMonitor(t, src)

	m.tick()
	m.tick()

	stats := m.Statistics()
	require.NotNil(t, stats.Current)
	assert.Equal(t, uint64(300), stats.Current.HeapUsed)
	assert.Equal(t, uint64(200), stats.AverageHeapUsed)
	require.NotNil(t, stats.Peak)
	assert.Equal(t, uint64(300), stats.Peak.Value)
	assert.Equal(t, uint64(2), stats.Impact.Samples)
	assert.Greater(t, stats.Impact.AverageTickDuration, time.Duration(0))
}
