package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voluzi/memwatch/pkg/history"
	"github.com/voluzi/memwatch/pkg/monitor"
)

type fakeSource struct {
	sample history.MemorySample
}

func (f *fakeSource) MemoryUsage() (history.MemorySample, error) {
	s := f.sample
	s.Timestamp = time.Now()
	return s, nil
}

func (f *fakeSource) CPUTimes() (time.Duration, time.Duration, error) {
	return 10 * time.Millisecond, 5 * time.Millisecond, nil
}

func (f *fakeSource) HeapStats() (history.HeapStats, error) {
	return history.HeapStats{HeapAlloc: 1 << 20}, nil
}

type fakeSystem struct{}

func (fakeSystem) SystemMemory() (uint64, uint64, error) { return 16 << 30, 8 << 30, nil }
func (fakeSystem) AvailableBytes(string) uint64          { return 100 << 30 }

func newTestServer(t *testing.T) (*Server, *monitor.Monitor) {
	t.Helper()

	src := &fakeSource{sample: history.MemorySample{HeapUsed: 1 << 20, HeapTotal: 4 << 20}}
	mon, err := monitor.New(
		monitor.WithThreshold(datasize.GB),
		monitor.WithMemorySource(src),
		monitor.WithCPUSource(src),
		monitor.WithHeapStatsSource(src),
		monitor.WithSystemMemorySource(fakeSystem{}),
		monitor.WithDiskSource(fakeSystem{}),
	)
	require.NoError(t, err)

	dir := t.TempDir()
	s := New(mon,
		WithSnapshotDir(filepath.Join(dir, "snapshots")),
		WithExportDir(filepath.Join(dir, "exports")),
	)
	return s, mon
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["running"])
}

func TestServer_Stats(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats monitor.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Nil(t, stats.Current)
}

func TestServer_MemoryHistory(t *testing.T) {
	s, mon := newTestServer(t)
	mon.History().RecordMemory(history.MemorySample{Timestamp: time.Now(), HeapUsed: 42})

	rec := doRequest(s, http.MethodGet, "/history/memory")
	require.Equal(t, http.StatusOK, rec.Code)

	var samples []history.MemorySample
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &samples))
	require.Len(t, samples, 1)
	assert.Equal(t, uint64(42), samples[0].HeapUsed)
}

func TestServer_GCHistory(t *testing.T) {
	s, mon := newTestServer(t)
	mon.History().RecordGC(history.GCSnapshot{
		Timestamp: time.Now(),
		Stats:     history.HeapStats{HeapAlloc: 1 << 20, NumGC: 7},
	})

	rec := doRequest(s, http.MethodGet, "/history/gc")
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshots []history.GCSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshots))
	require.Len(t, snapshots, 1)
	assert.Equal(t, uint32(7), snapshots[0].Stats.NumGC)
}

func TestServer_ClearHistory(t *testing.T) {
	s, mon := newTestServer(t)
	mon.History().RecordMemory(history.MemorySample{Timestamp: time.Now(), HeapUsed: 42})

	rec := doRequest(s, http.MethodDelete, "/history")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	memCount, _, _ := mon.History().Counts()
	assert.Zero(t, memCount)
}

func TestServer_TrendNoContent(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/trend")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_Trend(t *testing.T) {
	s, mon := newTestServer(t)

	base := time.Now().Add(-10 * time.Second)
	for i := 0; i < 6; i++ {
		mon.History().RecordMemory(history.MemorySample{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			HeapUsed:  uint64(1_000_000 + i*10_000),
		})
	}

	rec := doRequest(s, http.MethodGet, "/trend")
	require.Equal(t, http.StatusOK, rec.Code)

	var trend monitor.Trend
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trend))
	assert.Equal(t, monitor.TrendIncreasing, trend.Direction)
}

func TestServer_Pressure(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/pressure")
	require.Equal(t, http.StatusOK, rec.Code)

	var report monitor.PressureReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.IsUnderPressure)
	assert.Equal(t, monitor.PressureLow, report.Level)
}

func TestServer_Compatibility(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/compatibility")
	require.Equal(t, http.StatusOK, rec.Code)

	var c monitor.Compatibility
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.NotEmpty(t, c.Level)
}

func TestServer_DetectLeaks(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/leaks?duration=300ms&threshold=0.1&samples=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var report monitor.LeakReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Detected)
	assert.Len(t, report.Measurements, 3)
}

func TestServer_DetectLeaksBadParams(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []string{
		"/leaks?duration=fast",
		"/leaks?threshold=high",
		"/leaks?samples=few",
	}
	for _, target := range tests {
		rec := doRequest(s, http.MethodPost, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestServer_CaptureSnapshot(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	info, err := os.Stat(body["path"])
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestServer_ExportReport(t *testing.T) {
	s, mon := newTestServer(t)
	mon.History().RecordMemory(history.MemorySample{Timestamp: time.Now(), HeapUsed: 42})

	rec := doRequest(s, http.MethodPost, "/export?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	content, err := os.ReadFile(body["path"])
	require.NoError(t, err)
	assert.Contains(t, string(content), "timestamp,heap_used")
}

func TestServer_ExportReportBadFormat(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/export?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_MethodsEnforced(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/stats")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
