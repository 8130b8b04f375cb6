package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMetrics = `# HELP go_memstats_heap_alloc_bytes Number of heap bytes allocated and still in use.
# TYPE go_memstats_heap_alloc_bytes gauge
go_memstats_heap_alloc_bytes 1.048576e+06
# TYPE go_memstats_heap_sys_bytes gauge
go_memstats_heap_sys_bytes 4.194304e+06
# TYPE go_memstats_sys_bytes gauge
go_memstats_sys_bytes 8.388608e+06
# TYPE go_memstats_stack_inuse_bytes gauge
go_memstats_stack_inuse_bytes 524288
# TYPE process_resident_memory_bytes gauge
process_resident_memory_bytes 1.6777216e+07
# TYPE process_cpu_seconds_total counter
process_cpu_seconds_total 12.5
`

func newMetricsServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPromSource_MemoryUsage(t *testing.T) {
	srv := newMetricsServer(t, sampleMetrics, http.StatusOK)

	src := NewPromSource(srv.URL)
	sample, err := src.MemoryUsage()
	require.NoError(t, err)

	assert.Equal(t, uint64(1048576), sample.HeapUsed)
	assert.Equal(t, uint64(4194304), sample.HeapTotal)
	assert.Equal(t, uint64(16777216), sample.RSS)
	assert.Equal(t, uint64(4194304), sample.External)
	assert.Equal(t, uint64(524288), sample.Buffers)
	assert.WithinDuration(t, time.Now(), sample.Timestamp, time.Minute)
}

func TestPromSource_CPUTimes(t *testing.T) {
	srv := newMetricsServer(t, sampleMetrics, http.StatusOK)

	src := NewPromSource(srv.URL)
	user, system, err := src.CPUTimes()
	require.NoError(t, err)

	assert.Equal(t, 12500*time.Millisecond, user)
	assert.Equal(t, time.Duration(0), system)
}

func TestPromSource_ScrapeError(t *testing.T) {
	srv := newMetricsServer(t, "gone", http.StatusNotFound)

	src := NewPromSource(srv.URL)
	_, err := src.MemoryUsage()
	assert.Error(t, err)
}

func TestPromSource_MissingFamiliesAreZero(t *testing.T) {
	srv := newMetricsServer(t, "# nothing here\n", http.StatusOK)

	src := NewPromSource(srv.URL)
	sample, err := src.MemoryUsage()
	require.NoError(t, err)
	assert.Zero(t, sample.HeapUsed)
	assert.Zero(t, sample.RSS)
}
