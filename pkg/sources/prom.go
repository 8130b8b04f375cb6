package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	prom "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/voluzi/memwatch/pkg/history"
)

// Metric families scraped from a Go process's /metrics endpoint.
const (
	metricHeapAlloc  = "go_memstats_heap_alloc_bytes"
	metricHeapSys    = "go_memstats_heap_sys_bytes"
	metricHeapIdle   = "go_memstats_heap_idle_bytes"
	metricHeapInuse  = "go_memstats_heap_inuse_bytes"
	metricSys        = "go_memstats_sys_bytes"
	metricStackInuse = "go_memstats_stack_inuse_bytes"
	metricRSS        = "process_resident_memory_bytes"
	metricCPUSeconds = "process_cpu_seconds_total"
)

// PromSource samples a remote process by scraping its Prometheus text-format
// metrics endpoint. This keeps heap accounting available without access to
// the target's address space.
type PromSource struct {
	metricsURL string
	client     *http.Client
	timeout    time.Duration
}

// NewPromSource creates a source scraping the given metrics URL.
func NewPromSource(metricsURL string) *PromSource {
	return &PromSource{
		metricsURL: metricsURL,
		client:     http.DefaultClient,
		timeout:    5 * time.Second,
	}
}

func (p *PromSource) scrape() (map[string]*prom.MetricFamily, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.metricsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GET %s: %s: %s", p.metricsURL, resp.Status, strings.TrimSpace(string(b)))
	}

	parser := expfmt.TextParser{}
	return parser.TextToMetricFamilies(resp.Body)
}

// MemoryUsage scrapes the target and assembles a memory sample from its
// runtime gauges.
func (p *PromSource) MemoryUsage() (history.MemorySample, error) {
	fams, err := p.scrape()
	if err != nil {
		return history.MemorySample{}, err
	}

	heapSys := gaugeValue(fams[metricHeapSys])
	totalSys := gaugeValue(fams[metricSys])

	var external uint64
	if totalSys > heapSys {
		external = totalSys - heapSys
	}

	return history.MemorySample{
		Timestamp: time.Now(),
		RSS:       gaugeValue(fams[metricRSS]),
		HeapTotal: heapSys,
		HeapUsed:  gaugeValue(fams[metricHeapAlloc]),
		External:  external,
		Buffers:   gaugeValue(fams[metricStackInuse]),
	}, nil
}

// CPUTimes scrapes the target's cumulative CPU counter. The text format
// exposes a single combined counter, reported here as user time.
func (p *PromSource) CPUTimes() (time.Duration, time.Duration, error) {
	fams, err := p.scrape()
	if err != nil {
		return 0, 0, err
	}

	seconds := counterValue(fams[metricCPUSeconds])
	return time.Duration(seconds * float64(time.Second)), 0, nil
}

// HeapStats scrapes the target's allocator gauges into a snapshot.
func (p *PromSource) HeapStats() (history.HeapStats, error) {
	fams, err := p.scrape()
	if err != nil {
		return history.HeapStats{}, err
	}

	return history.HeapStats{
		HeapSys:   gaugeValue(fams[metricHeapSys]),
		HeapAlloc: gaugeValue(fams[metricHeapAlloc]),
		HeapIdle:  gaugeValue(fams[metricHeapIdle]),
		HeapInuse: gaugeValue(fams[metricHeapInuse]),
	}, nil
}

func gaugeValue(mf *prom.MetricFamily) uint64 {
	if mf == nil {
		return 0
	}
	for _, m := range mf.Metric {
		if m.Gauge != nil {
			return uint64(m.Gauge.GetValue())
		}
		if m.Untyped != nil {
			return uint64(m.Untyped.GetValue())
		}
	}
	return 0
}

func counterValue(mf *prom.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	for _, m := range mf.Metric {
		if m.Counter != nil {
			return m.Counter.GetValue()
		}
	}
	return 0
}
