package monitor

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Leak campaign defaults.
const (
	DefaultLeakDuration    = time.Minute
	DefaultLeakThreshold   = 0.1
	DefaultLeakSampleCount = 5

	minLeakSpacing = 100 * time.Millisecond
)

// Leak severities, by fractional growth across the campaign.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// LeakReport is the outcome of one measurement campaign.
type LeakReport struct {
	Detected     bool      `json:"detected"`
	Trend        float64   `json:"trend"`
	Severity     string    `json:"severity,omitempty"`
	Message      string    `json:"message,omitempty"`
	Measurements []uint64  `json:"measurements"`
	Suggestions  []string  `json:"suggestions,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// DetectLeaks runs an independent sampling campaign: sampleCount equally
// spaced heap-used measurements over duration, spacing floored at 100ms.
// Fractional growth above relativeThreshold flags a leak. The campaign is
// fully decoupled from the periodic sampler and its history; concurrent
// campaigns are independent. Zero arguments select the defaults.
func (m *Monitor) DetectLeaks(ctx context.Context, duration time.Duration, relativeThreshold float64, sampleCount int) (*LeakReport, error) {
	if duration <= 0 {
		duration = DefaultLeakDuration
	}
	if relativeThreshold <= 0 {
		relativeThreshold = DefaultLeakThreshold
	}
	if sampleCount < 2 {
		sampleCount = DefaultLeakSampleCount
	}

	spacing := duration / time.Duration(sampleCount)
	if spacing < minLeakSpacing {
		spacing = minLeakSpacing
	}

	report := &LeakReport{
		Measurements: make([]uint64, 0, sampleCount),
		StartedAt:    time.Now(),
	}

	ticker := time.NewTicker(spacing)
	defer ticker.Stop()

	for i := 0; i < sampleCount; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		sample, err := m.cfg.Memory.MemoryUsage()
		if err != nil {
			m.ntf.Emit(EventError, err)
			return nil, err
		}
		report.Measurements = append(report.Measurements, sample.HeapUsed)
	}
	report.FinishedAt = time.Now()

	first := report.Measurements[0]
	last := report.Measurements[len(report.Measurements)-1]
	if first > 0 {
		report.Trend = (float64(last) - float64(first)) / float64(first)
	}

	if report.Trend <= relativeThreshold {
		return report, nil
	}

	report.Detected = true
	report.Severity = classifySeverity(report.Trend)
	report.Message = fmt.Sprintf("potential memory leak: heap grew %.1f%% over %s", report.Trend*100, duration)
	report.Suggestions = leakSuggestions(report.Trend)

	log.WithFields(map[string]interface{}{
		"trend":    report.Trend,
		"severity": report.Severity,
	}).Warn(report.Message)
	m.ntf.Emit(EventLeakDetected, report)

	return report, nil
}

func classifySeverity(trend float64) string {
	switch {
	case trend >= 0.5:
		return SeverityCritical
	case trend >= 0.3:
		return SeverityHigh
	case trend >= 0.15:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func leakSuggestions(trend float64) []string {
	pct := trend * 100
	return []string{
		fmt.Sprintf("heap grew %.1f%% during the campaign; capture a heap snapshot and diff allocation sites", pct),
		"check for unclosed resources (files, connections, tickers)",
		"review goroutine lifecycles and context cancellation",
		"look for unbounded caches or slices that only ever append",
		"re-run the campaign with a longer duration to rule out transient allocation spikes",
	}
}
