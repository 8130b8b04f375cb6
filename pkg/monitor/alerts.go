package monitor

import (
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/memwatch/pkg/history"
)

// Alert levels.
const (
	AlertWarning  = "warning"
	AlertCritical = "critical"
)

// Alert describes a breached warning or critical level.
type Alert struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	HeapUsed  uint64    `json:"heap_used_bytes"`
	Limit     uint64    `json:"limit_bytes"`
	Timestamp time.Time `json:"timestamp"`
}

// NotifyOnThresholdExceeded registers a callback invoked with a formatted
// message each time the hard threshold is breached. Callbacks accumulate;
// earlier registrations keep firing.
func (m *Monitor) NotifyOnThresholdExceeded(fn func(string)) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.notifyFns = append(m.notifyFns, fn)
}

// SetAlertThresholds swaps the warning and critical levels. A zero value
// disables the corresponding tier. The hard threshold is fixed for the
// monitor's lifetime.
func (m *Monitor) SetAlertThresholds(warning, critical datasize.ByteSize) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.warning = warning
	m.critical = critical
	log.WithFields(map[string]interface{}{
		"warning":  warning.HumanReadable(),
		"critical": critical.HumanReadable(),
	}).Info("alert thresholds updated")
}

// AlertThresholds returns the current warning and critical levels.
func (m *Monitor) AlertThresholds() (warning, critical datasize.ByteSize) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.warning, m.critical
}

// evaluateThresholds checks the sample against the hard threshold and the
// two-tier levels. Critical takes precedence over warning; at most one alert
// is produced per sample.
func (m *Monitor) evaluateThresholds(sample history.MemorySample) (exceeded bool, alert *Alert) {
	exceeded = sample.HeapUsed > uint64(m.cfg.Threshold)

	warning, critical := m.AlertThresholds()

	switch {
	case critical > 0 && sample.HeapUsed > uint64(critical):
		alert = &Alert{
			Level: AlertCritical,
			Message: fmt.Sprintf("critical: heap usage %s exceeds %s",
				datasize.ByteSize(sample.HeapUsed).HumanReadable(), critical.HumanReadable()),
			HeapUsed:  sample.HeapUsed,
			Limit:     uint64(critical),
			Timestamp: sample.Timestamp,
		}
	case warning > 0 && sample.HeapUsed > uint64(warning):
		alert = &Alert{
			Level: AlertWarning,
			Message: fmt.Sprintf("warning: heap usage %s exceeds %s",
				datasize.ByteSize(sample.HeapUsed).HumanReadable(), warning.HumanReadable()),
			HeapUsed:  sample.HeapUsed,
			Limit:     uint64(warning),
			Timestamp: sample.Timestamp,
		}
	}

	return exceeded, alert
}

// emitThresholdExceeded publishes the signal and runs every registered
// notification callback.
func (m *Monitor) emitThresholdExceeded(sample history.MemorySample) {
	m.ntf.Emit(EventThresholdExceeded, sample)

	msg := fmt.Sprintf("heap usage %s exceeds threshold %s",
		datasize.ByteSize(sample.HeapUsed).HumanReadable(), m.cfg.Threshold.HumanReadable())

	m.lock.Lock()
	fns := make([]func(string), len(m.notifyFns))
	copy(fns, m.notifyFns)
	m.lock.Unlock()

	for _, fn := range fns {
		fn(msg)
	}
}

// emitAlert publishes the tiered alert and, on critical levels, triggers an
// automatic heap capture off the sampling goroutine.
func (m *Monitor) emitAlert(sample history.MemorySample, alert *Alert) {
	if alert.Level == AlertCritical {
		log.Warn(alert.Message)
		m.ntf.Emit(EventCriticalAlert, alert)
		m.maybeAutoSnapshot()
		return
	}

	log.Info(alert.Message)
	m.ntf.Emit(EventWarningAlert, alert)
}

// maybeAutoSnapshot starts a rate-limited automatic capture. It never blocks
// the tick.
func (m *Monitor) maybeAutoSnapshot() {
	if !m.cfg.AutoSnapshot {
		return
	}

	m.lock.Lock()
	if time.Since(m.lastSnapshot) < m.cfg.MinSnapshotGap {
		m.lock.Unlock()
		return
	}
	m.lastSnapshot = time.Now()
	m.lock.Unlock()

	go func() {
		if _, err := m.captureHeapSnapshot(m.cfg.SnapshotDir, true); err != nil {
			log.Errorf("automatic heap capture failed: %v", err)
		}
	}()
}
