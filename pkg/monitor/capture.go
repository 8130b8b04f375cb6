package monitor

import (
	"time"

	"emperror.dev/errors"
	"github.com/c2h5oh/datasize"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/memwatch/pkg/export"
)

// SnapshotEvent is the payload emitted with EventHeapSnapshot.
type SnapshotEvent struct {
	Path      string `json:"path"`
	Automatic bool   `json:"automatic"`
}

// ReportEvent is the payload emitted with EventReportExported.
type ReportEvent struct {
	Path   string        `json:"path"`
	Format export.Format `json:"format"`
}

// CaptureHeapSnapshot writes a heap profile under dir and returns its path.
// An empty dir falls back to the configured snapshot directory.
func (m *Monitor) CaptureHeapSnapshot(dir string) (string, error) {
	if dir == "" {
		dir = m.cfg.SnapshotDir
	}
	return m.captureHeapSnapshot(dir, false)
}

func (m *Monitor) captureHeapSnapshot(dir string, automatic bool) (string, error) {
	available := m.cfg.Disk.AvailableBytes(dir)
	if available < export.SnapshotSizeEstimate {
		err := errors.Errorf("insufficient disk space for heap snapshot: %s available, %s required",
			datasize.ByteSize(available).HumanReadable(),
			datasize.ByteSize(export.SnapshotSizeEstimate).HumanReadable(),
		)
		m.ntf.Emit(EventError, err)
		return "", err
	}

	path, err := export.WriteHeapSnapshot(dir)
	if err != nil {
		m.ntf.Emit(EventError, err)
		return "", err
	}

	log.WithFields(map[string]interface{}{"path": path, "automatic": automatic}).Info("heap snapshot written")
	m.ntf.Emit(EventHeapSnapshot, SnapshotEvent{Path: path, Automatic: automatic})
	return path, nil
}

// ExportReport dumps the current statistics and recorded history to path.
func (m *Monitor) ExportReport(format export.Format, path string) error {
	report := export.Report{
		GeneratedAt:   time.Now(),
		Summary:       m.Statistics(),
		MemoryHistory: m.store.Memory(),
		CPUHistory:    m.store.CPU(),
		GCHistory:     m.store.GC(),
	}

	if err := export.WriteReport(report, format, path); err != nil {
		m.ntf.Emit(EventError, err)
		return err
	}

	log.WithFields(map[string]interface{}{"path": path, "format": format}).Info("report exported")
	m.ntf.Emit(EventReportExported, ReportEvent{Path: path, Format: format})
	return nil
}
