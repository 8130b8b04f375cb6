// Package export serializes monitoring reports, captures heap snapshots and
// ships snapshot archives to external storage.
package export

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"os"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/memwatch/pkg/history"
)

// Format selects a report serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	default:
		return "", errors.Errorf("unsupported report format: %q", s)
	}
}

// csvHeader is the fixed memory-history table layout.
var csvHeader = []string{"timestamp", "heap_used", "heap_total", "rss", "external"}

// Report is the composite dump written by WriteReport.
type Report struct {
	GeneratedAt   time.Time              `json:"generated_at"`
	Summary       interface{}            `json:"summary,omitempty"`
	MemoryHistory []history.MemorySample `json:"memory_history"`
	CPUHistory    []history.CPUSample    `json:"cpu_history"`
	GCHistory     []history.GCSnapshot   `json:"gc_history"`
}

// WriteReport serializes the report to path. JSON writes the full structured
// dump; CSV writes the fixed memory-history table, one row per entry.
func WriteReport(report Report, format Format, path string) error {
	switch format {
	case FormatJSON:
		return writeJSON(report, path)
	case FormatCSV:
		return writeCSV(report, path)
	default:
		return errors.Errorf("unsupported report format: %q", format)
	}
}

func writeJSON(report Report, path string) error {
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode report")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	log.WithFields(map[string]interface{}{
		"path":   path,
		"sha256": contentDigest(b),
	}).Debug("report written")
	return nil
}

func contentDigest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func writeCSV(report Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, m := range report.MemoryHistory {
		row := []string{
			m.Timestamp.Format(time.RFC3339Nano),
			strconv.FormatUint(m.HeapUsed, 10),
			strconv.FormatUint(m.HeapTotal, 10),
			strconv.FormatUint(m.RSS, 10),
			strconv.FormatUint(m.External, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
