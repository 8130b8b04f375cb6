package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/memwatch/pkg/export"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf("error encoding response: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"running":   s.mon.Running(),
		"threshold": uint64(s.mon.Threshold()),
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.mon.Statistics())
}

func (s *Server) memoryHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.mon.History().Memory())
}

func (s *Server) cpuHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.mon.History().CPU())
}

func (s *Server) gcHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.mon.History().GC())
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	s.mon.ClearHistory()
	log.Info("history cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) trend(w http.ResponseWriter, r *http.Request) {
	trend := s.mon.AnalyzeMemoryTrend()
	if trend == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, trend)
}

func (s *Server) pressure(w http.ResponseWriter, r *http.Request) {
	report, err := s.mon.DetectMemoryPressure()
	if err != nil {
		log.Errorf("error evaluating memory pressure: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func (s *Server) compatibility(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.mon.CheckRuntimeCompatibility())
}

func (s *Server) snapshotsSize(w http.ResponseWriter, r *http.Request) {
	size, err := export.DirSize(s.cfg.SnapshotDir)
	if err != nil {
		log.Errorf("error getting snapshot directory size: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.WithField("size", size).Info("retrieved snapshots size")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(strconv.FormatInt(size, 10)))
}

// detectLeaks runs a sampling campaign. Duration, threshold and sample count
// come from query parameters; omitted values select the campaign defaults.
func (s *Server) detectLeaks(w http.ResponseWriter, r *http.Request) {
	var (
		duration  time.Duration
		threshold float64
		samples   int
		err       error
	)

	if v := r.URL.Query().Get("duration"); v != "" {
		if duration, err = time.ParseDuration(v); err != nil {
			http.Error(w, fmt.Sprintf("invalid duration: %v", err), http.StatusBadRequest)
			return
		}
	}
	if v := r.URL.Query().Get("threshold"); v != "" {
		if threshold, err = strconv.ParseFloat(v, 64); err != nil {
			http.Error(w, fmt.Sprintf("invalid threshold: %v", err), http.StatusBadRequest)
			return
		}
	}
	if v := r.URL.Query().Get("samples"); v != "" {
		if samples, err = strconv.Atoi(v); err != nil {
			http.Error(w, fmt.Sprintf("invalid samples: %v", err), http.StatusBadRequest)
			return
		}
	}

	report, err := s.mon.DetectLeaks(r.Context(), duration, threshold, samples)
	if err != nil {
		log.Errorf("leak campaign failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func (s *Server) captureSnapshot(w http.ResponseWriter, r *http.Request) {
	path, err := s.mon.CaptureHeapSnapshot(s.cfg.SnapshotDir)
	if err != nil {
		log.Errorf("heap capture failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"path": path})
}

func (s *Server) exportReport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		log.Errorf("error creating export directory: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	path := filepath.Join(s.cfg.ExportDir, fmt.Sprintf("report-%d.%s", time.Now().UnixMilli(), format))
	if err := s.mon.ExportReport(format, path); err != nil {
		log.Errorf("report export failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"path": path})
}
