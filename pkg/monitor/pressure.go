package monitor

import "fmt"

// Pressure levels, lowest to highest.
const (
	PressureLow      = "low"
	PressureMedium   = "medium"
	PressureHigh     = "high"
	PressureCritical = "critical"
)

var pressureRank = map[string]int{
	PressureLow:      0,
	PressureMedium:   1,
	PressureHigh:     2,
	PressureCritical: 3,
}

// Pressure evaluation boundaries.
const (
	heapUtilCritical = 0.9
	heapUtilHigh     = 0.75
	systemUtilHigh   = 0.9

	// an increasing trend above this rate contributes to pressure
	pressureTrendRate = 10000.0
)

// PressureReport is a qualitative classification of resource scarcity risk.
type PressureReport struct {
	IsUnderPressure bool     `json:"is_under_pressure"`
	Level           string   `json:"level"`
	Factors         []string `json:"factors"`
}

// DetectMemoryPressure combines heap utilization, system memory utilization,
// threshold state and the latest trend into a pressure level. It only reads;
// no state is mutated.
func (m *Monitor) DetectMemoryPressure() (*PressureReport, error) {
	sample, err := m.cfg.Memory.MemoryUsage()
	if err != nil {
		return nil, err
	}

	report := &PressureReport{Level: PressureLow, Factors: []string{}}

	if sample.HeapTotal > 0 {
		heapUtil := float64(sample.HeapUsed) / float64(sample.HeapTotal)
		switch {
		case heapUtil > heapUtilCritical:
			report.addFactor(fmt.Sprintf("heap utilization at %.0f%%", heapUtil*100), PressureCritical)
		case heapUtil > heapUtilHigh:
			report.addFactor(fmt.Sprintf("heap utilization at %.0f%%", heapUtil*100), PressureHigh)
		}
	}

	if total, free, err := m.cfg.System.SystemMemory(); err == nil && total > 0 {
		sysUtil := float64(total-free) / float64(total)
		if sysUtil > systemUtilHigh {
			report.addFactor(fmt.Sprintf("system memory utilization at %.0f%%", sysUtil*100), PressureHigh)
		}
	}

	if sample.HeapUsed > uint64(m.cfg.Threshold) {
		report.addFactor("heap usage above configured threshold", PressureMedium)
	}

	if trend := m.AnalyzeMemoryTrend(); trend != nil &&
		trend.Direction == TrendIncreasing && trend.Rate > pressureTrendRate {
		report.addFactor(fmt.Sprintf("heap growing at %.0f bytes/sec", trend.Rate), PressureMedium)
	}

	report.IsUnderPressure = len(report.Factors) > 0
	return report, nil
}

// addFactor records a contributing factor and raises the level to at least
// the given one.
func (r *PressureReport) addFactor(factor, atLeast string) {
	r.Factors = append(r.Factors, factor)
	if pressureRank[atLeast] > pressureRank[r.Level] {
		r.Level = atLeast
	}
}
