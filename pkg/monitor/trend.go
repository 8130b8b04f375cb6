package monitor

// Trend analysis window and classification band.
const (
	trendMinSamples = 5
	trendWindow     = 10

	// rates strictly inside ±stableBand bytes/sec are reported as stable
	stableBand = 100.0

	predictionHorizonSec = 3600
)

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Trend is the fitted memory growth estimate over the recent sample window.
type Trend struct {
	Direction string `json:"direction"`
	// Rate is heap growth in bytes per second.
	Rate float64 `json:"rate_bytes_per_sec"`
	// Prediction extrapolates heap-used one hour ahead, floored at zero.
	Prediction uint64 `json:"prediction_bytes"`
	// Samples is the number of history entries the fit used.
	Samples int `json:"samples"`
}

// AnalyzeMemoryTrend fits an ordinary-least-squares line of heap-used bytes
// against time over the most recent samples (at most 10). It returns nil
// when fewer than 5 samples have been recorded.
func (m *Monitor) AnalyzeMemoryTrend() *Trend {
	samples := m.store.Memory()
	if len(samples) < trendMinSamples {
		return nil
	}
	if len(samples) > trendWindow {
		samples = samples[len(samples)-trendWindow:]
	}

	// x in seconds relative to the window start keeps the sums small
	origin := samples[0].Timestamp
	var sumX, sumY, sumXY, sumXX float64
	for _, s := range samples {
		x := s.Timestamp.Sub(origin).Seconds()
		y := float64(s.HeapUsed)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	n := float64(len(samples))
	denom := n*sumXX - sumX*sumX

	var rate float64
	if denom != 0 {
		rate = (n*sumXY - sumX*sumY) / denom
	}

	direction := TrendStable
	switch {
	case rate >= stableBand:
		direction = TrendIncreasing
	case rate <= -stableBand:
		direction = TrendDecreasing
	}

	current := float64(samples[len(samples)-1].HeapUsed)
	predicted := current + rate*predictionHorizonSec
	if predicted < 0 {
		predicted = 0
	}

	return &Trend{
		Direction:  direction,
		Rate:       rate,
		Prediction: uint64(predicted),
		Samples:    len(samples),
	}
}
