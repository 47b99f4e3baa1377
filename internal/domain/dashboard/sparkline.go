package dashboard

import (
	"fmt"
	"math/rand"
)

// sparklinePoints is the fixed length of every sparkline series.
const sparklinePoints = 7

// sparklineCache memoizes generated series per (metricKey, current) pair so
// re-renders show the same line instead of re-randomizing it. A changed
// current value produces a fresh series.
type sparklineCache struct {
	series map[string][]float64
}

func newSparklineCache() *sparklineCache {
	return &sparklineCache{series: make(map[string][]float64)}
}

// get returns the cached series for the pair, generating it on first use.
// The caller must hold the deriver lock.
func (sc *sparklineCache) get(metricKey string, current int) []float64 {
	key := fmt.Sprintf("%s:%d", metricKey, current)
	if s, ok := sc.series[key]; ok {
		return s
	}
	s := generateSparkline(current)
	sc.series[key] = s
	return s
}

// generateSparkline fabricates a plausible short history for a metric with
// no real one: an interpolated ramp from 0.7*current up to current with
// bounded variation on the intermediate points. The last point always equals
// the current value.
func generateSparkline(current int) []float64 {
	series := make([]float64, sparklinePoints)
	target := float64(current)
	start := 0.7 * target
	span := target - start
	for i := 0; i < sparklinePoints-1; i++ {
		t := float64(i) / float64(sparklinePoints-1)
		point := start + span*t
		// Jitter bounded to a tenth of the ramp span keeps the line inside
		// the start..current band.
		point += (rand.Float64() - 0.5) * span * 0.1
		if point < 0 {
			point = 0
		}
		series[i] = point
	}
	series[sparklinePoints-1] = target
	return series
}
