package threshold

import (
	"CryptoPulse/internal/services/stats"
)

const (
	// imbalance threshold bounds; p70 of history is clamped into this band.
	minImbalanceThreshold     = 0.05
	maxImbalanceThreshold     = 0.4
	defaultImbalanceThreshold = 0.2
)

// Dynamic holds the history-derived decision boundaries for one symbol.
type Dynamic struct {
	SpreadP20          float64
	SpreadP40          float64
	SpreadP60          float64
	VolumeMedian       float64
	DepthMedian        float64
	ImbalanceStd       float64
	ImbalanceThreshold float64
}

// Calculator derives adaptive thresholds from the rolling-stats tracker.
type Calculator struct {
	tracker *stats.Tracker
}

func NewCalculator(tracker *stats.Tracker) *Calculator {
	return &Calculator{tracker: tracker}
}

// Compute returns the current dynamic thresholds for symbol.
func (c *Calculator) Compute(symbol string) Dynamic {
	d := Dynamic{
		SpreadP20:    c.tracker.Percentile(symbol, stats.MetricSpread, 20),
		SpreadP40:    c.tracker.Percentile(symbol, stats.MetricSpread, 40),
		SpreadP60:    c.tracker.Percentile(symbol, stats.MetricSpread, 60),
		VolumeMedian: c.tracker.Median(symbol, stats.MetricVolume),
		DepthMedian:  c.tracker.Median(symbol, stats.MetricDepth),
		ImbalanceStd: c.tracker.StdDev(symbol, stats.MetricImbalance),
	}
	d.ImbalanceThreshold = c.imbalanceThreshold(symbol)
	return d
}

func (c *Calculator) imbalanceThreshold(symbol string) float64 {
	if c.tracker.Len(symbol, stats.MetricImbalance) == 0 {
		return defaultImbalanceThreshold
	}
	p70 := c.tracker.Percentile(symbol, stats.MetricImbalance, 70)
	if p70 < minImbalanceThreshold {
		return minImbalanceThreshold
	}
	if p70 > maxImbalanceThreshold {
		return maxImbalanceThreshold
	}
	return p70
}

// LiquidityBlocked reports whether current conditions are too illiquid to
// trade: spread above the 80th-percentile history, or depth/volume below half
// their historical medians. Metrics without history never block.
func (c *Calculator) LiquidityBlocked(symbol string, spread, depth, volume float64) bool {
	if c.tracker.Len(symbol, stats.MetricSpread) > 0 {
		if spread > c.tracker.Percentile(symbol, stats.MetricSpread, 80) {
			return true
		}
	}
	if m := c.tracker.Median(symbol, stats.MetricDepth); m > 0 && depth < m/2 {
		return true
	}
	if m := c.tracker.Median(symbol, stats.MetricVolume); m > 0 && volume < m/2 {
		return true
	}
	return false
}
