package threshold

import (
	"testing"

	"CryptoPulse/internal/services/stats"
)

func TestImbalanceThresholdDefault(t *testing.T) {
	c := NewCalculator(stats.NewTracker())
	d := c.Compute("BTCUSDT")
	if d.ImbalanceThreshold != 0.2 {
		t.Fatalf("expected default 0.2 with no history, got %v", d.ImbalanceThreshold)
	}
}

func TestImbalanceThresholdClampedHigh(t *testing.T) {
	tr := stats.NewTracker()
	for i := 0; i < 50; i++ {
		tr.Record("BTCUSDT", stats.MetricImbalance, 0.9)
	}
	c := NewCalculator(tr)
	if got := c.Compute("BTCUSDT").ImbalanceThreshold; got != 0.4 {
		t.Fatalf("expected clamp to 0.4, got %v", got)
	}
}

func TestImbalanceThresholdClampedLow(t *testing.T) {
	tr := stats.NewTracker()
	for i := 0; i < 50; i++ {
		tr.Record("BTCUSDT", stats.MetricImbalance, 0.001)
	}
	c := NewCalculator(tr)
	if got := c.Compute("BTCUSDT").ImbalanceThreshold; got != 0.05 {
		t.Fatalf("expected clamp to 0.05, got %v", got)
	}
}

func TestLiquidityBlocked(t *testing.T) {
	tr := stats.NewTracker()
	for i := 1; i <= 10; i++ {
		tr.Record("BTCUSDT", stats.MetricSpread, float64(i))   // p80 = 9
		tr.Record("BTCUSDT", stats.MetricDepth, 100)           // median 100
		tr.Record("BTCUSDT", stats.MetricVolume, 1000)         // median 1000
	}
	c := NewCalculator(tr)

	if c.LiquidityBlocked("BTCUSDT", 5, 100, 1000) {
		t.Fatalf("normal conditions should not block")
	}
	if !c.LiquidityBlocked("BTCUSDT", 20, 100, 1000) {
		t.Fatalf("wide spread should block")
	}
	if !c.LiquidityBlocked("BTCUSDT", 5, 40, 1000) {
		t.Fatalf("thin depth should block")
	}
	if !c.LiquidityBlocked("BTCUSDT", 5, 100, 400) {
		t.Fatalf("low volume should block")
	}
	if c.LiquidityBlocked("ETHUSDT", 999, 0.1, 0.1) {
		t.Fatalf("no history should never block")
	}
}
