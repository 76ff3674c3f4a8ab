package stats

import "testing"

func TestPercentileEmptyWindow(t *testing.T) {
	tr := NewTracker()
	if got := tr.Percentile("BTCUSDT", MetricSpread, 70); got != 0 {
		t.Fatalf("expected 0 for empty window, got %v", got)
	}
}

func TestPercentileMedian(t *testing.T) {
	tr := NewTracker()
	for _, v := range []float64{5, 1, 3, 2, 4} {
		tr.Record("BTCUSDT", MetricVolume, v)
	}
	if got := tr.Median("BTCUSDT", MetricVolume); got != 3 {
		t.Fatalf("expected median 3, got %v", got)
	}
	if got := tr.Percentile("BTCUSDT", MetricVolume, 0); got != 1 {
		t.Fatalf("expected p0=1, got %v", got)
	}
	if got := tr.Percentile("BTCUSDT", MetricVolume, 100); got != 5 {
		t.Fatalf("expected p100=5, got %v", got)
	}
}

func TestWindowEviction(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 300; i++ {
		tr.Record("ETHUSDT", MetricImbalance, float64(i))
	}
	if n := tr.Len("ETHUSDT", MetricImbalance); n != 200 {
		t.Fatalf("expected window capped at 200, got %d", n)
	}
	// Oldest values must be gone: the minimum remaining is 100.
	if got := tr.Percentile("ETHUSDT", MetricImbalance, 0); got != 100 {
		t.Fatalf("expected oldest evicted, min=%v", got)
	}
}

func TestWindowsIndependentPerSymbol(t *testing.T) {
	tr := NewTracker()
	tr.Record("BTCUSDT", MetricDepth, 10)
	tr.Record("ETHUSDT", MetricDepth, 99)
	if got := tr.Median("BTCUSDT", MetricDepth); got != 10 {
		t.Fatalf("cross-symbol sharing detected, got %v", got)
	}
}

func TestStdDev(t *testing.T) {
	tr := NewTracker()
	if got := tr.StdDev("BTCUSDT", MetricImbalance); got != 0 {
		t.Fatalf("expected 0 stddev without samples, got %v", got)
	}
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		tr.Record("BTCUSDT", MetricImbalance, v)
	}
	got := tr.StdDev("BTCUSDT", MetricImbalance)
	if got < 2.13 || got > 2.14 {
		t.Fatalf("unexpected stddev %v", got)
	}
}
