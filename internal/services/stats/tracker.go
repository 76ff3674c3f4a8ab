package stats

import (
	"math"
	"sort"
	"sync"
)

// Metric names tracked per symbol.
const (
	MetricSpread    = "spread"
	MetricVolume    = "volume"
	MetricDepth     = "depth"
	MetricImbalance = "imbalance" // absolute imbalance
)

// window capacities; metrics not listed fall back to defaultCapacity.
const defaultCapacity = 100

var capacities = map[string]int{
	MetricSpread:    100,
	MetricVolume:    100,
	MetricDepth:     50,
	MetricImbalance: 200,
}

// window is a bounded FIFO series of one scalar metric.
type window struct {
	mu  sync.Mutex
	cap int
	xs  []float64
}

func (w *window) append(v float64) {
	w.mu.Lock()
	w.xs = append(w.xs, v)
	if len(w.xs) > w.cap {
		w.xs = w.xs[1:]
	}
	w.mu.Unlock()
}

func (w *window) snapshot() []float64 {
	w.mu.Lock()
	out := append([]float64(nil), w.xs...)
	w.mu.Unlock()
	return out
}

// Tracker maintains bounded rolling windows per (symbol, metric) pair.
// Windows are created lazily and live for the process lifetime.
type Tracker struct {
	mu      sync.RWMutex
	windows map[string]*window
}

func NewTracker() *Tracker {
	return &Tracker{windows: make(map[string]*window)}
}

func (t *Tracker) get(symbol, metric string) *window {
	key := symbol + "|" + metric
	t.mu.RLock()
	w, ok := t.windows[key]
	t.mu.RUnlock()
	if ok {
		return w
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if w, ok = t.windows[key]; ok {
		return w
	}
	c, ok := capacities[metric]
	if !ok {
		c = defaultCapacity
	}
	w = &window{cap: c, xs: make([]float64, 0, c)}
	t.windows[key] = w
	return w
}

// Record appends a value to the metric's window, evicting the oldest entry
// once the window is full.
func (t *Tracker) Record(symbol, metric string, v float64) {
	t.get(symbol, metric).append(v)
}

// Percentile returns the p-th percentile (0-100) over a sorted copy of the
// window using linear index rounding. An empty window yields 0.
func (t *Tracker) Percentile(symbol, metric string, p float64) float64 {
	xs := t.get(symbol, metric).snapshot()
	return percentile(xs, p)
}

// Median is the 50th percentile.
func (t *Tracker) Median(symbol, metric string) float64 {
	return t.Percentile(symbol, metric, 50)
}

// StdDev returns the sample standard deviation of the window, 0 for fewer
// than two samples.
func (t *Tracker) StdDev(symbol, metric string) float64 {
	xs := t.get(symbol, metric).snapshot()
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Len returns the current window length.
func (t *Tracker) Len(symbol, metric string) int {
	w := t.get(symbol, metric)
	w.mu.Lock()
	n := len(w.xs)
	w.mu.Unlock()
	return n
}

func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Round(p / 100 * float64(len(sorted)-1)))
	return sorted[idx]
}
