package middleware

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingProc struct {
	mu   sync.Mutex
	jobs []string
	done chan struct{}
}

func (r *recordingProc) Dispatch(_ context.Context, job string) error {
	r.mu.Lock()
	r.jobs = append(r.jobs, job)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return nil
}

func (r *recordingProc) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: make(map[string]int)}
}

func (m *countingMetrics) RecordResearchRun(string, string, string) {}
func (m *countingMetrics) RecordConfidence(string, float64)         {}
func (m *countingMetrics) RecordAlert(string)                       {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) SetLiveConnections(int)        {}

func (m *countingMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func identity(job string) string { return job }

func TestOfferDeliversToWorker(t *testing.T) {
	proc := &recordingProc{done: make(chan struct{}, 4)}
	p := NewAlertPipeline[string](proc, newCountingMetrics(), identity)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	if err := p.Offer("user1|BTCUSDT"); err != nil {
		t.Fatalf("offer: %v", err)
	}

	select {
	case <-proc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not dispatched")
	}
	if got := proc.count(); got != 1 {
		t.Fatalf("dispatched %d jobs, want 1", got)
	}
}

func TestCooldownSuppressesRepeat(t *testing.T) {
	proc := &recordingProc{}
	m := newCountingMetrics()
	p := NewAlertPipeline[string](proc, m, identity, WithCooldown[string](time.Hour))

	if err := p.Offer("user1|BTCUSDT"); err != nil {
		t.Fatalf("first offer: %v", err)
	}
	if err := p.Offer("user1|BTCUSDT"); err != nil {
		t.Fatalf("suppressed offer should not error: %v", err)
	}

	if got := len(p.bufCh); got != 1 {
		t.Fatalf("buffered %d jobs, want 1", got)
	}
	if got := m.errCount("alert_pipeline_cooldown"); got != 1 {
		t.Fatalf("cooldown counter = %d, want 1", got)
	}
}

func TestCooldownIsPerKey(t *testing.T) {
	proc := &recordingProc{}
	p := NewAlertPipeline[string](proc, newCountingMetrics(), identity, WithCooldown[string](time.Hour))

	if err := p.Offer("user1|BTCUSDT"); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if err := p.Offer("user1|ETHUSDT"); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if got := len(p.bufCh); got != 2 {
		t.Fatalf("buffered %d jobs, want 2", got)
	}
}

func TestOfferFailsWhenBufferFull(t *testing.T) {
	proc := &recordingProc{}
	m := newCountingMetrics()
	p := NewAlertPipeline[string](proc, m, identity, WithBufferSize[string](1))

	if err := p.Offer("a"); err != nil {
		t.Fatalf("first offer: %v", err)
	}
	if err := p.Offer("b"); err == nil {
		t.Fatal("expected error when buffer is full")
	}
	if got := m.errCount("alert_pipeline_buffer_full"); got != 1 {
		t.Fatalf("buffer-full counter = %d, want 1", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	p := NewAlertPipeline[string](&recordingProc{}, newCountingMetrics(), identity)
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
