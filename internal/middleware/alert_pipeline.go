package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	drepo "CryptoPulse/internal/domain/repository"
)

// AlertProc is the minimal downstream interface the pipeline needs.
type AlertProc[T any] interface {
	Dispatch(ctx context.Context, job T) error
}

// AlertPipeline sits between the research engine and alert delivery.
// It suppresses repeat alerts for the same (user, symbol) inside a cooldown
// window and absorbs delivery-side slowness in a bounded buffer so a slow
// channel cannot stall a scheduler tick.
type AlertPipeline[T any] struct {
	proc     AlertProc[T]
	metrics  drepo.Metrics
	cooldown time.Duration
	bufSize  int
	bufCh    chan T
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSent map[string]time.Time // per user|symbol last accepted time
	keyFn    func(T) string
}

type PipelineOption[T any] func(*AlertPipeline[T])

// WithCooldown sets the minimum gap between alerts for the same key.
func WithCooldown[T any](d time.Duration) PipelineOption[T] {
	return func(p *AlertPipeline[T]) {
		if d > 0 {
			p.cooldown = d
		}
	}
}

// WithBufferSize sets the delivery buffer size.
func WithBufferSize[T any](n int) PipelineOption[T] {
	return func(p *AlertPipeline[T]) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewAlertPipeline creates a pipeline; keyFn derives the cooldown key.
func NewAlertPipeline[T any](proc AlertProc[T], metrics drepo.Metrics, keyFn func(T) string, opts ...PipelineOption[T]) *AlertPipeline[T] {
	p := &AlertPipeline[T]{
		proc:     proc,
		metrics:  metrics,
		cooldown: 5 * time.Minute,
		bufSize:  256,
		stopCh:   make(chan struct{}),
		lastSent: make(map[string]time.Time),
		keyFn:    keyFn,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan T, p.bufSize)
	return p
}

// Start launches the background delivery worker.
func (p *AlertPipeline[T]) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case job := <-p.bufCh:
				if err := p.proc.Dispatch(ctx, job); err != nil {
					p.metrics.RecordError("alert_pipeline_dispatch")
				}
			}
		}
	}()
}

// Stop stops the delivery worker.
func (p *AlertPipeline[T]) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Offer enqueues one alert unless it is inside the cooldown window or the
// buffer is full. Suppression is not an error.
func (p *AlertPipeline[T]) Offer(job T) error {
	key := p.keyFn(job)
	now := time.Now()

	p.mu.Lock()
	if last, ok := p.lastSent[key]; ok && now.Sub(last) < p.cooldown {
		p.mu.Unlock()
		p.metrics.RecordError("alert_pipeline_cooldown")
		return nil
	}
	p.lastSent[key] = now
	p.mu.Unlock()

	select {
	case p.bufCh <- job:
		return nil
	default:
		p.metrics.RecordError("alert_pipeline_buffer_full")
		return fmt.Errorf("alert buffer full")
	}
}
