package usecase

import (
	"context"
	"fmt"
	"time"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
)

// ResultWriter routes finished research results to the configured history
// backend: straight into storage, or through Kafka for a separate consumer.
type ResultWriter struct {
	pub     drepo.Publisher
	store   drepo.HistoryStore
	metrics drepo.Metrics
	backend string
}

// NewResultWriter creates a writer for the given backend ("direct" or "kafka").
func NewResultWriter(pub drepo.Publisher, store drepo.HistoryStore, metrics drepo.Metrics, backend string) *ResultWriter {
	return &ResultWriter{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Write persists a single research result through the configured backend.
func (w *ResultWriter) Write(ctx context.Context, res *models.ResearchResult) error {
	if res == nil {
		return fmt.Errorf("result is nil")
	}

	start := time.Now()
	var err error

	switch w.backend {
	case "kafka":
		err = w.pub.Publish(ctx, res)
	case "direct":
		err = w.store.Store(ctx, res)
	default:
		err = fmt.Errorf("unknown backend: %s", w.backend)
	}

	if err != nil {
		w.metrics.RecordError("result_write")
		return fmt.Errorf("write result: %w", err)
	}

	w.metrics.RecordLatency("result_write", time.Since(start).Seconds())
	return nil
}

// WriteBatch persists multiple results in one backend call.
func (w *ResultWriter) WriteBatch(ctx context.Context, results []*models.ResearchResult) error {
	if len(results) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch w.backend {
	case "kafka":
		err = w.pub.PublishBatch(ctx, results)
	case "direct":
		err = w.store.StoreBatch(ctx, results)
	default:
		err = fmt.Errorf("unknown backend: %s", w.backend)
	}

	if err != nil {
		w.metrics.RecordError("result_write_batch")
		return fmt.Errorf("write result batch: %w", err)
	}

	w.metrics.RecordLatency("result_write_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (w *ResultWriter) Close() {
	if w.pub != nil {
		_ = w.pub.Close()
	}
	if w.store != nil {
		_ = w.store.Close()
	}
}
