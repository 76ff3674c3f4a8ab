package usecase

import (
	"context"
	"encoding/json"
	"time"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	pkgkafka "CryptoPulse/pkg/kafka"
)

// KafkaResultsHandler consumes published research results and writes them to
// the history store. Used when backend.type is "kafka".
type KafkaResultsHandler struct {
	topic   string
	storage drepo.HistoryStore
	metrics drepo.Metrics
}

func NewKafkaResultsHandler(topic string, storage drepo.HistoryStore, metrics drepo.Metrics) *KafkaResultsHandler {
	return &KafkaResultsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaResultsHandler) Topic() string { return h.topic }

func (h *KafkaResultsHandler) Handle(ctx context.Context, b []byte) error {
	var res models.ResearchResult
	if err := json.Unmarshal(b, &res); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now().UTC()
	}

	start := time.Now()
	err := h.storage.Store(ctx, &res)
	h.metrics.RecordLatency("history_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaResultsHandler)(nil)
