package repository

import (
	"context"
	"time"

	"CryptoPulse/internal/domain/models"
)

// SettingsStore is the per-user document store for research configuration.
type SettingsStore interface {
	Get(ctx context.Context, userID string) (*models.ResearchSettings, error)
	Save(ctx context.Context, s *models.ResearchSettings) error
	List(ctx context.Context) ([]*models.ResearchSettings, error)
}

// ResultStore keeps each user's latest research results and alert log.
type ResultStore interface {
	SaveResult(ctx context.Context, res *models.ResearchResult) error
	LatestResults(ctx context.Context, userID string, limit int) ([]*models.ResearchResult, error)
	LogAlert(ctx context.Context, userID string, a models.Alert) error
}

// HistoryStore is the append-only research history backend.
type HistoryStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, res *models.ResearchResult) error
	StoreBatch(ctx context.Context, results []*models.ResearchResult) error
	Query(ctx context.Context, userID, symbol string, from, to time.Time, limit int) ([]*models.ResearchResult, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Publisher hands research results to the streaming backend.
type Publisher interface {
	Publish(ctx context.Context, res *models.ResearchResult) error
	PublishBatch(ctx context.Context, results []*models.ResearchResult) error
	Close() error
}

// Metrics records operational metrics for the research pipeline.
type Metrics interface {
	RecordResearchRun(userID, symbol, signal string)
	RecordConfidence(symbol string, confidence float64)
	RecordAlert(outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	SetLiveConnections(n int)
}
