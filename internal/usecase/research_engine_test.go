package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"CryptoPulse/internal/domain/models"
	domsvc "CryptoPulse/internal/domain/service"
	"CryptoPulse/internal/services/scoring"
	"CryptoPulse/internal/services/signal"
	"CryptoPulse/internal/services/stats"
	"CryptoPulse/internal/services/threshold"
	applogger "CryptoPulse/pkg/logger"
)

func f64(v float64) *float64 { return &v }

type stubProvider struct {
	name string
	kind domsvc.ProviderKind
	snap *models.MarketSnapshot
	err  error
}

func (p *stubProvider) Name() string              { return p.name }
func (p *stubProvider) Kind() domsvc.ProviderKind { return p.kind }
func (p *stubProvider) Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	if p.err != nil {
		return nil, p.err
	}
	s := *p.snap
	s.Symbol = symbol
	return &s, nil
}

type memResultStore struct {
	mu     sync.Mutex
	saved  []*models.ResearchResult
	alerts []models.Alert
}

func (m *memResultStore) SaveResult(ctx context.Context, res *models.ResearchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, res)
	return nil
}

func (m *memResultStore) LatestResults(ctx context.Context, userID string, limit int) ([]*models.ResearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved, nil
}

func (m *memResultStore) LogAlert(ctx context.Context, userID string, a models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	return nil
}

type memSink struct {
	mu   sync.Mutex
	jobs []*AlertJob
}

func (s *memSink) Offer(job *AlertJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *memSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

type nopMetrics struct{}

func (nopMetrics) RecordResearchRun(userID, symbol, signal string) {}
func (nopMetrics) RecordConfidence(symbol string, c float64)       {}
func (nopMetrics) RecordAlert(outcome string)                      {}
func (nopMetrics) RecordError(kind string)                         {}
func (nopMetrics) RecordLatency(op string, seconds float64)        {}
func (nopMetrics) SetLiveConnections(n int)                        {}

func engineLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func bullishProvider() *stubProvider {
	return &stubProvider{
		name: "binance",
		kind: domsvc.KindMarket,
		snap: &models.MarketSnapshot{
			OK:        true,
			Provider:  "binance",
			Price:     f64(50000),
			Change24h: f64(3.2),
			Volume24h: f64(1_000_000),
			High24h:   f64(56000),
			Low24h:    f64(48000),
			Spread:    f64(0.0004),
			Depth:     f64(2_000_000),
			Imbalance: f64(0.5),
			FetchedAt: time.Now(),
		},
	}
}

func newTestEngine(providers []domsvc.SnapshotProvider, store *memResultStore, sink AlertSink, log *applogger.Logger) *ResearchEngine {
	tracker := stats.NewTracker()
	return NewResearchEngine(
		providers,
		tracker,
		threshold.NewCalculator(tracker),
		scoring.NewScorer(),
		signal.NewDeterminer(),
		store,
		nil,
		sink,
		nopMetrics{},
		log,
		time.Second,
	)
}

func TestResearchSymbolProducesResult(t *testing.T) {
	store := &memResultStore{}
	eng := newTestEngine([]domsvc.SnapshotProvider{bullishProvider()}, store, nil, engineLogger(t))

	res, err := eng.ResearchSymbol(context.Background(), "u1", "BTCUSDT", "default")
	if err != nil {
		t.Fatalf("ResearchSymbol: %v", err)
	}
	if res.Symbol != "BTCUSDT" || res.UserID != "u1" {
		t.Fatalf("unexpected identity: %+v", res)
	}
	if res.Confidence <= 0 || res.Confidence > 95 {
		t.Fatalf("confidence out of range: %v", res.Confidence)
	}
	if res.Signal != models.SignalBuy {
		t.Fatalf("expected BUY with strong imbalance, got %s", res.Signal)
	}
	if len(res.Providers) != 1 || res.Providers[0] != "binance" {
		t.Fatalf("unexpected providers: %v", res.Providers)
	}
	if res.Recommendation == "" {
		t.Fatalf("recommendation must not be empty")
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected 1 saved result, got %d", len(store.saved))
	}
}

func TestResearchSymbolAllProvidersFail(t *testing.T) {
	failing := &stubProvider{name: "binance", kind: domsvc.KindMarket, err: errors.New("timeout")}
	eng := newTestEngine([]domsvc.SnapshotProvider{failing}, &memResultStore{}, nil, engineLogger(t))

	if _, err := eng.ResearchSymbol(context.Background(), "u1", "BTCUSDT", "default"); err == nil {
		t.Fatalf("expected error when every provider fails")
	}
}

func TestResearchSymbolPartialFailureDegrades(t *testing.T) {
	meta := &stubProvider{name: "coingecko", kind: domsvc.KindMetadata, err: errors.New("rate limited")}
	full := newTestEngine([]domsvc.SnapshotProvider{bullishProvider()}, &memResultStore{}, nil, engineLogger(t))
	part := newTestEngine([]domsvc.SnapshotProvider{bullishProvider(), meta}, &memResultStore{}, nil, engineLogger(t))

	refRes, err := full.ResearchSymbol(context.Background(), "u1", "BTCUSDT", "default")
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	degRes, err := part.ResearchSymbol(context.Background(), "u1", "BTCUSDT", "default")
	if err != nil {
		t.Fatalf("partial: %v", err)
	}
	if degRes.Confidence >= refRes.Confidence {
		t.Fatalf("metadata failure should lower confidence: %v >= %v", degRes.Confidence, refRes.Confidence)
	}
}

func TestResearchUserTriggersAlert(t *testing.T) {
	sink := &memSink{}
	store := &memResultStore{}
	eng := newTestEngine([]domsvc.SnapshotProvider{bullishProvider()}, store, sink, engineLogger(t))

	settings := &models.ResearchSettings{
		UserID:                 "u1",
		Enabled:                true,
		SelectedSymbols:        []string{"BTCUSDT"},
		StrategyProfile:        "default",
		AccuracyTriggerPercent: 1, // anything above HOLD triggers
	}
	results, err := eng.ResearchUser(context.Background(), settings)
	if err != nil {
		t.Fatalf("ResearchUser: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 alert job, got %d", sink.count())
	}
	if sink.jobs[0].Result.Symbol != "BTCUSDT" {
		t.Fatalf("wrong alert symbol: %s", sink.jobs[0].Result.Symbol)
	}
}

func TestResearchUserBelowTriggerNoAlert(t *testing.T) {
	sink := &memSink{}
	eng := newTestEngine([]domsvc.SnapshotProvider{bullishProvider()}, &memResultStore{}, sink, engineLogger(t))

	settings := &models.ResearchSettings{
		UserID:                 "u1",
		SelectedSymbols:        []string{"BTCUSDT"},
		StrategyProfile:        "default",
		AccuracyTriggerPercent: 99, // unreachable, confidence caps at 95
	}
	if _, err := eng.ResearchUser(context.Background(), settings); err != nil {
		t.Fatalf("ResearchUser: %v", err)
	}
	if sink.count() != 0 {
		t.Fatalf("expected no alert jobs, got %d", sink.count())
	}
}

func TestResearchUserSymbolFailureIsolated(t *testing.T) {
	good := bullishProvider()
	eng := newTestEngine([]domsvc.SnapshotProvider{good}, &memResultStore{}, &memSink{}, engineLogger(t))

	settings := &models.ResearchSettings{
		UserID:          "u1",
		SelectedSymbols: []string{"BTCUSDT", "ETHUSDT"},
		StrategyProfile: "default",
	}
	results, err := eng.ResearchUser(context.Background(), settings)
	if err != nil {
		t.Fatalf("ResearchUser: %v", err)
	}
	// stub provider serves every symbol, so both succeed
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}
