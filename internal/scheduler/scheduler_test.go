package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"CryptoPulse/internal/domain/models"
	applogger "CryptoPulse/pkg/logger"
)

type fakeSettings struct {
	mu   sync.Mutex
	byID map[string]*models.ResearchSettings
}

func newFakeSettings(cfgs ...*models.ResearchSettings) *fakeSettings {
	f := &fakeSettings{byID: map[string]*models.ResearchSettings{}}
	for _, c := range cfgs {
		f.byID[c.UserID] = c
	}
	return f
}

func (f *fakeSettings) Get(ctx context.Context, userID string) (*models.ResearchSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[userID], nil
}

func (f *fakeSettings) Save(ctx context.Context, s *models.ResearchSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[s.UserID] = s
	return nil
}

func (f *fakeSettings) List(ctx context.Context) ([]*models.ResearchSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.ResearchSettings, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, nil
}

type fakeRunner struct {
	mu   sync.Mutex
	runs int
	err  error
}

func (r *fakeRunner) ResearchUser(ctx context.Context, settings *models.ResearchSettings) ([]*models.ResearchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	return nil, r.err
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

type nopMetrics struct{}

func (nopMetrics) RecordResearchRun(userID, symbol, signal string) {}
func (nopMetrics) RecordConfidence(symbol string, c float64)       {}
func (nopMetrics) RecordAlert(outcome string)                      {}
func (nopMetrics) RecordError(kind string)                         {}
func (nopMetrics) RecordLatency(op string, seconds float64)        {}
func (nopMetrics) SetLiveConnections(n int)                        {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func enabledUser(id string, freqMinutes int) *models.ResearchSettings {
	return &models.ResearchSettings{
		UserID:           id,
		Enabled:          true,
		FrequencyMinutes: freqMinutes,
		SelectedSymbols:  []string{"BTCUSDT"},
	}
}

func TestReconcileStartsEnabledUsers(t *testing.T) {
	store := newFakeSettings(enabledUser("u1", 5), enabledUser("u2", 15))
	s := New(store, &fakeRunner{}, nopMetrics{}, testLogger(t))
	defer s.Stop()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 timers, got %d", len(entries))
	}
	freqs := map[string]time.Duration{}
	for _, e := range entries {
		freqs[e.UserID] = e.Frequency
	}
	if freqs["u1"] != 5*time.Minute || freqs["u2"] != 15*time.Minute {
		t.Fatalf("unexpected frequencies: %v", freqs)
	}
}

func TestReconcileSkipsDisabledAndZeroFrequency(t *testing.T) {
	off := enabledUser("off", 5)
	off.Enabled = false
	zero := enabledUser("zero", 0)
	store := newFakeSettings(off, zero, enabledUser("on", 5))

	s := New(store, &fakeRunner{}, nopMetrics{}, testLogger(t))
	defer s.Stop()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 1 || entries[0].UserID != "on" {
		t.Fatalf("expected only enabled user, got %+v", entries)
	}
}

func TestReconcileSwapsTimerOnFrequencyChange(t *testing.T) {
	store := newFakeSettings(enabledUser("u1", 5))
	s := New(store, &fakeRunner{}, nopMetrics{}, testLogger(t))
	defer s.Stop()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := store.Save(context.Background(), enabledUser("u1", 30)); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.reconcile()

	entries := s.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one timer after frequency change, got %d", len(entries))
	}
	if entries[0].Frequency != 30*time.Minute {
		t.Fatalf("expected 30m frequency, got %v", entries[0].Frequency)
	}
}

func TestReconcileRemovesDisabledUser(t *testing.T) {
	store := newFakeSettings(enabledUser("u1", 5))
	s := New(store, &fakeRunner{}, nopMetrics{}, testLogger(t))
	defer s.Stop()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cfg := enabledUser("u1", 5)
	cfg.Enabled = false
	if err := store.Save(context.Background(), cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.reconcile()

	if entries := s.Entries(); len(entries) != 0 {
		t.Fatalf("expected no timers, got %+v", entries)
	}
}

func TestRunOnceSurvivesRunnerError(t *testing.T) {
	store := newFakeSettings(enabledUser("u1", 5))
	runner := &fakeRunner{err: errors.New("providers down")}
	s := New(store, runner, nopMetrics{}, testLogger(t))
	s.mu.Lock()
	s.started = true
	s.rootCtx, s.rootCancel = context.WithCancel(context.Background())
	s.mu.Unlock()
	defer s.Stop()

	s.runOnce(context.Background(), "u1")
	s.runOnce(context.Background(), "u1")

	if runner.count() != 2 {
		t.Fatalf("expected 2 run attempts, got %d", runner.count())
	}
}

func TestRunOnceSkipsDisabled(t *testing.T) {
	cfg := enabledUser("u1", 5)
	cfg.Enabled = false
	store := newFakeSettings(cfg)
	runner := &fakeRunner{}
	s := New(store, runner, nopMetrics{}, testLogger(t))

	s.runOnce(context.Background(), "u1")
	if runner.count() != 0 {
		t.Fatalf("disabled user must not run, got %d runs", runner.count())
	}
}

func TestJitterBounded(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := jitter(5*time.Minute, 30*time.Second)
		if d < 0 || d >= 30*time.Second {
			t.Fatalf("jitter out of bounds: %v", d)
		}
	}
	if d := jitter(10*time.Second, 30*time.Second); d >= 10*time.Second {
		t.Fatalf("jitter must stay under the frequency: %v", d)
	}
}
