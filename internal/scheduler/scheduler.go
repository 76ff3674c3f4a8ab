package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	applogger "CryptoPulse/pkg/logger"
)

// Runner executes one research pass for one user.
type Runner interface {
	ResearchUser(ctx context.Context, settings *models.ResearchSettings) ([]*models.ResearchResult, error)
}

// ScheduleEntry describes one user's active research timer.
type ScheduleEntry struct {
	UserID    string
	Frequency time.Duration
	StartedAt time.Time
}

type entry struct {
	userID    string
	frequency time.Duration
	startedAt time.Time
	cancel    context.CancelFunc
}

// Scheduler owns one timer per enabled user and reconciles the timer set
// against the settings store once a minute, so frequency changes and newly
// enabled users take effect without a restart.
type Scheduler struct {
	settings drepo.SettingsStore
	runner   Runner
	metrics  drepo.Metrics
	log      *applogger.Logger
	cron     *gocron.Scheduler

	mu      sync.Mutex
	entries map[string]*entry
	started bool

	rootCtx    context.Context
	rootCancel context.CancelFunc

	maxJitter time.Duration
}

func New(settings drepo.SettingsStore, runner Runner, metrics drepo.Metrics, log *applogger.Logger) *Scheduler {
	return &Scheduler{
		settings:  settings,
		runner:    runner,
		metrics:   metrics,
		log:       log,
		cron:      gocron.NewScheduler(time.UTC),
		entries:   make(map[string]*entry),
		maxJitter: 30 * time.Second,
	}
}

// Start reconciles immediately and then once a minute in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.rootCtx, s.rootCancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Info("scheduler starting")
	s.reconcile()

	if _, err := s.cron.Every(1).Minute().Do(s.reconcile); err != nil {
		return err
	}
	s.cron.StartAsync()
	return nil
}

// Stop cancels every user timer and the reconcile loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.rootCancel
	for id, e := range s.entries {
		e.cancel()
		delete(s.entries, id)
	}
	s.mu.Unlock()

	s.cron.Stop()
	if cancel != nil {
		cancel()
	}
	s.log.Info("scheduler stopped")
}

// Entries returns a snapshot of the active timers.
func (s *Scheduler) Entries() []ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScheduleEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, ScheduleEntry{UserID: e.userID, Frequency: e.frequency, StartedAt: e.startedAt})
	}
	return out
}

// reconcile aligns the timer set with the settings store: start timers for
// newly enabled users, restart on frequency change, cancel the rest.
func (s *Scheduler) reconcile() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	ctx := s.rootCtx
	s.mu.Unlock()

	all, err := s.settings.List(ctx)
	if err != nil {
		s.metrics.RecordError("scheduler_list_settings")
		s.log.Error("settings list failed", applogger.Error(err))
		return
	}

	seen := make(map[string]struct{}, len(all))
	for _, cfg := range all {
		if cfg == nil || !cfg.Enabled || cfg.FrequencyMinutes <= 0 {
			continue
		}
		seen[cfg.UserID] = struct{}{}
		freq := time.Duration(cfg.FrequencyMinutes) * time.Minute

		s.mu.Lock()
		cur, ok := s.entries[cfg.UserID]
		if ok && cur.frequency == freq {
			s.mu.Unlock()
			continue
		}
		if ok {
			cur.cancel()
			delete(s.entries, cfg.UserID)
		}
		s.startLocked(ctx, cfg.UserID, freq)
		s.mu.Unlock()
	}

	s.mu.Lock()
	for id, e := range s.entries {
		if _, ok := seen[id]; !ok {
			e.cancel()
			delete(s.entries, id)
			s.log.Info("research timer removed", applogger.String("user", id))
		}
	}
	s.mu.Unlock()
}

// startLocked registers and launches one user timer; caller holds s.mu.
func (s *Scheduler) startLocked(ctx context.Context, userID string, freq time.Duration) {
	tctx, cancel := context.WithCancel(ctx)
	e := &entry{userID: userID, frequency: freq, startedAt: time.Now(), cancel: cancel}
	s.entries[userID] = e

	s.log.Info("research timer started",
		applogger.String("user", userID),
		applogger.Duration("frequency", freq))

	go s.runLoop(tctx, userID, freq)
}

// runLoop waits out a jittered first delay, then fires on a fixed ticker.
// Each tick reads the user's settings fresh so symbol and profile edits take
// effect on the next run without a timer restart.
func (s *Scheduler) runLoop(ctx context.Context, userID string, freq time.Duration) {
	first := jitter(freq, s.maxJitter)
	select {
	case <-ctx.Done():
		return
	case <-time.After(first):
	}
	s.runOnce(ctx, userID)

	ticker := time.NewTicker(freq)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, userID)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, userID string) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.RecordError("scheduler_panic")
			s.log.Error("research run panicked",
				applogger.String("user", userID),
				applogger.Any("panic", r))
		}
	}()

	cfg, err := s.settings.Get(ctx, userID)
	if err != nil {
		s.metrics.RecordError("scheduler_get_settings")
		s.log.Error("settings read failed",
			applogger.String("user", userID),
			applogger.Error(err))
		return
	}
	if cfg == nil || !cfg.Enabled {
		return
	}

	start := time.Now()
	results, err := s.runner.ResearchUser(ctx, cfg)
	if err != nil {
		s.metrics.RecordError("scheduler_run")
		s.log.Error("research pass failed",
			applogger.String("user", userID),
			applogger.Error(err))
		return
	}
	s.metrics.RecordLatency("research_pass", time.Since(start).Seconds())
	s.log.Debug("research pass done",
		applogger.String("user", userID),
		applogger.Int("results", len(results)))
}

// jitter spreads first runs so every user does not hit the providers at once.
func jitter(freq, max time.Duration) time.Duration {
	span := freq
	if span > max {
		span = max
	}
	if span <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(span)))
}
