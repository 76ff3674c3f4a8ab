package usecase

import (
	"context"
	"fmt"
	"time"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	domsvc "CryptoPulse/internal/domain/service"
	"CryptoPulse/internal/services/scoring"
	"CryptoPulse/internal/services/signal"
	"CryptoPulse/internal/services/stats"
	"CryptoPulse/internal/services/threshold"
	applogger "CryptoPulse/pkg/logger"
)

// AlertSink accepts triggered alerts for asynchronous delivery.
type AlertSink interface {
	Offer(job *AlertJob) error
}

// ResearchEngine runs the full research pass for a symbol: fan out to all
// providers, merge snapshots, score, decide, persist. One engine instance is
// shared by the scheduler and the on-demand API path.
type ResearchEngine struct {
	providers    []domsvc.SnapshotProvider
	kinds        map[string]domsvc.ProviderKind
	tracker      *stats.Tracker
	thresholds   *threshold.Calculator
	scorer       *scoring.Scorer
	determiner   *signal.Determiner
	results      drepo.ResultStore
	writer       *ResultWriter
	alerts       AlertSink
	metrics      drepo.Metrics
	log          *applogger.Logger
	fetchTimeout time.Duration
}

func NewResearchEngine(
	providers []domsvc.SnapshotProvider,
	tracker *stats.Tracker,
	thresholds *threshold.Calculator,
	scorer *scoring.Scorer,
	determiner *signal.Determiner,
	results drepo.ResultStore,
	writer *ResultWriter,
	alerts AlertSink,
	metrics drepo.Metrics,
	log *applogger.Logger,
	fetchTimeout time.Duration,
) *ResearchEngine {
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	kinds := make(map[string]domsvc.ProviderKind, len(providers))
	for _, p := range providers {
		kinds[p.Name()] = p.Kind()
	}
	return &ResearchEngine{
		providers:    providers,
		kinds:        kinds,
		tracker:      tracker,
		thresholds:   thresholds,
		scorer:       scorer,
		determiner:   determiner,
		results:      results,
		writer:       writer,
		alerts:       alerts,
		metrics:      metrics,
		log:          log,
		fetchTimeout: fetchTimeout,
	}
}

// ResearchSymbol runs one research pass for one symbol. It fails only when no
// provider returned anything usable; partial data degrades the confidence,
// it does not abort the run.
func (e *ResearchEngine) ResearchSymbol(ctx context.Context, userID, symbol, profile string) (*models.ResearchResult, error) {
	res, err := e.researchSymbol(ctx, userID, symbol, profile)
	if err != nil {
		return nil, err
	}
	if e.writer != nil {
		if err := e.writer.Write(ctx, res); err != nil {
			e.log.Warn("history write failed",
				applogger.String("symbol", symbol),
				applogger.Error(err))
		}
	}
	return res, nil
}

func (e *ResearchEngine) researchSymbol(ctx context.Context, userID, symbol, profile string) (*models.ResearchResult, error) {
	start := time.Now()

	snaps := e.fetchSnapshots(ctx, symbol)
	ok := 0
	for _, s := range snaps {
		if s != nil && s.OK {
			ok++
		}
	}
	if ok == 0 {
		e.metrics.RecordError("research_no_data")
		return nil, fmt.Errorf("research %s: all %d providers failed", symbol, len(snaps))
	}

	// thresholds come from history before this run's sample lands
	dyn := e.thresholds.Compute(symbol)
	set, micro := buildIndicatorSet(symbol, snaps, e.kinds, e.tracker)

	outcome := e.scorer.Score(set, profile)

	var sig models.Signal
	switch {
	case e.liquidityBlocked(symbol, micro):
		sig = models.SignalHold
		e.metrics.RecordError("liquidity_block")
	case set.Imbalance != nil:
		sig = e.determiner.Determine(outcome.Confidence, set, dyn)
	default:
		sig = e.determiner.DetermineByVotes(outcome.Confidence, snaps)
	}

	res := &models.ResearchResult{
		UserID:         userID,
		Symbol:         symbol,
		Signal:         sig,
		Confidence:     outcome.Confidence,
		Recommendation: signal.Recommend(sig, outcome.Confidence),
		Breakdown:      outcome.Breakdown,
		Weights:        outcome.Weights,
		Providers:      set.ProvidersOK,
		Timestamp:      time.Now().UTC(),
	}

	if err := e.results.SaveResult(ctx, res); err != nil {
		e.log.Warn("result save failed",
			applogger.String("symbol", symbol),
			applogger.Error(err))
	}

	e.metrics.RecordResearchRun(userID, symbol, string(sig))
	e.metrics.RecordConfidence(symbol, outcome.Confidence)
	e.metrics.RecordLatency("research_symbol", time.Since(start).Seconds())
	return res, nil
}

// ResearchUser runs one pass over every selected symbol and hands triggered
// signals to the alert sink. A failed symbol never stops the others.
func (e *ResearchEngine) ResearchUser(ctx context.Context, settings *models.ResearchSettings) ([]*models.ResearchResult, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings is nil")
	}
	if len(settings.SelectedSymbols) == 0 {
		return nil, nil
	}

	tasks := make([]func(ctx context.Context) (*models.ResearchResult, error), 0, len(settings.SelectedSymbols))
	for _, sym := range settings.SelectedSymbols {
		sym := sym
		tasks = append(tasks, func(ctx context.Context) (*models.ResearchResult, error) {
			return e.researchSymbol(ctx, settings.UserID, sym, settings.StrategyProfile)
		})
	}

	settled := GatherAll(ctx, tasks)
	results := make([]*models.ResearchResult, 0, len(settled))
	for i, st := range settled {
		if st.Err != nil {
			e.log.Warn("symbol research failed",
				applogger.String("user", settings.UserID),
				applogger.String("symbol", settings.SelectedSymbols[i]),
				applogger.Error(st.Err))
			continue
		}
		res := st.Value
		results = append(results, res)

		if e.triggered(res, settings) {
			if err := e.alerts.Offer(&AlertJob{Settings: settings, Result: res}); err != nil {
				e.log.Warn("alert enqueue failed",
					applogger.String("user", settings.UserID),
					applogger.String("symbol", res.Symbol),
					applogger.Error(err))
			}
		}
	}

	// scheduled passes land in history as one batch
	if e.writer != nil && len(results) > 0 {
		if err := e.writer.WriteBatch(ctx, results); err != nil {
			e.log.Warn("history batch write failed",
				applogger.String("user", settings.UserID),
				applogger.Error(err))
		}
	}
	return results, nil
}

// triggered: a HOLD never alerts, everything else alerts once confidence
// reaches the user's trigger percent.
func (e *ResearchEngine) triggered(res *models.ResearchResult, settings *models.ResearchSettings) bool {
	if e.alerts == nil || res == nil {
		return false
	}
	if res.Signal == models.SignalHold {
		return false
	}
	return res.Confidence >= settings.AccuracyTriggerPercent
}

func (e *ResearchEngine) fetchSnapshots(ctx context.Context, symbol string) []*models.MarketSnapshot {
	tasks := make([]func(ctx context.Context) (*models.MarketSnapshot, error), 0, len(e.providers))
	for _, p := range e.providers {
		p := p
		tasks = append(tasks, func(ctx context.Context) (*models.MarketSnapshot, error) {
			fctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
			defer cancel()
			return p.Fetch(fctx, symbol)
		})
	}

	settled := GatherAll(ctx, tasks)
	snaps := make([]*models.MarketSnapshot, 0, len(settled))
	for i, st := range settled {
		name := e.providers[i].Name()
		if st.Err != nil || st.Value == nil {
			e.metrics.RecordError("provider_fetch")
			snaps = append(snaps, &models.MarketSnapshot{
				Provider:  name,
				OK:        false,
				Err:       errString(st.Err),
				FetchedAt: time.Now().UTC(),
			})
			continue
		}
		s := st.Value
		s.Provider = name
		snaps = append(snaps, s)
	}
	return snaps
}

func (e *ResearchEngine) liquidityBlocked(symbol string, micro microstructure) bool {
	if !micro.hasSpread && !micro.hasDepth && !micro.hasVolume {
		return false
	}
	spread, depth, volume := micro.spread, micro.depth, micro.volume
	if !micro.hasDepth {
		depth = 1e18 // absent depth never blocks
	}
	if !micro.hasVolume {
		volume = 1e18
	}
	return e.thresholds.LiquidityBlocked(symbol, spread, depth, volume)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
