package usecase

import (
	"CryptoPulse/internal/domain/models"
	domsvc "CryptoPulse/internal/domain/service"
	"CryptoPulse/internal/services/stats"
)

// microstructure is the current-run snapshot of the liquidity metrics the
// dynamic thresholds are checked against.
type microstructure struct {
	spread    float64
	depth     float64
	volume    float64
	hasSpread bool
	hasDepth  bool
	hasVolume bool
}

// buildIndicatorSet merges provider snapshots into the run's indicator set
// and feeds the rolling windows. Every snapshot field is optional; a failed
// snapshot contributes only to the failure bookkeeping.
func buildIndicatorSet(symbol string, snaps []*models.MarketSnapshot, kinds map[string]domsvc.ProviderKind, tracker *stats.Tracker) (*models.IndicatorSet, microstructure) {
	set := &models.IndicatorSet{Symbol: symbol}
	var micro microstructure

	var imbSum float64
	var imbN int

	for _, s := range snaps {
		if s == nil {
			continue
		}
		if !s.OK {
			set.ProvidersFail = append(set.ProvidersFail, s.Provider)
			if kinds[s.Provider] == domsvc.KindMetadata {
				set.MetadataFailed = true
			}
			continue
		}
		set.ProvidersOK = append(set.ProvidersOK, s.Provider)

		if s.Price != nil && set.Price == nil {
			set.Price = s.Price
		}
		if s.Change24h != nil && set.Momentum == nil {
			set.Momentum = &models.Indicator{Value: *s.Change24h, Class: momentumClass(*s.Change24h)}
		}
		if s.Volume24h != nil {
			micro.volume, micro.hasVolume = *s.Volume24h, true
			if med := tracker.Median(symbol, stats.MetricVolume); med > 0 {
				set.Volume = &models.Indicator{Value: *s.Volume24h / med, Class: volumeClass(*s.Volume24h / med)}
			} else {
				set.Volume = &models.Indicator{Value: 1, Class: "neutral"}
			}
		}
		if s.High24h != nil && s.Low24h != nil {
			if set.Resistance == nil {
				set.Resistance = s.High24h
			}
			if set.Support == nil {
				set.Support = s.Low24h
			}
		}
		if s.Spread != nil {
			micro.spread, micro.hasSpread = *s.Spread, true
		}
		if s.Depth != nil {
			micro.depth, micro.hasDepth = *s.Depth, true
		}
		if s.Imbalance != nil {
			imbSum += *s.Imbalance
			imbN++
		}
		if s.Sentiment != nil && set.Sentiment == nil {
			set.Sentiment = &models.Indicator{Value: *s.Sentiment, Class: sentimentClass(*s.Sentiment)}
		}
		if s.ProbaUp != nil && set.ModelUp == nil {
			set.ModelUp = &models.Indicator{Value: *s.ProbaUp, Class: sentimentClass(*s.ProbaUp - 0.5)}
		}
	}

	if imbN > 0 {
		imb := imbSum / float64(imbN)
		set.Imbalance = &imb
	}

	// record after reads so this run's values do not shift its own baselines
	if micro.hasSpread {
		tracker.Record(symbol, stats.MetricSpread, micro.spread)
	}
	if micro.hasDepth {
		tracker.Record(symbol, stats.MetricDepth, micro.depth)
	}
	if micro.hasVolume {
		tracker.Record(symbol, stats.MetricVolume, micro.volume)
	}
	if set.Imbalance != nil {
		v := *set.Imbalance
		if v < 0 {
			v = -v
		}
		tracker.Record(symbol, stats.MetricImbalance, v)
	}

	return set, micro
}

func momentumClass(changePct float64) string {
	switch {
	case changePct > 1:
		return "bullish"
	case changePct < -1:
		return "bearish"
	default:
		return "neutral"
	}
}

func volumeClass(ratio float64) string {
	switch {
	case ratio < 0.5:
		return "low"
	case ratio > 1.5:
		return "high"
	default:
		return "neutral"
	}
}

func sentimentClass(s float64) string {
	switch {
	case s > 0.2:
		return "bullish"
	case s < -0.2:
		return "bearish"
	default:
		return "neutral"
	}
}
