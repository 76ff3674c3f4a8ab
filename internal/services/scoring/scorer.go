package scoring

import (
	"math"

	"CryptoPulse/internal/domain/models"
)

const (
	// score bounds; confidence never claims certainty.
	maxConfidence = 95.0

	// penalty constants
	metadataFailureFactor = 0.7
	lowVolumeNeutralCap   = 60.0
	resistanceProximity   = 0.02 // within 2% below resistance
)

// Outcome is the full scoring result, breakdown included for observability.
type Outcome struct {
	Confidence float64 // [0, maxConfidence]
	Breakdown  models.ScoreBreakdown
	Weights    map[string]float64
	Capped     bool // low-volume/neutral-momentum ceiling applied
	Penalized  bool // metadata failure factor applied
}

// Scorer combines an indicator set into a bounded confidence value using a
// strategy weight profile and deterministic penalty rules.
type Scorer struct{}

func NewScorer() *Scorer { return &Scorer{} }

// Score computes the confidence for one symbol's indicator set. A missing or
// empty set yields confidence 0, not an error.
func (s *Scorer) Score(set *models.IndicatorSet, profileName string) Outcome {
	profile := ProfileFor(profileName)
	out := Outcome{Weights: profile}

	if set == nil || !set.HasAny() {
		return out
	}

	bd := models.ScoreBreakdown{
		Indicators:   indicatorScore(set),
		Structure:    structureScore(set),
		Momentum:     momentumScore(set),
		Volume:       volumeScore(set),
		Availability: availabilityScore(set),
	}

	total := bd.Indicators*profile[WeightIndicators] +
		bd.Structure*profile[WeightStructure] +
		bd.Momentum*profile[WeightMomentum] +
		bd.Volume*profile[WeightVolume] +
		bd.Availability*profile[WeightAvailability]

	if set.MetadataFailed {
		total *= metadataFailureFactor
		out.Penalized = true
	}
	if lowVolume(set) && neutralMomentum(set) && total > lowVolumeNeutralCap {
		total = lowVolumeNeutralCap
		out.Capped = true
	}

	out.Breakdown = bd
	out.Confidence = clamp(total, 0, maxConfidence)
	return out
}

// indicatorScore averages the strength of whatever indicators are present.
// Classified extremes read stronger than neutral; absent indicators simply
// do not participate, and an empty set scores 0.
func indicatorScore(set *models.IndicatorSet) float64 {
	var sum float64
	var n int
	for _, ind := range []*models.Indicator{set.RSI, set.MACD, set.VWAP, set.Pattern, set.ATR} {
		if ind == nil {
			continue
		}
		sum += classStrength(ind.Class)
		n++
	}
	if set.Sentiment != nil {
		sum += 50 + math.Abs(set.Sentiment.Value)*30
		n++
	}
	if set.ModelUp != nil {
		// model probability: distance from coin-flip is the signal strength
		sum += 50 + math.Abs(set.ModelUp.Value-0.5)*100
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp(sum/float64(n), 0, 100)
}

// structureScore reads trend alignment from price vs support/resistance.
// A BUY-leaning setup close under resistance is penalized.
func structureScore(set *models.IndicatorSet) float64 {
	if set.Price == nil || (set.Support == nil && set.Resistance == nil) {
		return 0
	}
	score := 50.0
	if set.Support != nil && *set.Price > *set.Support {
		score += 25
	}
	if set.Resistance != nil && *set.Resistance > 0 {
		margin := (*set.Resistance - *set.Price) / *set.Price
		if margin > 0.05 {
			score += 25
		}
		if buyLeaning(set) && margin >= 0 && margin < resistanceProximity {
			score *= 0.5
		}
	}
	return clamp(score, 0, 100)
}

func momentumScore(set *models.IndicatorSet) float64 {
	if set.Momentum == nil {
		return 0
	}
	score := classStrength(set.Momentum.Class)
	if set.MACD != nil && set.MACD.Class == set.Momentum.Class {
		score += 10
	}
	return clamp(score, 0, 100)
}

// volumeScore maps the volume-vs-average ratio onto [0,100]; 1.0 is neutral.
func volumeScore(set *models.IndicatorSet) float64 {
	if set.Volume == nil {
		return 0
	}
	return clamp(set.Volume.Value*50, 0, 100)
}

func availabilityScore(set *models.IndicatorSet) float64 {
	total := len(set.ProvidersOK) + len(set.ProvidersFail)
	if total == 0 {
		return 0
	}
	return 100 * float64(len(set.ProvidersOK)) / float64(total)
}

func classStrength(class string) float64 {
	switch class {
	case "bullish", "bearish", "oversold", "overbought", "breakout":
		return 80
	case "neutral", "":
		return 50
	default:
		return 50
	}
}

func buyLeaning(set *models.IndicatorSet) bool {
	return set.Imbalance != nil && *set.Imbalance > 0
}

func lowVolume(set *models.IndicatorSet) bool {
	return set.Volume != nil && (set.Volume.Class == "low" || set.Volume.Value < 0.5)
}

func neutralMomentum(set *models.IndicatorSet) bool {
	return set.Momentum != nil && (set.Momentum.Class == "neutral" || set.Momentum.Class == "")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
