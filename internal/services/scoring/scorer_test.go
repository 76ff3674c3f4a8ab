package scoring

import (
	"math"
	"testing"

	"CryptoPulse/internal/domain/models"
)

func f(v float64) *float64 { return &v }

func strongSet() *models.IndicatorSet {
	return &models.IndicatorSet{
		Symbol:      "BTCUSDT",
		RSI:         &models.Indicator{Value: 28, Class: "oversold"},
		MACD:        &models.Indicator{Value: 1.2, Class: "bullish"},
		Momentum:    &models.Indicator{Value: 2.1, Class: "bullish"},
		Volume:      &models.Indicator{Value: 1.6, Class: "high"},
		Price:       f(100),
		Support:     f(90),
		Resistance:  f(120),
		Imbalance:   f(0.3),
		ProvidersOK: []string{"binance", "coingecko"},
	}
}

func TestConfidenceBounds(t *testing.T) {
	s := NewScorer()
	sets := []*models.IndicatorSet{
		nil,
		{},
		strongSet(),
		{Symbol: "X", RSI: &models.Indicator{Class: "oversold"}},
	}
	for _, set := range sets {
		for _, profile := range []string{"default", "scalping", "swing", "unknown"} {
			out := s.Score(set, profile)
			if out.Confidence < 0 || out.Confidence > 95 {
				t.Fatalf("confidence %v out of [0,95]", out.Confidence)
			}
		}
	}
}

func TestMissingIndicatorSetScoresZero(t *testing.T) {
	s := NewScorer()
	if out := s.Score(nil, "default"); out.Confidence != 0 || out.Breakdown.Indicators != 0 {
		t.Fatalf("nil set should score 0, got %+v", out)
	}
	if out := s.Score(&models.IndicatorSet{Symbol: "BTCUSDT"}, "default"); out.Confidence != 0 {
		t.Fatalf("empty set should score 0, got %v", out.Confidence)
	}
}

func TestLowVolumeNeutralMomentumCap(t *testing.T) {
	s := NewScorer()
	set := strongSet()
	set.Volume = &models.Indicator{Value: 0.3, Class: "low"}
	set.Momentum = &models.Indicator{Value: 0.1, Class: "neutral"}

	out := s.Score(set, "default")
	if out.Confidence > 60 {
		t.Fatalf("expected cap at 60, got %v", out.Confidence)
	}
	if !out.Capped {
		t.Fatalf("expected cap flag")
	}
}

func TestMetadataFailurePenalty(t *testing.T) {
	s := NewScorer()
	base := s.Score(strongSet(), "default")

	failed := strongSet()
	failed.MetadataFailed = true
	out := s.Score(failed, "default")

	if !out.Penalized {
		t.Fatalf("expected penalty flag")
	}
	if math.Abs(out.Confidence-base.Confidence*0.7) > 1e-9 {
		t.Fatalf("expected exactly x0.7: base=%v got=%v", base.Confidence, out.Confidence)
	}
}

func TestResistanceProximityReducesStructure(t *testing.T) {
	s := NewScorer()
	far := strongSet()
	near := strongSet()
	near.Resistance = f(101) // 1% above price, inside the proximity band

	if s.Score(near, "default").Breakdown.Structure >= s.Score(far, "default").Breakdown.Structure {
		t.Fatalf("expected proximity to resistance to reduce structure sub-score")
	}
}

func TestProfileWeights(t *testing.T) {
	for name, p := range profiles {
		var sum float64
		for _, w := range p {
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("profile %s weights sum to %v", name, sum)
		}
	}
	if ProfileFor("scalping")[WeightMomentum] != 0.25 {
		t.Fatalf("scalping momentum weight changed")
	}
	if ProfileFor("nope")[WeightIndicators] != ProfileFor("default")[WeightIndicators] {
		t.Fatalf("unknown profile should fall back to default")
	}
}
