package signal

import (
	"strings"
	"testing"

	"CryptoPulse/internal/domain/models"
	"CryptoPulse/internal/services/threshold"
)

func f(v float64) *float64 { return &v }

func TestHoldFloorWinsOverImbalance(t *testing.T) {
	d := NewDeterminer()
	set := &models.IndicatorSet{Imbalance: f(0.9)}
	dyn := threshold.Dynamic{ImbalanceThreshold: 0.2}
	if got := d.Determine(49.9, set, dyn); got != models.SignalHold {
		t.Fatalf("expected HOLD below floor, got %s", got)
	}
	if got := d.Determine(50, set, dyn); got != models.SignalBuy {
		t.Fatalf("expected BUY at floor with strong imbalance, got %s", got)
	}
}

func TestImbalanceVsThreshold(t *testing.T) {
	d := NewDeterminer()
	dyn := threshold.Dynamic{ImbalanceThreshold: 0.2}

	cases := []struct {
		imb  float64
		want models.Signal
	}{
		{0.3, models.SignalBuy},
		{-0.3, models.SignalSell},
		{0.1, models.SignalHold},
		{-0.1, models.SignalHold},
		{0.2, models.SignalHold}, // boundary is not a cross
	}
	for _, c := range cases {
		if got := d.Determine(80, &models.IndicatorSet{Imbalance: f(c.imb)}, dyn); got != c.want {
			t.Fatalf("imbalance %v: expected %s got %s", c.imb, c.want, got)
		}
	}
	if got := d.Determine(80, &models.IndicatorSet{}, dyn); got != models.SignalHold {
		t.Fatalf("no imbalance should HOLD, got %s", got)
	}
}

func TestDetermineByVotes(t *testing.T) {
	d := NewDeterminer()
	up := &models.MarketSnapshot{OK: true, Change24h: f(2)}
	down := &models.MarketSnapshot{OK: true, Change24h: f(-2)}
	failed := &models.MarketSnapshot{OK: false, Change24h: f(5)}

	if got := d.DetermineByVotes(80, []*models.MarketSnapshot{up, up, down, failed}); got != models.SignalBuy {
		t.Fatalf("expected BUY majority, got %s", got)
	}
	if got := d.DetermineByVotes(80, []*models.MarketSnapshot{up, down}); got != models.SignalHold {
		t.Fatalf("expected HOLD on tie, got %s", got)
	}
	if got := d.DetermineByVotes(30, []*models.MarketSnapshot{up, up}); got != models.SignalHold {
		t.Fatalf("expected HOLD below floor, got %s", got)
	}
}

func TestRecommendTiers(t *testing.T) {
	if got := Recommend(models.SignalHold, 99); !strings.Contains(got, "Wait") {
		t.Fatalf("HOLD should always be a wait message, got %q", got)
	}
	if got := Recommend(models.SignalBuy, 90); !strings.Contains(got, "Execute") {
		t.Fatalf("expected execute tier, got %q", got)
	}
	if got := Recommend(models.SignalBuy, 75); !strings.Contains(got, "Consider") {
		t.Fatalf("expected consider tier, got %q", got)
	}
	if got := Recommend(models.SignalSell, 55); !strings.Contains(got, "Monitor") {
		t.Fatalf("expected monitor tier, got %q", got)
	}
}
