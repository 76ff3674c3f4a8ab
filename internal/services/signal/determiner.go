package signal

import (
	"CryptoPulse/internal/domain/models"
	"CryptoPulse/internal/services/threshold"
)

// holdFloor: below this confidence (0-100 scale) the signal is always HOLD.
const holdFloor = 50.0

// Determiner maps confidence plus directional cues to BUY/SELL/HOLD.
// It keeps no state across runs.
type Determiner struct{}

func NewDeterminer() *Determiner { return &Determiner{} }

// Determine resolves the signal from confidence, the aggregated imbalance and
// the symbol's dynamic threshold. Confidence below the floor forces HOLD.
func (d *Determiner) Determine(confidence float64, set *models.IndicatorSet, dyn threshold.Dynamic) models.Signal {
	if confidence < holdFloor {
		return models.SignalHold
	}
	if set == nil || set.Imbalance == nil {
		return models.SignalHold
	}
	switch {
	case *set.Imbalance > dyn.ImbalanceThreshold:
		return models.SignalBuy
	case *set.Imbalance < -dyn.ImbalanceThreshold:
		return models.SignalSell
	default:
		return models.SignalHold
	}
}

// DetermineByVotes is the provider-vote variant used when no numeric
// imbalance is available: simple majority of bullish vs bearish snapshots,
// ties are HOLD.
func (d *Determiner) DetermineByVotes(confidence float64, snapshots []*models.MarketSnapshot) models.Signal {
	if confidence < holdFloor {
		return models.SignalHold
	}
	var bulls, bears int
	for _, s := range snapshots {
		if s == nil {
			continue
		}
		up, ok := s.Bullish()
		if !ok {
			continue
		}
		if up {
			bulls++
		} else {
			bears++
		}
	}
	switch {
	case bulls > bears:
		return models.SignalBuy
	case bears > bulls:
		return models.SignalSell
	default:
		return models.SignalHold
	}
}
