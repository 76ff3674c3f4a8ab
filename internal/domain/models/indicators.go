package models

// Indicator is a single named indicator: a numeric value plus an optional
// qualitative classification ("oversold", "bullish", "neutral", ...).
type Indicator struct {
	Value float64
	Class string
}

// IndicatorSet is the symbol-scoped indicator collection one research run is
// scored from. Absent indicators are nil; the scorer treats absence as a zero
// contribution, never as an error.
type IndicatorSet struct {
	Symbol string

	RSI       *Indicator
	MACD      *Indicator
	VWAP      *Indicator
	Momentum  *Indicator
	Volume    *Indicator
	Pattern   *Indicator
	ATR       *Indicator
	Sentiment *Indicator // metadata providers, [-1,1]
	ModelUp   *Indicator // ML sidecar probability of upside, when available

	Price      *float64
	Resistance *float64
	Support    *float64
	Imbalance  *float64 // aggregated directional pressure in [-1, 1]

	// Provider bookkeeping used by the availability sub-score and penalties.
	ProvidersOK    []string
	ProvidersFail  []string
	MetadataFailed bool
}

// HasAny reports whether at least one indicator is present.
func (s *IndicatorSet) HasAny() bool {
	if s == nil {
		return false
	}
	for _, ind := range []*Indicator{s.RSI, s.MACD, s.VWAP, s.Momentum, s.Volume, s.Pattern, s.ATR, s.Sentiment, s.ModelUp} {
		if ind != nil {
			return true
		}
	}
	return false
}
