package models

import "time"

// MarketSnapshot is one provider's view of a symbol at fetch time.
// Every data field is optional; OK=false means the provider call failed
// and all fields must be ignored.
type MarketSnapshot struct {
	Symbol    string
	Provider  string
	OK        bool
	Err       string
	FetchedAt time.Time

	Price     *float64
	Change24h *float64 // percent
	Volume24h *float64 // quote volume
	High24h   *float64
	Low24h    *float64
	Depth     *float64 // aggregated top-of-book depth, quote units
	Spread    *float64 // relative bid/ask spread
	Imbalance *float64 // directional pressure in [-1, 1]
	Sentiment *float64 // [-1, 1], metadata providers only
	Rank      *int     // market-cap rank, metadata providers only
	ProbaUp   *float64 // [0, 1], model providers only
}

// Bullish reports the snapshot's directional vote, if it has one.
// The second return is false when the snapshot carries no direction.
func (s *MarketSnapshot) Bullish() (bool, bool) {
	if !s.OK {
		return false, false
	}
	if s.Imbalance != nil {
		if *s.Imbalance == 0 {
			return false, false
		}
		return *s.Imbalance > 0, true
	}
	if s.Change24h != nil {
		if *s.Change24h == 0 {
			return false, false
		}
		return *s.Change24h > 0, true
	}
	return false, false
}
