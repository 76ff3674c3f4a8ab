package models

import "time"

// Signal is the categorical trading recommendation.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// ScoreBreakdown holds the weighted sub-scores behind a confidence value.
// Each sub-score is in [0,100] before weighting.
type ScoreBreakdown struct {
	Indicators   float64 `json:"indicators"`
	Structure    float64 `json:"structure"`
	Momentum     float64 `json:"momentum"`
	Volume       float64 `json:"volume"`
	Availability float64 `json:"availability"`
}

// ResearchResult is the canonical output of one research run for one symbol.
// Confidence is on a 0-100 scale and never reaches 100.
type ResearchResult struct {
	UserID         string             `json:"userId"`
	Symbol         string             `json:"symbol"`
	Signal         Signal             `json:"signal"`
	Confidence     float64            `json:"confidence"`
	Recommendation string             `json:"recommendation"`
	Breakdown      ScoreBreakdown     `json:"breakdown"`
	Weights        map[string]float64 `json:"weights,omitempty"`
	Providers      []string           `json:"providers"` // providers that contributed successfully
	Timestamp      time.Time          `json:"timestamp"`
}
