package models

import "time"

// PositionSizeRange maps an accuracy band to a suggested position size.
type PositionSizeRange struct {
	Min     float64 `bson:"min" json:"min"`
	Max     float64 `bson:"max" json:"max"`
	Percent float64 `bson:"percent" json:"percent"`
}

// ChannelCredentials identify the outbound alert channel for a user.
type ChannelCredentials struct {
	Token  string `bson:"token" json:"token"`
	ChatID string `bson:"chat_id" json:"chatId"`
}

// ResearchSettings is one user's research configuration, read fresh on every
// scheduler pass from the document store.
type ResearchSettings struct {
	UserID                 string              `bson:"_id" json:"userId"`
	Enabled                bool                `bson:"enabled" json:"enabled"`
	FrequencyMinutes       int                 `bson:"frequency_minutes" json:"frequencyMinutes"`
	AccuracyTriggerPercent float64             `bson:"accuracy_trigger_percent" json:"accuracyTriggerPercent"`
	SelectedSymbols        []string            `bson:"selected_symbols" json:"selectedSymbols"`
	StrategyProfile        string              `bson:"strategy_profile" json:"strategyProfile"`
	PositionSizing         []PositionSizeRange `bson:"position_sizing" json:"positionSizing"`
	Channel                ChannelCredentials  `bson:"channel" json:"channel"`
	UpdatedAt              time.Time           `bson:"updated_at" json:"updatedAt"`
}

// PositionSize returns the size for an accuracy percent: the first matching
// [min,max] range wins, 1.0 when nothing matches.
func (s *ResearchSettings) PositionSize(accuracy float64) float64 {
	for _, r := range s.PositionSizing {
		if accuracy >= r.Min && accuracy <= r.Max {
			return r.Percent
		}
	}
	return 1.0
}
