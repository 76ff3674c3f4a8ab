package models

// Requests for research HTTP endpoints. Defined in domain for consistency and reuse.

type DeepResearchRequest struct {
	UserID  string   `json:"userId" validate:"required"`
	Symbols []string `json:"symbols" validate:"omitempty,dive,required"`
	Profile string   `json:"profile" default:"default" validate:"oneof=default scalping swing"`
}

type HistoryRequest struct {
	UserID string `query:"userId" json:"userId" validate:"required"`
	Symbol string `query:"symbol" json:"symbol"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type SettingsRequest struct {
	UserID string `query:"userId" param:"userId" json:"userId" validate:"required"`
}

type SaveSettingsRequest struct {
	UserID                 string              `json:"userId" validate:"required"`
	Enabled                bool                `json:"enabled"`
	FrequencyMinutes       int                 `json:"frequencyMinutes" default:"15" validate:"gte=1,lte=1440"`
	AccuracyTriggerPercent float64             `json:"accuracyTriggerPercent" default:"80" validate:"gte=0,lte=100"`
	SelectedSymbols        []string            `json:"selectedSymbols" validate:"omitempty,dive,required"`
	StrategyProfile        string              `json:"strategyProfile" default:"default" validate:"oneof=default scalping swing"`
	PositionSizing         []PositionSizeRange `json:"positionSizing"`
	Channel                ChannelCredentials  `json:"channel"`
}
