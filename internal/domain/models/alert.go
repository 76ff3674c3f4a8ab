package models

import "time"

// Alert is the payload pushed to live clients and logged for the UI.
type Alert struct {
	Type      string         `json:"type"`
	Symbol    string         `json:"symbol,omitempty"`
	Accuracy  float64        `json:"accuracy,omitempty"`
	Direction string         `json:"direction,omitempty"`
	Amount    float64        `json:"amount,omitempty"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// PushMessage is the envelope sent over a live connection.
type PushMessage struct {
	Type      string    `json:"type"`
	Alert     Alert     `json:"alert"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAlertPush wraps an alert in the push envelope.
func NewAlertPush(a Alert) PushMessage {
	return PushMessage{Type: "newAlert", Alert: a, Timestamp: time.Now()}
}
