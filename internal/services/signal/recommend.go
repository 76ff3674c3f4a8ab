package signal

import (
	"fmt"

	"CryptoPulse/internal/domain/models"
)

// confidence bands (0-100 scale) for the recommendation tiers.
const (
	tierHigh     = 85.0
	tierModerate = 70.0
)

// Recommend derives the action text purely from (signal, confidence).
func Recommend(sig models.Signal, confidence float64) string {
	if sig == models.SignalHold {
		return "Wait for a clearer setup before entering a position"
	}
	verb := "buy"
	if sig == models.SignalSell {
		verb = "sell"
	}
	switch {
	case confidence >= tierHigh:
		return fmt.Sprintf("Execute %s: high conviction (%.0f%%)", verb, confidence)
	case confidence >= tierModerate:
		return fmt.Sprintf("Consider %s: moderate conviction (%.0f%%)", verb, confidence)
	default:
		return fmt.Sprintf("Monitor for %s: low conviction (%.0f%%)", verb, confidence)
	}
}
