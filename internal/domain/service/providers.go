package service

import (
	"context"

	"CryptoPulse/internal/domain/models"
)

// ProviderKind classifies data providers for scoring purposes.
type ProviderKind string

const (
	KindMarket   ProviderKind = "market"   // price/volume/microstructure
	KindMetadata ProviderKind = "metadata" // rank/sentiment; failure carries a confidence penalty
	KindModel    ProviderKind = "model"    // ML sidecar; purely additive
)

// SnapshotProvider fetches one provider's snapshot of a symbol. Implementations
// must bound the call with the context and report failure through the error,
// never by panicking; every snapshot field is optional.
type SnapshotProvider interface {
	Name() string
	Kind() ProviderKind
	Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, error)
}

// AlertSender delivers one formatted message to a channel. A nil error means
// the channel accepted the message.
type AlertSender interface {
	Send(ctx context.Context, token, chatID, text string) error
}
