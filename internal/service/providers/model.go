package providers

import (
	"context"
	"fmt"
	"time"

	"CryptoPulse/internal/domain/models"
	domsvc "CryptoPulse/internal/domain/service"
	xhttp "CryptoPulse/pkg/http"
)

// EdgeModel queries the Python scoring sidecar for a directional probability.
// Purely additive: when the sidecar is down the research run carries on with
// one fewer indicator.
type EdgeModel struct {
	baseURL string
	horizon string
	client  *xhttp.Client
}

func NewEdgeModel(baseURL, horizon string, timeout time.Duration) *EdgeModel {
	if horizon == "" {
		horizon = "1h"
	}
	return &EdgeModel{
		baseURL: baseURL,
		horizon: horizon,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (m *EdgeModel) Name() string              { return "edge-model" }
func (m *EdgeModel) Kind() domsvc.ProviderKind { return domsvc.KindModel }

type edgeRequest struct {
	Symbol   string             `json:"symbol"`
	Features map[string]float64 `json:"features"`
	Horizon  string             `json:"horizon"`
}

type edgeResponse struct {
	ProbaUp    float64 `json:"proba_up"`
	Regime     string  `json:"regime"`
	Confidence float64 `json:"confidence"`
}

func (m *EdgeModel) Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	if m.baseURL == "" {
		return nil, fmt.Errorf("edge model not configured")
	}

	var er edgeResponse
	err := m.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     m.baseURL + "/edge/predict",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    edgeRequest{Symbol: symbol, Features: map[string]float64{}, Horizon: m.horizon},
	}, &er)
	if err != nil {
		return nil, fmt.Errorf("edge predict %s: %w", symbol, err)
	}
	if er.ProbaUp < 0 || er.ProbaUp > 1 {
		return nil, fmt.Errorf("edge predict %s: proba_up %v out of range", symbol, er.ProbaUp)
	}

	p := er.ProbaUp
	return &models.MarketSnapshot{
		Symbol:    symbol,
		Provider:  "edge-model",
		OK:        true,
		FetchedAt: time.Now().UTC(),
		ProbaUp:   &p,
	}, nil
}
