package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"CryptoPulse/internal/domain/models"
	domsvc "CryptoPulse/internal/domain/service"
	"CryptoPulse/internal/service/ratelimit"
	xhttp "CryptoPulse/pkg/http"
)

const (
	binanceRateCapacity = 20
	binanceRatePerSec   = 10
)

// Binance fetches spot market snapshots from the Binance REST API: 24h ticker
// plus order book, merged into one snapshot with microstructure fields.
type Binance struct {
	baseURL    string
	client     *xhttp.Client
	limiter    *ratelimit.Limiter
	depthLevel int
}

func NewBinance(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter) *Binance {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &Binance{
		baseURL:    baseURL,
		client:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter:    limiter,
		depthLevel: 50,
	}
}

func (b *Binance) Name() string              { return "binance" }
func (b *Binance) Kind() domsvc.ProviderKind { return domsvc.KindMarket }

type binanceTicker struct {
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
}

type binanceDepth struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

func (b *Binance) Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	if b.limiter != nil && !b.limiter.Allow("binance", binanceRateCapacity, binanceRatePerSec) {
		return nil, fmt.Errorf("binance: rate limited")
	}

	var tk binanceTicker
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + "/api/v3/ticker/24hr",
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, &tk)
	if err != nil {
		return nil, fmt.Errorf("binance ticker %s: %w", symbol, err)
	}

	snap := &models.MarketSnapshot{
		Symbol:    symbol,
		Provider:  "binance",
		OK:        true,
		FetchedAt: time.Now().UTC(),
		Price:     parseFloat(tk.LastPrice),
		Change24h: parseFloat(tk.PriceChangePercent),
		Volume24h: parseFloat(tk.QuoteVolume),
		High24h:   parseFloat(tk.HighPrice),
		Low24h:    parseFloat(tk.LowPrice),
	}

	// order book is best effort; a ticker-only snapshot is still usable
	var depth binanceDepth
	err = b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    b.baseURL + "/api/v3/depth",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"limit":  {strconv.Itoa(b.depthLevel)},
		},
	}, &depth)
	if err == nil {
		applyDepth(snap, &depth)
	}

	return snap, nil
}

// applyDepth derives spread, total book depth and bid/ask imbalance from the
// top of the order book.
func applyDepth(snap *models.MarketSnapshot, d *binanceDepth) {
	bidVol, bestBid := sideVolume(d.Bids)
	askVol, bestAsk := sideVolume(d.Asks)
	if bestBid <= 0 || bestAsk <= 0 {
		return
	}

	mid := (bestBid + bestAsk) / 2
	if mid > 0 {
		spread := (bestAsk - bestBid) / mid
		snap.Spread = &spread
	}

	total := bidVol + askVol
	if total > 0 {
		depth := total
		snap.Depth = &depth
		imbalance := (bidVol - askVol) / total
		snap.Imbalance = &imbalance
	}
}

// sideVolume sums quote-denominated volume for one book side and returns the
// top-of-book price. Levels are [price, quantity] string pairs.
func sideVolume(levels [][]string) (volume, best float64) {
	for i, lvl := range levels {
		if len(lvl) < 2 {
			continue
		}
		price, err1 := strconv.ParseFloat(lvl[0], 64)
		qty, err2 := strconv.ParseFloat(lvl[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if i == 0 {
			best = price
		}
		volume += price * qty
	}
	return volume, best
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
