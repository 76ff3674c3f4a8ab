package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CryptoPulse/internal/domain/models"
	domsvc "CryptoPulse/internal/domain/service"
	"CryptoPulse/internal/service/ratelimit"
	xhttp "CryptoPulse/pkg/http"
)

const (
	geckoRateCapacity = 5
	geckoRatePerSec   = 0.5 // free tier is tight
)

// wellKnownIDs maps common base assets to CoinGecko coin ids; anything not
// listed falls back to the lowercased base asset.
var wellKnownIDs = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"bnb":  "binancecoin",
	"sol":  "solana",
	"xrp":  "ripple",
	"ada":  "cardano",
	"doge": "dogecoin",
	"dot":  "polkadot",
	"ltc":  "litecoin",
	"link": "chainlink",
}

var quoteSuffixes = []string{"USDT", "BUSD", "USDC", "USD", "EUR", "BTC"}

// CoinGecko is the metadata provider: market-cap rank and community sentiment.
// Its failure is survivable but scored as a confidence penalty upstream.
type CoinGecko struct {
	baseURL string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	ids     map[string]string // symbol -> coin id overrides from config
}

func NewCoinGecko(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, ids map[string]string) *CoinGecko {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com"
	}
	return &CoinGecko{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: limiter,
		ids:     ids,
	}
}

func (g *CoinGecko) Name() string              { return "coingecko" }
func (g *CoinGecko) Kind() domsvc.ProviderKind { return domsvc.KindMetadata }

type geckoCoin struct {
	MarketCapRank  int      `json:"market_cap_rank"`
	SentimentUpPct *float64 `json:"sentiment_votes_up_percentage"`
	MarketData     struct {
		PriceChangePct24h *float64 `json:"price_change_percentage_24h"`
	} `json:"market_data"`
}

func (g *CoinGecko) Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	if g.limiter != nil && !g.limiter.Allow("coingecko", geckoRateCapacity, geckoRatePerSec) {
		return nil, fmt.Errorf("coingecko: rate limited")
	}

	id := g.coinID(symbol)
	var coin geckoCoin
	err := g.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    g.baseURL + "/api/v3/coins/" + id,
		QueryParams: map[string][]string{
			"localization":   {"false"},
			"tickers":        {"false"},
			"market_data":    {"true"},
			"community_data": {"false"},
			"developer_data": {"false"},
		},
	}, &coin)
	if err != nil {
		return nil, fmt.Errorf("coingecko %s (%s): %w", symbol, id, err)
	}

	snap := &models.MarketSnapshot{
		Symbol:    symbol,
		Provider:  "coingecko",
		OK:        true,
		FetchedAt: time.Now().UTC(),
		Change24h: coin.MarketData.PriceChangePct24h,
	}
	if coin.MarketCapRank > 0 {
		rank := coin.MarketCapRank
		snap.Rank = &rank
	}
	if coin.SentimentUpPct != nil {
		// vote share in [0,100] recentered to [-1,1]
		s := (*coin.SentimentUpPct - 50) / 50
		snap.Sentiment = &s
	}
	return snap, nil
}

func (g *CoinGecko) coinID(symbol string) string {
	if id, ok := g.ids[symbol]; ok {
		return id
	}
	base := symbol
	for _, q := range quoteSuffixes {
		if len(base) > len(q) && strings.HasSuffix(base, q) {
			base = base[:len(base)-len(q)]
			break
		}
	}
	base = strings.ToLower(base)
	if id, ok := wellKnownIDs[base]; ok {
		return id
	}
	return base
}
