package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"CryptoPulse/internal/domain/models"
	domsvc "CryptoPulse/internal/domain/service"
	pkgcache "CryptoPulse/pkg/cache"
)

func binanceTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/ticker/24hr", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "BTCUSDT" {
			http.Error(w, "bad symbol", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"lastPrice":          "50000.00",
			"priceChangePercent": "2.5",
			"quoteVolume":        "1200000.5",
			"highPrice":          "51000",
			"lowPrice":           "48000",
		})
	})
	mux.HandleFunc("/api/v3/depth", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][][]string{
			"bids": {{"49990", "2"}, {"49980", "1"}},
			"asks": {{"50010", "1"}, {"50020", "0.5"}},
		})
	})
	return httptest.NewServer(mux)
}

func TestBinanceFetch(t *testing.T) {
	srv := binanceTestServer(t)
	defer srv.Close()

	b := NewBinance(srv.URL, time.Second, nil)
	snap, err := b.Fetch(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !snap.OK || snap.Provider != "binance" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Price == nil || *snap.Price != 50000 {
		t.Fatalf("price not parsed: %v", snap.Price)
	}
	if snap.Change24h == nil || *snap.Change24h != 2.5 {
		t.Fatalf("change not parsed: %v", snap.Change24h)
	}
	if snap.Spread == nil || *snap.Spread <= 0 {
		t.Fatalf("spread not derived: %v", snap.Spread)
	}
	if snap.Imbalance == nil || *snap.Imbalance <= 0 {
		t.Fatalf("bid-heavy book must give positive imbalance: %v", snap.Imbalance)
	}
	if snap.Depth == nil || *snap.Depth <= 0 {
		t.Fatalf("depth not derived: %v", snap.Depth)
	}
}

func TestBinanceTickerOnlyWhenDepthFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/ticker/24hr", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"lastPrice": "100", "priceChangePercent": "1"})
	})
	mux.HandleFunc("/api/v3/depth", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := NewBinance(srv.URL, time.Second, nil)
	snap, err := b.Fetch(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.Price == nil || snap.Spread != nil {
		t.Fatalf("expected ticker-only snapshot, got %+v", snap)
	}
}

func TestCoinGeckoFetch(t *testing.T) {
	up := 80.0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/coins/bitcoin", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"market_cap_rank":               1,
			"sentiment_votes_up_percentage": up,
			"market_data":                   map[string]any{"price_change_percentage_24h": 2.1},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewCoinGecko(srv.URL, time.Second, nil, nil)
	snap, err := g.Fetch(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.Rank == nil || *snap.Rank != 1 {
		t.Fatalf("rank not parsed: %v", snap.Rank)
	}
	if snap.Sentiment == nil || *snap.Sentiment != 0.6 {
		t.Fatalf("sentiment not recentered: %v", snap.Sentiment)
	}
}

func TestCoinIDMapping(t *testing.T) {
	g := NewCoinGecko("", time.Second, nil, map[string]string{"WEIRDUSDT": "weird-coin"})
	cases := map[string]string{
		"BTCUSDT":   "bitcoin",
		"ETHUSD":    "ethereum",
		"WEIRDUSDT": "weird-coin",
		"PEPEUSDT":  "pepe",
	}
	for sym, want := range cases {
		if got := g.coinID(sym); got != want {
			t.Fatalf("coinID(%s) = %s, want %s", sym, got, want)
		}
	}
}

func TestEdgeModelFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/edge/predict", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		var req edgeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Symbol == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"proba_up": 0.72, "regime": "trend", "confidence": 0.6})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := NewEdgeModel(srv.URL, "1h", time.Second)
	snap, err := m.Fetch(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.ProbaUp == nil || *snap.ProbaUp != 0.72 {
		t.Fatalf("proba not parsed: %v", snap.ProbaUp)
	}
	if m.Kind() != domsvc.KindModel {
		t.Fatalf("unexpected kind: %s", m.Kind())
	}
}

func TestEdgeModelRejectsOutOfRange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/edge/predict", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"proba_up": 1.7})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := NewEdgeModel(srv.URL, "1h", time.Second)
	if _, err := m.Fetch(context.Background(), "BTCUSDT"); err == nil {
		t.Fatalf("expected error on out-of-range probability")
	}
}

type countingProvider struct {
	calls int32
	snap  *models.MarketSnapshot
}

func (p *countingProvider) Name() string              { return "counting" }
func (p *countingProvider) Kind() domsvc.ProviderKind { return domsvc.KindMarket }
func (p *countingProvider) Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	atomic.AddInt32(&p.calls, 1)
	s := *p.snap
	return &s, nil
}

func TestCachedProviderServesFromCache(t *testing.T) {
	price := 42.0
	inner := &countingProvider{snap: &models.MarketSnapshot{Symbol: "BTCUSDT", Provider: "counting", OK: true, Price: &price}}
	p := WithCache(inner, pkgcache.NewMemoryCache(), time.Minute)

	for i := 0; i < 3; i++ {
		snap, err := p.Fetch(context.Background(), "BTCUSDT")
		if err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
		if snap.Price == nil || *snap.Price != 42 {
			t.Fatalf("wrong snapshot on fetch %d: %+v", i, snap)
		}
	}
	if n := atomic.LoadInt32(&inner.calls); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
}
