package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"CryptoPulse/internal/domain/models"
	applogger "CryptoPulse/pkg/logger"
	"CryptoPulse/pkg/retry"
)

type fakeSender struct {
	calls    int
	failures int
}

func (s *fakeSender) Send(ctx context.Context, token, chatID, text string) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("channel unavailable")
	}
	return nil
}

type fakeMetrics struct {
	alerts map[string]int
}

func (m *fakeMetrics) RecordResearchRun(userID, symbol, signal string) {}
func (m *fakeMetrics) RecordConfidence(symbol string, c float64)       {}
func (m *fakeMetrics) RecordAlert(outcome string) {
	if m.alerts == nil {
		m.alerts = map[string]int{}
	}
	m.alerts[outcome]++
}
func (m *fakeMetrics) RecordError(kind string)                  {}
func (m *fakeMetrics) RecordLatency(op string, seconds float64) {}
func (m *fakeMetrics) SetLiveConnections(n int)                 {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testResult() *models.ResearchResult {
	return &models.ResearchResult{
		UserID:     "u1",
		Symbol:     "BTCUSDT",
		Signal:     models.SignalBuy,
		Confidence: 82,
		Providers:  []string{"binance", "coingecko"},
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testSettings() *models.ResearchSettings {
	return &models.ResearchSettings{
		UserID: "u1",
		PositionSizing: []models.PositionSizeRange{
			{Min: 80, Max: 100, Percent: 2.0},
		},
		Channel: models.ChannelCredentials{Token: "t", ChatID: "c"},
	}
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}
}

func TestSendWithRetryRecovers(t *testing.T) {
	sender := &fakeSender{failures: 2}
	m := &fakeMetrics{}
	d := NewDispatcher(sender, fastPolicy(), testLogger(t), m)

	ok := d.SendWithRetry(context.Background(), testSettings().Channel, testResult(), testSettings())
	if !ok {
		t.Fatalf("expected delivery after retries")
	}
	if sender.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", sender.calls)
	}
	if m.alerts["sent"] != 1 {
		t.Fatalf("expected sent metric")
	}
}

func TestSendWithRetryGivesUp(t *testing.T) {
	sender := &fakeSender{failures: 99}
	m := &fakeMetrics{}
	d := NewDispatcher(sender, fastPolicy(), testLogger(t), m)

	ok := d.SendWithRetry(context.Background(), testSettings().Channel, testResult(), testSettings())
	if ok {
		t.Fatalf("expected permanent failure")
	}
	if sender.calls != 3 {
		t.Fatalf("expected exactly maxRetries attempts, got %d", sender.calls)
	}
	if m.alerts["failed"] != 1 {
		t.Fatalf("expected failed metric")
	}
}

func TestSendSkippedWithoutCredentials(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, fastPolicy(), testLogger(t), &fakeMetrics{})
	if d.SendWithRetry(context.Background(), models.ChannelCredentials{}, testResult(), testSettings()) {
		t.Fatalf("expected skip without credentials")
	}
	if sender.calls != 0 {
		t.Fatalf("sender must not be called")
	}
}

func TestBuildMessageContent(t *testing.T) {
	msg := BuildMessage(testResult(), testSettings())
	for _, want := range []string{"BTCUSDT", "BUY", "82.0%", "2.00x", "binance, coingecko", "2025-06-01T12:00:00Z"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestTruncatePreservesHead(t *testing.T) {
	long := strings.Repeat("a", 5000)
	got := Truncate(long, 4000)
	if len([]rune(got)) != 4000 {
		t.Fatalf("expected exactly 4000 runes, got %d", len([]rune(got)))
	}
	if !strings.HasPrefix(got, "aaaa") || !strings.HasSuffix(got, "[truncated]") {
		t.Fatalf("truncation shape wrong")
	}
	if Truncate("short", 4000) != "short" {
		t.Fatalf("short strings must pass through")
	}
}
