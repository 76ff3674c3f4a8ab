package notify

import (
	"errors"
	"testing"

	"CryptoPulse/internal/domain/models"
	applogger "CryptoPulse/pkg/logger"
)

type fakeConn struct {
	fail    bool
	written []any
	closed  bool
}

func (c *fakeConn) WriteJSON(v any) error {
	if c.fail {
		return errors.New("broken pipe")
	}
	c.written = append(c.written, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type nopMetrics struct{ live int }

func (m *nopMetrics) RecordResearchRun(userID, symbol, signal string) {}
func (m *nopMetrics) RecordConfidence(symbol string, c float64)       {}
func (m *nopMetrics) RecordAlert(outcome string)                      {}
func (m *nopMetrics) RecordError(kind string)                         {}
func (m *nopMetrics) RecordLatency(op string, seconds float64)        {}
func (m *nopMetrics) SetLiveConnections(n int)                        { m.live = n }

func newTestHub(t *testing.T) (*Hub, *nopMetrics) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	m := &nopMetrics{}
	return NewHub(l, m), m
}

func TestBroadcastNoConnectionsIsNoop(t *testing.T) {
	h, _ := newTestHub(t)
	if n := h.Broadcast("u1", models.Alert{Type: "research"}); n != 0 {
		t.Fatalf("expected 0 deliveries, got %d", n)
	}
}

func TestBroadcastDeliversAndSkipsDead(t *testing.T) {
	h, _ := newTestHub(t)
	good := &fakeConn{}
	dead := &fakeConn{fail: true}
	h.Register("u1", good)
	h.Register("u1", dead)

	if n := h.Broadcast("u1", models.Alert{Type: "research", Symbol: "BTCUSDT"}); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	if !dead.closed {
		t.Fatalf("dead connection should be closed")
	}
	if h.Connections("u1") != 1 {
		t.Fatalf("dead connection should be removed, have %d", h.Connections("u1"))
	}
	msg, ok := good.written[0].(models.PushMessage)
	if !ok || msg.Type != "newAlert" || msg.Alert.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected push payload %+v", good.written[0])
	}
}

func TestRegistryEntryRemovedWhenEmpty(t *testing.T) {
	h, m := newTestHub(t)
	c1 := &fakeConn{}
	c2 := &fakeConn{}
	h.Register("u1", c1)
	h.Register("u1", c2)
	h.Unregister("u1", c1)
	if !h.HasEntity("u1") {
		t.Fatalf("entity should remain while a connection is live")
	}
	h.Unregister("u1", c2)
	if h.HasEntity("u1") {
		t.Fatalf("empty entity entry should be deleted")
	}
	if m.live != 0 {
		t.Fatalf("live connection gauge should be 0, got %d", m.live)
	}
}

func TestBroadcastIsolatedPerEntity(t *testing.T) {
	h, _ := newTestHub(t)
	u1 := &fakeConn{}
	u2 := &fakeConn{}
	h.Register("u1", u1)
	h.Register("u2", u2)
	h.Broadcast("u1", models.Alert{Type: "research"})
	if len(u2.written) != 0 {
		t.Fatalf("u2 must not receive u1 alerts")
	}
}
