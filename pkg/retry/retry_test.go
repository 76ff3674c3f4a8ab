package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelaysDouble(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialDelay: 1000 * time.Millisecond, Multiplier: 2}
	got := p.Delays()
	want := []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("expected %d delays, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delay %d: expected %v got %v", i, want[i], got[i])
		}
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}
	calls := 0
	boom := errors.New("boom")
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected last error, got %v", err)
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	p := DefaultPolicy()
	p.InitialDelay = time.Millisecond
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on attempt 2, calls=%d err=%v", calls, err)
	}
}

func TestDoCancelledDuringWait(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialDelay: time.Minute, Multiplier: 2}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, func(context.Context) error { return errors.New("x") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
