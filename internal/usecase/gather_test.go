package usecase

import (
	"context"
	"errors"
	"testing"
)

func TestGatherAllTolerantOfFailures(t *testing.T) {
	tasks := []func(ctx context.Context) (int, error){
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 0, errors.New("fail") },
		func(context.Context) (int, error) { return 3, nil },
	}
	out := GatherAll(context.Background(), tasks)
	if len(out) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(out))
	}
	if out[0].Value != 1 || out[0].Err != nil {
		t.Fatalf("outcome 0 wrong: %+v", out[0])
	}
	if out[1].Err == nil {
		t.Fatalf("outcome 1 should fail")
	}
	if out[2].Value != 3 || out[2].Err != nil {
		t.Fatalf("outcome 2 must not be affected by sibling failure: %+v", out[2])
	}
}

func TestGatherAllRecoversPanics(t *testing.T) {
	tasks := []func(ctx context.Context) (string, error){
		func(context.Context) (string, error) { panic("boom") },
		func(context.Context) (string, error) { return "ok", nil },
	}
	out := GatherAll(context.Background(), tasks)
	if out[0].Err == nil {
		t.Fatalf("expected panic converted to error")
	}
	if out[1].Value != "ok" {
		t.Fatalf("sibling should complete")
	}
}

func TestGatherAllEmpty(t *testing.T) {
	if out := GatherAll[int](context.Background(), nil); len(out) != 0 {
		t.Fatalf("expected empty result")
	}
}
