package usecase

import (
	"context"
	"fmt"
	"sync"
)

// Settled is the outcome of one gathered task.
type Settled[T any] struct {
	Value T
	Err   error
}

// GatherAll runs every task concurrently and waits for all of them. Failures
// are collected, never propagated early, and one task's failure cannot cancel
// a sibling. Results are positional.
func GatherAll[T any](ctx context.Context, tasks []func(ctx context.Context) (T, error)) []Settled[T] {
	out := make([]Settled[T], len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task func(ctx context.Context) (T, error)) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					out[i].Err = fmt.Errorf("task panic: %v", r)
				}
			}()
			out[i].Value, out[i].Err = task(ctx)
		}(i, task)
	}
	wg.Wait()
	return out
}
