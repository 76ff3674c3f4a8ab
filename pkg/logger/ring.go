package logger

import (
	"context"
	"sync"
)

// RingPublisher keeps the last N aggregated log payloads in memory so an API
// endpoint can expose recent logs without external infrastructure.
type RingPublisher struct {
	mu    sync.Mutex
	buf   []interface{}
	next  int
	count int
}

func NewRingPublisher(size int) *RingPublisher {
	if size <= 0 {
		size = 256
	}
	return &RingPublisher{buf: make([]interface{}, size)}
}

func (r *RingPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	r.mu.Lock()
	r.buf[r.next] = payload
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
	return nil
}

// Recent returns the stored payloads, oldest first.
func (r *RingPublisher) Recent() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interface{}, 0, r.count)
	start := r.next - r.count
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

var _ Publisher = (*RingPublisher)(nil)
