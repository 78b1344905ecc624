package events

import (
	"context"
	"sync"
)

type Event struct {
	Key     string
	Payload any
}

// Recorder keeps published events in memory. Tests use it to assert on what
// a service emitted after commit.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) PublishJSON(_ context.Context, key string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Key: key, Payload: v})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.events))
	for _, e := range r.events {
		keys = append(keys, e.Key)
	}
	return keys
}

// Count returns how many events with key were published.
func (r *Recorder) Count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Key == key {
			n++
		}
	}
	return n
}
