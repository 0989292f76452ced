package store

import (
	"sync"

	"user-events/internal/event"
)

// RecentStore holds the most recently consumed events in arrival order,
// bounded by a fixed capacity. The consumer loop is the only writer; HTTP
// requests read concurrently. Readers may miss an append that races their
// snapshot, which is fine.
type RecentStore struct {
	mu       sync.RWMutex
	events   []event.UserEvent
	capacity int
}

func NewRecentStore(capacity int) *RecentStore {
	if capacity < 1 {
		capacity = 1
	}
	return &RecentStore{
		events:   make([]event.UserEvent, 0, capacity),
		capacity: capacity,
	}
}

// Append records an event, evicting the oldest one when full. Duplicate
// events are stored again, not deduplicated: replays after a consumer
// restart only add entries.
func (s *RecentStore) Append(ev event.UserEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) == s.capacity {
		copy(s.events, s.events[1:])
		s.events[len(s.events)-1] = ev
		return
	}
	s.events = append(s.events, ev)
}

// Recent returns up to limit events, newest first. The result is a copy,
// safe to use after the store moves on.
func (s *RecentStore) Recent(limit int) []event.UserEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := limit
	if n > len(s.events) {
		n = len(s.events)
	}
	if n <= 0 {
		return nil
	}

	out := make([]event.UserEvent, 0, n)
	for i := len(s.events) - 1; i >= len(s.events)-n; i-- {
		out = append(out, s.events[i])
	}
	return out
}

func (s *RecentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
