package tasks

import (
	"fmt"
	"sync"
	"time"
)

// defaultFeedCapacity bounds the feed; older events are dropped first.
const defaultFeedCapacity = 200

// Event is one entry in the observable sync log feed.
type Event struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// EventFeed is a bounded, concurrency-safe feed of sync events. Every
// reconciliation outcome and download failure is recorded here so no run
// silently disappears.
type EventFeed struct {
	mu       sync.Mutex
	events   []Event
	capacity int
}

// NewEventFeed creates a feed holding at most capacity events.
// A non-positive capacity falls back to the default.
func NewEventFeed(capacity int) *EventFeed {
	if capacity <= 0 {
		capacity = defaultFeedCapacity
	}
	return &EventFeed{capacity: capacity}
}

// Addf formats and appends an event, evicting the oldest when full.
func (f *EventFeed) Addf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, Event{Time: time.Now(), Message: fmt.Sprintf(format, args...)})
	if len(f.events) > f.capacity {
		f.events = f.events[len(f.events)-f.capacity:]
	}
}

// Snapshot returns a copy of the current events, oldest first.
func (f *EventFeed) Snapshot() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := make([]Event, len(f.events))
	copy(snapshot, f.events)
	return snapshot
}
