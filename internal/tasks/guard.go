package tasks

import "sync"

// Guard ensures at most one reconcile+execute run is active per playlist
// identifier. The fast loop, the daily loop, and manual triggers may all
// attempt to schedule work for the same playlist concurrently; an attempt
// that finds a run active is skipped for that cycle, not queued.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// TryAcquire atomically marks a run active for the playlist. Returns false
// when a run is already in flight.
func (g *Guard) TryAcquire(playlistID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[playlistID]; busy {
		return false
	}
	g.active[playlistID] = struct{}{}
	return true
}

// Release marks the playlist's run as finished. Releasing a playlist that
// holds no run is a no-op.
func (g *Guard) Release(playlistID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, playlistID)
}
