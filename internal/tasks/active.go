package tasks

import "sync"

// ActiveDownloads tracks the song title currently being fetched per
// playlist. The state is ephemeral and process-local, used purely for
// observability; it is never persisted.
type ActiveDownloads struct {
	mu      sync.RWMutex
	current map[string]string
}

// NewActiveDownloads creates an empty tracker.
func NewActiveDownloads() *ActiveDownloads {
	return &ActiveDownloads{current: make(map[string]string)}
}

// Set publishes the title currently being fetched for the playlist.
func (a *ActiveDownloads) Set(playlistID, title string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current[playlistID] = title
}

// Clear removes the marker for the playlist.
func (a *ActiveDownloads) Clear(playlistID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.current, playlistID)
}

// Get returns the title currently being fetched for the playlist, or the
// empty string when the playlist is idle.
func (a *ActiveDownloads) Get(playlistID string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current[playlistID]
}

// Snapshot returns a copy of the full playlist-to-title mapping.
func (a *ActiveDownloads) Snapshot() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snapshot := make(map[string]string, len(a.current))
	for id, title := range a.current {
		snapshot[id] = title
	}
	return snapshot
}
