// package models defines the data model for the playlist sync service
package models

import (
	"time"
)

// Playlist represents a remote playlist tracked for local synchronization.
type Playlist struct {
	ID         string     `json:"id"`          // Catalog identifier (uuid)
	Name       string     `json:"name"`        // Display name, taken from the remote title on add
	URL        string     `json:"url"`         // Remote source URL, unique within the catalog
	TotalSongs int        `json:"total_songs"` // Entry count reported by the remote source at last sync
	LastSync   *time.Time `json:"last_sync"`   // When reconciliation last completed, nil before first sync
	CreatedAt  time.Time  `json:"created_at"`
}

// Song represents one remote entry with local download state.
//
// A Song is shared across playlists and is not owned by any single one; it
// is deleted only when no playlist links it and the remote source no longer
// lists it.
type Song struct {
	ID         string    `json:"id"`        // Catalog identifier (uuid)
	RemoteID   string    `json:"remote_id"` // Remote entry id, globally unique
	Title      string    `json:"title"`
	Artist     string    `json:"artist,omitempty"`
	Filename   string    `json:"filename,omitempty"` // Resolved local filename, empty until first successful download
	Downloaded bool      `json:"downloaded"`         // True only while Filename is set and the file existed at last check
	AddedAt    time.Time `json:"added_at"`
}

// RemoteEntry is one entry of a remote playlist listing.
type RemoteEntry struct {
	RemoteID string
	Title    string
}

// PlaylistStatus is the observable view of a playlist: catalog counters
// joined with download progress and the title currently being fetched.
type PlaylistStatus struct {
	Playlist
	Downloaded  int     `json:"downloaded"`             // Linked songs with downloaded=true
	Progress    float64 `json:"progress"`               // Downloaded / TotalSongs as a percentage
	CurrentSong string  `json:"current_song,omitempty"` // Title currently being fetched, empty when idle
}

// Recognized settings keys. Settings live in the catalog store so they can
// be changed at runtime without a restart.
const (
	SettingOutputDir           = "output_dir"
	SettingBitrate             = "bitrate"
	SettingInfoRefreshInterval = "info_refresh_interval"
	SettingScheduleEnabled     = "schedule_enabled"
	SettingScheduleTime        = "schedule_time"
)

// MinInfoRefreshSeconds is the enforced floor for the fast info loop
// interval, bounding catalog and remote-listing load.
const MinInfoRefreshSeconds = 3

// DefaultPlaylistName is the placeholder for playlists added without a
// name, replaced by the remote title on first reconciliation.
const DefaultPlaylistName = "Unknown Playlist"
