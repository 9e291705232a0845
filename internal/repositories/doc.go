// Package repositories implements SQLite persistence for the playlist catalog.
//
// Three repositories cover the catalog store contract:
//   - [PlaylistRepository] : playlist CRUD plus sync counters and progress views
//   - [SongRepository] : song rows, playlist-song links, and download state
//   - [SettingRepository] : key/value runtime settings with seeded defaults
//
// All repositories operate on a shared *sql.DB and wrap failures with
// shared.ErrStorage so callers can distinguish catalog faults from remote
// fetch faults.
package repositories
