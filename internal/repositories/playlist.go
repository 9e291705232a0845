package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/shared"
)

// PlaylistRepository handles playlist CRUD operations and sync counters.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist with a generated ID. The source URL is
// unique; inserting a duplicate returns shared.ErrPlaylistExists.
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	if playlist.URL == "" {
		return fmt.Errorf("%w: playlist URL is required", shared.ErrInvalidInput)
	}
	if playlist.Name == "" {
		playlist.Name = models.DefaultPlaylistName
	}

	if existing, err := r.GetByURL(playlist.URL); err == nil && existing != nil {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistExists, playlist.URL)
	}

	playlist.ID = shared.GenerateID()
	playlist.CreatedAt = time.Now()

	query := `
		INSERT INTO playlists (id, name, url, total_songs, last_sync, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var lastSync any
	if playlist.LastSync != nil {
		lastSync = *playlist.LastSync
	}

	_, err := r.db.Exec(query,
		playlist.ID,
		playlist.Name,
		playlist.URL,
		playlist.TotalSongs,
		lastSync,
		playlist.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert playlist: %v", shared.ErrStorage, err)
	}

	return nil
}

// Get retrieves a playlist by ID.
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := `
		SELECT id, name, url, total_songs, last_sync, created_at
		FROM playlists
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByURL retrieves a playlist by its remote source URL.
func (r *PlaylistRepository) GetByURL(url string) (*models.Playlist, error) {
	query := `
		SELECT id, name, url, total_songs, last_sync, created_at
		FROM playlists
		WHERE url = ?
	`

	return r.scanOne(r.db.QueryRow(query, url))
}

// List retrieves all playlists ordered by creation time.
func (r *PlaylistRepository) List() ([]*models.Playlist, error) {
	query := `
		SELECT id, name, url, total_songs, last_sync, created_at
		FROM playlists
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query playlists: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStorage, err)
	}

	return playlists, nil
}

// Rename updates a playlist's display name.
func (r *PlaylistRepository) Rename(id, name string) error {
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}

	result, err := r.db.Exec("UPDATE playlists SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("%w: failed to rename playlist: %v", shared.ErrStorage, err)
	}

	return requireAffected(result, id)
}

// Delete removes a playlist. Its song links go with it via the
// playlist_songs ON DELETE CASCADE, and songs no playlist references
// anymore are dropped; local files stay on disk.
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete playlist: %v", shared.ErrStorage, err)
	}

	if err := requireAffected(result, id); err != nil {
		return err
	}

	_, err = r.db.Exec("DELETE FROM songs WHERE id NOT IN (SELECT song_id FROM playlist_songs)")
	if err != nil {
		return fmt.Errorf("%w: failed to prune unreferenced songs: %v", shared.ErrStorage, err)
	}

	return nil
}

// UpdateCounters records the remote total-entry count and the
// last-synchronized timestamp after a reconciliation.
func (r *PlaylistRepository) UpdateCounters(id string, total int, lastSync time.Time) error {
	result, err := r.db.Exec(
		"UPDATE playlists SET total_songs = ?, last_sync = ? WHERE id = ?",
		total, lastSync, id,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update playlist counters: %v", shared.ErrStorage, err)
	}

	return requireAffected(result, id)
}

// Statuses returns every playlist joined with its download progress.
// CurrentSong is left empty; callers overlay it from the live download state.
func (r *PlaylistRepository) Statuses() ([]models.PlaylistStatus, error) {
	query := `
		SELECT p.id, p.name, p.url, p.total_songs, p.last_sync, p.created_at,
			COUNT(DISTINCT CASE WHEN s.downloaded = 1 THEN ps.song_id END) AS downloaded
		FROM playlists p
		LEFT JOIN playlist_songs ps ON p.id = ps.playlist_id
		LEFT JOIN songs s ON ps.song_id = s.id
		GROUP BY p.id
		ORDER BY p.created_at ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query playlist statuses: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var statuses []models.PlaylistStatus
	for rows.Next() {
		var (
			status   models.PlaylistStatus
			lastSync sql.NullTime
		)

		err := rows.Scan(&status.ID, &status.Name, &status.URL, &status.TotalSongs,
			&lastSync, &status.CreatedAt, &status.Downloaded)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan playlist status: %v", shared.ErrStorage, err)
		}

		if lastSync.Valid {
			status.LastSync = &lastSync.Time
		}
		if status.TotalSongs > 0 {
			status.Progress = float64(status.Downloaded) / float64(status.TotalSongs) * 100
		}

		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStorage, err)
	}

	return statuses, nil
}

// scanOne scans a single row into a [models.Playlist]
func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.Playlist, error) {
	var (
		playlist models.Playlist
		lastSync sql.NullTime
	)

	err := row.Scan(&playlist.ID, &playlist.Name, &playlist.URL,
		&playlist.TotalSongs, &lastSync, &playlist.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan playlist: %v", shared.ErrStorage, err)
	}

	if lastSync.Valid {
		playlist.LastSync = &lastSync.Time
	}

	return &playlist, nil
}

// scanPlaylist scans a row from [sql.Rows] into a [models.Playlist]
func scanPlaylist(rows *sql.Rows) (*models.Playlist, error) {
	var (
		playlist models.Playlist
		lastSync sql.NullTime
	)

	err := rows.Scan(&playlist.ID, &playlist.Name, &playlist.URL,
		&playlist.TotalSongs, &lastSync, &playlist.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan playlist: %v", shared.ErrStorage, err)
	}

	if lastSync.Valid {
		playlist.LastSync = &lastSync.Time
	}

	return &playlist, nil
}

// requireAffected turns a zero-row update into shared.ErrPlaylistNotFound.
func requireAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %v", shared.ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return nil
}
