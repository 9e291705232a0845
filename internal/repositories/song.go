package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/shared"
)

// SongRepository handles song rows, playlist-song links, and download state.
//
// Songs are keyed by their globally unique remote id and shared across
// playlists; link management and orphan deletion live here so that the
// reconciliation engine stays free of SQL.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// GetByRemoteID retrieves a song by its remote entry id.
func (r *SongRepository) GetByRemoteID(remoteID string) (*models.Song, error) {
	query := `
		SELECT id, remote_id, title, artist, filename, downloaded, added_at
		FROM songs
		WHERE remote_id = ?
	`

	return scanSongRow(r.db.QueryRow(query, remoteID))
}

// Upsert inserts a new song for the given remote entry, or returns the
// existing row when the remote id is already known. New songs start with
// downloaded=false and no filename.
func (r *SongRepository) Upsert(entry models.RemoteEntry) (*models.Song, error) {
	if existing, err := r.GetByRemoteID(entry.RemoteID); err == nil {
		return existing, nil
	} else if err != shared.ErrSongNotFound {
		return nil, err
	}

	song := &models.Song{
		ID:       shared.GenerateID(),
		RemoteID: entry.RemoteID,
		Title:    entry.Title,
		AddedAt:  time.Now(),
	}

	query := `
		INSERT INTO songs (id, remote_id, title, artist, filename, downloaded, added_at)
		VALUES (?, ?, ?, NULL, NULL, 0, ?)
	`

	if _, err := r.db.Exec(query, song.ID, song.RemoteID, song.Title, song.AddedAt); err != nil {
		return nil, fmt.Errorf("%w: failed to insert song: %v", shared.ErrStorage, err)
	}

	return song, nil
}

// Link associates a song with a playlist. Linking an already-linked pair is
// a no-op, not an error.
func (r *SongRepository) Link(playlistID, songID string) error {
	query := "INSERT OR IGNORE INTO playlist_songs (playlist_id, song_id) VALUES (?, ?)"

	if _, err := r.db.Exec(query, playlistID, songID); err != nil {
		return fmt.Errorf("%w: failed to link song: %v", shared.ErrStorage, err)
	}

	return nil
}

// Unlink removes the association between a playlist and a song.
func (r *SongRepository) Unlink(playlistID, songID string) error {
	query := "DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?"

	if _, err := r.db.Exec(query, playlistID, songID); err != nil {
		return fmt.Errorf("%w: failed to unlink song: %v", shared.ErrStorage, err)
	}

	return nil
}

// LinkCount returns how many playlists currently link the song.
func (r *SongRepository) LinkCount(songID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM playlist_songs WHERE song_id = ?", songID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count song links: %v", shared.ErrStorage, err)
	}

	return count, nil
}

// Delete removes a song row. Callers check LinkCount first; a song is
// deleted only when no playlist references it.
func (r *SongRepository) Delete(songID string) error {
	if _, err := r.db.Exec("DELETE FROM songs WHERE id = ?", songID); err != nil {
		return fmt.Errorf("%w: failed to delete song: %v", shared.ErrStorage, err)
	}

	return nil
}

// ForPlaylist retrieves every song linked to the playlist, optionally
// restricted to songs not yet downloaded.
func (r *SongRepository) ForPlaylist(playlistID string, onlyUndownloaded bool) ([]*models.Song, error) {
	query := `
		SELECT s.id, s.remote_id, s.title, s.artist, s.filename, s.downloaded, s.added_at
		FROM songs s
		JOIN playlist_songs ps ON s.id = ps.song_id
		WHERE ps.playlist_id = ?
	`
	if onlyUndownloaded {
		query += " AND s.downloaded = 0"
	}
	query += " ORDER BY s.added_at ASC"

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query playlist songs: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStorage, err)
	}

	return songs, nil
}

// SetDownloaded persists the resolved filename and marks the song downloaded.
func (r *SongRepository) SetDownloaded(songID, filename string) error {
	result, err := r.db.Exec(
		"UPDATE songs SET filename = ?, downloaded = 1 WHERE id = ?",
		filename, songID,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to mark song downloaded: %v", shared.ErrStorage, err)
	}

	return requireSongAffected(result, songID)
}

// ResetDownloaded clears the downloaded flag while retaining the filename
// for future disk-presence checks.
func (r *SongRepository) ResetDownloaded(songID string) error {
	result, err := r.db.Exec("UPDATE songs SET downloaded = 0 WHERE id = ?", songID)
	if err != nil {
		return fmt.Errorf("%w: failed to reset song: %v", shared.ErrStorage, err)
	}

	return requireSongAffected(result, songID)
}

func scanSongRow(row *sql.Row) (*models.Song, error) {
	var (
		song     models.Song
		artist   sql.NullString
		filename sql.NullString
	)

	err := row.Scan(&song.ID, &song.RemoteID, &song.Title, &artist,
		&filename, &song.Downloaded, &song.AddedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan song: %v", shared.ErrStorage, err)
	}

	song.Artist = artist.String
	song.Filename = filename.String

	return &song, nil
}

func scanSong(rows *sql.Rows) (*models.Song, error) {
	var (
		song     models.Song
		artist   sql.NullString
		filename sql.NullString
	)

	err := rows.Scan(&song.ID, &song.RemoteID, &song.Title, &artist,
		&filename, &song.Downloaded, &song.AddedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan song: %v", shared.ErrStorage, err)
	}

	song.Artist = artist.String
	song.Filename = filename.String

	return &song, nil
}

func requireSongAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %v", shared.ErrStorage, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return nil
}
