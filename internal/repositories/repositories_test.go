package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// every pool connection of an in-memory database is a distinct database
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func mustCreatePlaylist(t *testing.T, repo *PlaylistRepository, name, url string) *models.Playlist {
	t.Helper()
	playlist := &models.Playlist{Name: name, URL: url}
	if err := repo.Create(playlist); err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	return playlist
}

func mustLinkSong(t *testing.T, repo *SongRepository, playlistID, remoteID, title string) *models.Song {
	t.Helper()
	song, err := repo.Upsert(models.RemoteEntry{RemoteID: remoteID, Title: title})
	if err != nil {
		t.Fatalf("failed to upsert song: %v", err)
	}
	if err := repo.Link(playlistID, song.ID); err != nil {
		t.Fatalf("failed to link song: %v", err)
	}
	return song
}

func TestPlaylistRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := mustCreatePlaylist(t, repo, "Focus", "https://music.example.com/playlist?list=PL1")

		if playlist.ID == "" {
			t.Error("playlist ID should be set after creation")
		}
		if playlist.TotalSongs != 0 {
			t.Errorf("new playlist should have 0 songs, got %d", playlist.TotalSongs)
		}
	})

	t.Run("CreateWithoutName", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := mustCreatePlaylist(t, repo, "", "https://music.example.com/playlist?list=PL1")

		if playlist.Name != models.DefaultPlaylistName {
			t.Errorf("expected placeholder name, got %s", playlist.Name)
		}
	})

	t.Run("CreateWithoutURL", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		err := repo.Create(&models.Playlist{Name: "Focus"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("CreateDuplicateURL", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		mustCreatePlaylist(t, repo, "Focus", "https://music.example.com/playlist?list=PL1")

		err := repo.Create(&models.Playlist{Name: "Again", URL: "https://music.example.com/playlist?list=PL1"})
		if !errors.Is(err, shared.ErrPlaylistExists) {
			t.Errorf("expected ErrPlaylistExists, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := mustCreatePlaylist(t, repo, "Focus", "https://music.example.com/playlist?list=PL1")

		retrieved, err := repo.Get(playlist.ID)
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if retrieved.Name != "Focus" {
			t.Errorf("expected name Focus, got %s", retrieved.Name)
		}
		if retrieved.LastSync != nil {
			t.Error("unsynced playlist should have nil LastSync")
		}

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("Rename", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := mustCreatePlaylist(t, repo, "Focus", "https://music.example.com/playlist?list=PL1")

		if err := repo.Rename(playlist.ID, "Deep Focus"); err != nil {
			t.Fatalf("failed to rename playlist: %v", err)
		}

		retrieved, err := repo.Get(playlist.ID)
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if retrieved.Name != "Deep Focus" {
			t.Errorf("expected name Deep Focus, got %s", retrieved.Name)
		}

		if err := repo.Rename("missing", "x"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("UpdateCounters", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := mustCreatePlaylist(t, repo, "Focus", "https://music.example.com/playlist?list=PL1")

		syncedAt := time.Now()
		if err := repo.UpdateCounters(playlist.ID, 42, syncedAt); err != nil {
			t.Fatalf("failed to update counters: %v", err)
		}

		retrieved, err := repo.Get(playlist.ID)
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if retrieved.TotalSongs != 42 {
			t.Errorf("expected 42 songs, got %d", retrieved.TotalSongs)
		}
		if retrieved.LastSync == nil {
			t.Fatal("LastSync should be set after counter update")
		}
	})

	t.Run("DeleteCascades", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		songs := NewSongRepository(db)
		playlist := mustCreatePlaylist(t, repo, "Focus", "https://music.example.com/playlist?list=PL1")
		song := mustLinkSong(t, songs, playlist.ID, "vid1", "Track One")

		if err := repo.Delete(playlist.ID); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}

		count, err := songs.LinkCount(song.ID)
		if err != nil {
			t.Fatalf("failed to count links: %v", err)
		}
		if count != 0 {
			t.Errorf("links should be cascade-deleted, got %d", count)
		}

		if _, err := songs.GetByRemoteID("vid1"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("orphaned song should be pruned, got %v", err)
		}

		if err := repo.Delete(playlist.ID); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("DeleteKeepsSharedSongs", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		songs := NewSongRepository(db)
		first := mustCreatePlaylist(t, repo, "Focus", "https://music.example.com/playlist?list=PL1")
		second := mustCreatePlaylist(t, repo, "Relax", "https://music.example.com/playlist?list=PL2")
		song := mustLinkSong(t, songs, first.ID, "vid1", "Track One")
		if err := songs.Link(second.ID, song.ID); err != nil {
			t.Fatalf("failed to link song: %v", err)
		}

		if err := repo.Delete(first.ID); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}

		if _, err := songs.GetByRemoteID("vid1"); err != nil {
			t.Errorf("shared song should survive, got %v", err)
		}
	})

	t.Run("Statuses", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		songs := NewSongRepository(db)
		playlist := mustCreatePlaylist(t, repo, "Focus", "https://music.example.com/playlist?list=PL1")

		first := mustLinkSong(t, songs, playlist.ID, "vid1", "Track One")
		mustLinkSong(t, songs, playlist.ID, "vid2", "Track Two")
		if err := repo.UpdateCounters(playlist.ID, 2, time.Now()); err != nil {
			t.Fatalf("failed to update counters: %v", err)
		}
		if err := songs.SetDownloaded(first.ID, "Track One [vid1].mp3"); err != nil {
			t.Fatalf("failed to mark downloaded: %v", err)
		}

		statuses, err := repo.Statuses()
		if err != nil {
			t.Fatalf("failed to get statuses: %v", err)
		}
		if len(statuses) != 1 {
			t.Fatalf("expected 1 status, got %d", len(statuses))
		}
		if statuses[0].Downloaded != 1 {
			t.Errorf("expected 1 downloaded, got %d", statuses[0].Downloaded)
		}
		if statuses[0].Progress != 50 {
			t.Errorf("expected 50%% progress, got %v", statuses[0].Progress)
		}
	})
}

func TestSongRepository(t *testing.T) {
	t.Run("UpsertReusesExisting", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		first, err := repo.Upsert(models.RemoteEntry{RemoteID: "vid1", Title: "Track One"})
		if err != nil {
			t.Fatalf("failed to upsert song: %v", err)
		}
		if err := repo.SetDownloaded(first.ID, "Track One [vid1].mp3"); err != nil {
			t.Fatalf("failed to mark downloaded: %v", err)
		}

		second, err := repo.Upsert(models.RemoteEntry{RemoteID: "vid1", Title: "Track One"})
		if err != nil {
			t.Fatalf("failed to upsert song again: %v", err)
		}
		if second.ID != first.ID {
			t.Error("upsert should reuse the existing song row")
		}
		if !second.Downloaded {
			t.Error("upsert should preserve the downloaded flag")
		}
	})

	t.Run("LinkIsIdempotent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		playlists := NewPlaylistRepository(db)
		repo := NewSongRepository(db)
		playlist := mustCreatePlaylist(t, playlists, "Focus", "https://music.example.com/playlist?list=PL1")
		song := mustLinkSong(t, repo, playlist.ID, "vid1", "Track One")

		if err := repo.Link(playlist.ID, song.ID); err != nil {
			t.Fatalf("re-linking should not fail: %v", err)
		}

		count, err := repo.LinkCount(song.ID)
		if err != nil {
			t.Fatalf("failed to count links: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 link, got %d", count)
		}
	})

	t.Run("ForPlaylist", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		playlists := NewPlaylistRepository(db)
		repo := NewSongRepository(db)
		playlist := mustCreatePlaylist(t, playlists, "Focus", "https://music.example.com/playlist?list=PL1")

		first := mustLinkSong(t, repo, playlist.ID, "vid1", "Track One")
		mustLinkSong(t, repo, playlist.ID, "vid2", "Track Two")
		if err := repo.SetDownloaded(first.ID, "Track One [vid1].mp3"); err != nil {
			t.Fatalf("failed to mark downloaded: %v", err)
		}

		all, err := repo.ForPlaylist(playlist.ID, false)
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 songs, got %d", len(all))
		}

		pending, err := repo.ForPlaylist(playlist.ID, true)
		if err != nil {
			t.Fatalf("failed to list pending songs: %v", err)
		}
		if len(pending) != 1 || pending[0].RemoteID != "vid2" {
			t.Errorf("expected only vid2 pending, got %v", pending)
		}
	})

	t.Run("ResetDownloadedKeepsFilename", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song, err := repo.Upsert(models.RemoteEntry{RemoteID: "vid1", Title: "Track One"})
		if err != nil {
			t.Fatalf("failed to upsert song: %v", err)
		}
		if err := repo.SetDownloaded(song.ID, "Track One [vid1].mp3"); err != nil {
			t.Fatalf("failed to mark downloaded: %v", err)
		}
		if err := repo.ResetDownloaded(song.ID); err != nil {
			t.Fatalf("failed to reset downloaded: %v", err)
		}

		retrieved, err := repo.GetByRemoteID("vid1")
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if retrieved.Downloaded {
			t.Error("downloaded flag should be cleared")
		}
		if retrieved.Filename != "Track One [vid1].mp3" {
			t.Errorf("filename should survive reset, got %q", retrieved.Filename)
		}
	})

	t.Run("UnlinkAndDelete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		playlists := NewPlaylistRepository(db)
		repo := NewSongRepository(db)
		one := mustCreatePlaylist(t, playlists, "One", "https://music.example.com/playlist?list=PL1")
		two := mustCreatePlaylist(t, playlists, "Two", "https://music.example.com/playlist?list=PL2")

		song := mustLinkSong(t, repo, one.ID, "vid1", "Track One")
		if err := repo.Link(two.ID, song.ID); err != nil {
			t.Fatalf("failed to link to second playlist: %v", err)
		}

		if err := repo.Unlink(one.ID, song.ID); err != nil {
			t.Fatalf("failed to unlink: %v", err)
		}
		count, err := repo.LinkCount(song.ID)
		if err != nil {
			t.Fatalf("failed to count links: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 remaining link, got %d", count)
		}

		if err := repo.Delete(song.ID); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}
		if _, err := repo.GetByRemoteID("vid1"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})
}

func TestSettingRepository(t *testing.T) {
	t.Run("GetMissing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingRepository(db)
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrSettingNotFound) {
			t.Errorf("expected ErrSettingNotFound, got %v", err)
		}
	})

	t.Run("SetAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingRepository(db)
		if err := repo.Set(models.SettingBitrate, "192"); err != nil {
			t.Fatalf("failed to set setting: %v", err)
		}

		value, err := repo.Get(models.SettingBitrate)
		if err != nil {
			t.Fatalf("failed to get setting: %v", err)
		}
		if value != "192" {
			t.Errorf("expected 192, got %s", value)
		}
	})

	t.Run("EnsureDefaultsDoesNotOverwrite", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSettingRepository(db)
		if err := repo.Set(models.SettingBitrate, "192"); err != nil {
			t.Fatalf("failed to set setting: %v", err)
		}

		if err := repo.EnsureDefaults(); err != nil {
			t.Fatalf("failed to ensure defaults: %v", err)
		}

		value, err := repo.Get(models.SettingBitrate)
		if err != nil {
			t.Fatalf("failed to get setting: %v", err)
		}
		if value != "192" {
			t.Errorf("EnsureDefaults should not overwrite, got %s", value)
		}

		all, err := repo.All()
		if err != nil {
			t.Fatalf("failed to list settings: %v", err)
		}
		for key := range DefaultSettings() {
			if _, ok := all[key]; !ok {
				t.Errorf("missing default setting %s", key)
			}
		}
	})
}
