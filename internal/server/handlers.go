package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/repositories"
	"github.com/opdl/playlistd/internal/shared"
	"github.com/opdl/playlistd/internal/tasks"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps catalog errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, shared.ErrPlaylistNotFound), errors.Is(err, shared.ErrSettingNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrPlaylistExists):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PlaylistHandler serves playlist CRUD endpoints. Newly added playlists get
// an immediate full sync so their contents appear without waiting for the
// next scheduled pass.
type PlaylistHandler struct {
	playlists *repositories.PlaylistRepository
	scheduler *tasks.Scheduler
	logger    *log.Logger
}

func NewPlaylistHandler(playlists *repositories.PlaylistRepository, scheduler *tasks.Scheduler, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists, scheduler: scheduler, logger: logger}
}

func (h *PlaylistHandler) Routes() []string {
	return []string{
		"GET /api/playlists",
		"POST /api/playlists",
		"PUT /api/playlists/{id}",
		"DELETE /api/playlists/{id}",
	}
}

func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w)
	case http.MethodPost:
		h.create(w, r)
	case http.MethodPut:
		h.rename(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	}
}

func (h *PlaylistHandler) list(w http.ResponseWriter) {
	statuses, err := h.playlists.Statuses()
	if err != nil {
		h.logger.Error("failed to list playlists", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list playlists")
		return
	}

	active := h.scheduler.Active()
	for i := range statuses {
		statuses[i].CurrentSong = active[statuses[i].ID]
	}

	respondJSON(w, http.StatusOK, statuses)
}

func (h *PlaylistHandler) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	playlist := &models.Playlist{Name: body.Name, URL: body.URL}
	if err := h.playlists.Create(playlist); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	// The request context dies with the response; the initial sync must outlive it.
	h.scheduler.SyncPlaylist(context.WithoutCancel(r.Context()), playlist.ID)
	respondJSON(w, http.StatusCreated, playlist)
}

func (h *PlaylistHandler) rename(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	id := r.PathValue("id")
	if err := h.playlists.Rename(id, body.Name); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	playlist, err := h.playlists.Get(id)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, playlist)
}

func (h *PlaylistHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.playlists.Delete(r.PathValue("id")); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SyncHandler serves manual sync triggers for all playlists or a single one.
type SyncHandler struct {
	playlists *repositories.PlaylistRepository
	scheduler *tasks.Scheduler
}

func NewSyncHandler(playlists *repositories.PlaylistRepository, scheduler *tasks.Scheduler) *SyncHandler {
	return &SyncHandler{playlists: playlists, scheduler: scheduler}
}

func (h *SyncHandler) Routes() []string {
	return []string{
		"POST /api/sync",
		"POST /api/sync/{id}",
	}
}

func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	id := r.PathValue("id")
	if id == "" {
		started := h.scheduler.SyncAll(ctx)
		respondJSON(w, http.StatusAccepted, map[string]int{"started": started})
		return
	}

	if _, err := h.playlists.Get(id); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	if !h.scheduler.SyncPlaylist(ctx, id) {
		respondError(w, http.StatusConflict, "sync already in progress")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// SettingsHandler serves the settings read/update endpoints.
type SettingsHandler struct {
	settings *repositories.SettingRepository
}

func NewSettingsHandler(settings *repositories.SettingRepository) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) Routes() []string {
	return []string{
		"GET /api/settings",
		"POST /api/settings",
	}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		all, err := h.settings.All()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to read settings")
			return
		}
		respondJSON(w, http.StatusOK, all)
		return
	}

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	for key, value := range body {
		if err := validateSetting(key, value); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	for key, value := range body {
		if err := h.settings.Set(key, value); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	all, err := h.settings.All()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}
	respondJSON(w, http.StatusOK, all)
}

func validateSetting(key, value string) error {
	switch key {
	case models.SettingInfoRefreshInterval:
		if _, err := strconv.Atoi(value); err != nil {
			return errors.New("info_refresh_interval must be an integer")
		}
	case models.SettingBitrate:
		if _, err := strconv.Atoi(value); err != nil {
			return errors.New("bitrate must be an integer")
		}
	case models.SettingScheduleTime:
		if _, err := time.Parse("15:04", value); err != nil {
			return errors.New("schedule_time must be 24-hour HH:MM")
		}
	}
	return nil
}

// StatusHandler exposes the sync event feed and in-flight download state.
type StatusHandler struct {
	scheduler *tasks.Scheduler
}

func NewStatusHandler(scheduler *tasks.Scheduler) *StatusHandler {
	return &StatusHandler{scheduler: scheduler}
}

func (h *StatusHandler) Routes() []string {
	return []string{
		"GET /api/events",
		"GET /api/status",
	}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/events" {
		respondJSON(w, http.StatusOK, h.scheduler.Events())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"active_downloads": h.scheduler.Active(),
		"last_daily_run":   h.scheduler.LastDailyRun(),
	})
}
