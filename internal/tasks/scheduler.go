package tasks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/repositories"
)

// dailyPollInterval is how often the daily gate is checked. Firing
// resolution is one minute; at-most-once-per-date is enforced by the gate
// itself, not the polling cadence.
const dailyPollInterval = time.Minute

// fallbackInfoInterval is used when the stored interval is missing or
// unparseable.
const fallbackInfoInterval = 5 * time.Second

// dailyGate fires at most once per calendar date. It tracks the date of
// the last firing; after a firing it stays closed until the wall-clock
// date advances past it.
type dailyGate struct {
	mu        sync.Mutex
	lastFired string // YYYY-MM-DD of the last firing, empty before the first
}

// tryFire reports whether the gate fires at the given instant and, if so,
// atomically records the date so later checks the same day are no-ops.
// at is the configured trigger time in 24-hour HH:MM.
func (g *dailyGate) tryFire(now time.Time, at string) bool {
	target, err := time.Parse("15:04", at)
	if err != nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	today := now.Format("2006-01-02")
	if g.lastFired == today {
		return false
	}

	trigger := time.Date(now.Year(), now.Month(), now.Day(),
		target.Hour(), target.Minute(), 0, 0, now.Location())
	if now.Before(trigger) {
		return false
	}

	g.lastFired = today
	return true
}

// lastFiredDate returns the date of the last firing for observability.
func (g *dailyGate) lastFiredDate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastFired
}

// Scheduler owns the periodic sync loops: a fast info-only pass that keeps
// catalog counters fresh, a once-per-day full reconcile+execute pass, and
// manual triggers. Each cycle re-reads the playlist set, so playlists added
// or removed between cycles are picked up automatically. All per-playlist
// work goes through the [Guard]; a playlist whose previous run is still in
// flight is skipped for that cycle.
type Scheduler struct {
	playlists  *repositories.PlaylistRepository
	settings   *repositories.SettingRepository
	reconciler *Reconciler
	executor   *Executor
	guard      *Guard
	active     *ActiveDownloads
	feed       *EventFeed
	logger     *log.Logger

	gate dailyGate
	now  func() time.Time
	wg   sync.WaitGroup

	// last schedule_time value warned about, so a stored bad value does
	// not spam the log every poll. Touched only from the daily loop.
	warnedTime string
}

// NewScheduler wires a Scheduler over the given engine components.
func NewScheduler(
	playlists *repositories.PlaylistRepository,
	settings *repositories.SettingRepository,
	reconciler *Reconciler,
	executor *Executor,
	guard *Guard,
	active *ActiveDownloads,
	feed *EventFeed,
	logger *log.Logger,
) *Scheduler {
	return &Scheduler{
		playlists:  playlists,
		settings:   settings,
		reconciler: reconciler,
		executor:   executor,
		guard:      guard,
		active:     active,
		feed:       feed,
		logger:     logger,
		now:        time.Now,
	}
}

// Start launches the info loop and the daily loop. Both run until ctx is
// cancelled; no individual cycle failure stops them.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.infoLoop(ctx)
	go s.dailyLoop(ctx)
	s.logger.Info("scheduler started")
}

// Wait blocks until both loops and all dispatched playlist runs finish.
// In-flight subprocess I/O is simply abandoned on context cancellation.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// SyncPlaylist runs reconcile+execute for one playlist outside the
// scheduled cadence. Returns false when a run is already active for the
// playlist; the attempt is skipped, not queued.
func (s *Scheduler) SyncPlaylist(ctx context.Context, playlistID string) bool {
	return s.dispatch(ctx, playlistID, true)
}

// SyncAll triggers reconcile+execute for every known playlist and reports
// how many runs were actually started.
func (s *Scheduler) SyncAll(ctx context.Context) int {
	playlists, err := s.playlists.List()
	if err != nil {
		s.logger.Error("failed to list playlists for manual sync", "error", err)
		s.feed.Addf("Manual sync failed: %v", err)
		return 0
	}

	started := 0
	for _, playlist := range playlists {
		if s.dispatch(ctx, playlist.ID, true) {
			started++
		}
	}

	s.feed.Addf("Manual sync started for %d of %d playlists", started, len(playlists))
	return started
}

// Active returns a snapshot of the titles currently being fetched.
func (s *Scheduler) Active() map[string]string {
	return s.active.Snapshot()
}

// Events returns a snapshot of the sync event feed.
func (s *Scheduler) Events() []Event {
	return s.feed.Snapshot()
}

// LastDailyRun returns the calendar date the daily pass last fired on.
func (s *Scheduler) LastDailyRun() string {
	return s.gate.lastFiredDate()
}

// infoLoop reconciles every playlist on the configured fast cadence,
// never invoking the executor. The interval is re-read every cycle so a
// settings change takes effect without a restart.
func (s *Scheduler) infoLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.infoInterval()):
			s.runInfoPass(ctx)
		}
	}
}

// infoInterval reads the fast-loop interval from settings, enforcing the
// floor to bound catalog and remote-listing load.
func (s *Scheduler) infoInterval() time.Duration {
	value, err := s.settings.Get(models.SettingInfoRefreshInterval)
	if err != nil {
		return fallbackInfoInterval
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		s.logger.Warn("invalid info refresh interval", "value", value)
		return fallbackInfoInterval
	}
	if seconds < models.MinInfoRefreshSeconds {
		seconds = models.MinInfoRefreshSeconds
	}

	return time.Duration(seconds) * time.Second
}

func (s *Scheduler) runInfoPass(ctx context.Context) {
	playlists, err := s.playlists.List()
	if err != nil {
		s.logger.Error("info pass failed to list playlists", "error", err)
		return
	}

	for _, playlist := range playlists {
		s.dispatch(ctx, playlist.ID, false)
	}
}

// dailyLoop polls the daily gate once a minute and triggers the full
// reconcile+execute pass at most once per calendar date.
func (s *Scheduler) dailyLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(dailyPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkDaily(ctx)
		}
	}
}

func (s *Scheduler) checkDaily(ctx context.Context) {
	enabled, err := s.settings.Get(models.SettingScheduleEnabled)
	if err != nil || enabled != "true" {
		return
	}

	at, err := s.settings.Get(models.SettingScheduleTime)
	if err != nil {
		return
	}

	if _, err := time.Parse("15:04", at); err != nil {
		if s.warnedTime != at {
			s.warnedTime = at
			s.logger.Warn("invalid schedule time, daily sync will not run", "value", at)
			s.feed.Addf("Invalid schedule time %q, daily sync will not run", at)
		}
		return
	}

	if !s.gate.tryFire(s.now(), at) {
		return
	}

	s.feed.Addf("Starting scheduled daily sync")
	s.logger.Info("daily sync triggered", "at", at)

	playlists, err := s.playlists.List()
	if err != nil {
		s.logger.Error("daily pass failed to list playlists", "error", err)
		s.feed.Addf("Scheduled sync failed: %v", err)
		return
	}

	for _, playlist := range playlists {
		s.dispatch(ctx, playlist.ID, true)
	}
}

// dispatch starts a guarded run for one playlist: reconciliation always,
// execution only for full passes, and only after reconciliation succeeds.
// Returns false when the playlist already has a run in flight.
func (s *Scheduler) dispatch(ctx context.Context, playlistID string, execute bool) bool {
	if !s.guard.TryAcquire(playlistID) {
		s.logger.Debug("run already active, skipping", "playlist_id", playlistID)
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.guard.Release(playlistID)

		if _, err := s.reconciler.Reconcile(ctx, playlistID); err != nil {
			s.logger.Error("reconciliation failed", "playlist_id", playlistID, "error", err)
			return
		}

		if !execute {
			return
		}

		if err := s.executor.Execute(ctx, playlistID); err != nil {
			s.logger.Error("execution failed", "playlist_id", playlistID, "error", err)
		}
	}()

	return true
}
