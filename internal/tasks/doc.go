// Package tasks implements the synchronization and scheduling engine.
//
// The core pieces:
//   - [Reconciler] : computes the three-way diff between the catalog, the
//     remote listing, and the filesystem for one playlist, and applies the
//     resulting catalog mutations.
//   - [Executor] : drives the media fetcher for every song in a playlist
//     that is not yet downloaded, persisting per-song state immediately.
//   - [Scheduler] : owns the fast info loop, the once-per-day execution
//     loop, and manual triggers, dispatching guarded per-playlist work.
//   - [Guard] : ensures at most one reconcile+execute run is in flight per
//     playlist identifier; concurrent attempts are skipped, never queued.
//
// Observability is exposed through [ActiveDownloads] (the title currently
// being fetched per playlist) and [EventFeed] (a bounded feed of
// human-readable sync events). Both are safe for concurrent use and hand
// out snapshot copies only.
package tasks
