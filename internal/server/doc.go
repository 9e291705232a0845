// Package server provides HTTP routing, middleware, and the JSON API for the sync daemon.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-qualified patterns.
//
// # API Surface
//
//	GET    /api/playlists      → playlist list with download progress
//	POST   /api/playlists      → add a playlist and trigger its first sync
//	PUT    /api/playlists/{id} → rename a playlist
//	DELETE /api/playlists/{id} → remove a playlist and its orphaned songs
//	POST   /api/sync           → trigger a full sync of every playlist
//	POST   /api/sync/{id}      → trigger a full sync of one playlist
//	GET    /api/settings       → read all settings
//	POST   /api/settings       → update settings
//	GET    /api/events         → recent sync event feed
//	GET    /api/status         → in-flight downloads and last daily run date
//
// Sync triggers return 202 Accepted immediately; the work runs in the
// scheduler's goroutines and progress is observable via /api/events and
// /api/status.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
