// package services defines the contracts for remote playlist access
//
// The remote source is reached through a yt-dlp subprocess; see [YTDLP].
package services

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/opdl/playlistd/internal/models"
)

// Lister fetches the current entry listing of a remote playlist.
type Lister interface {
	// ListEntries returns the remote playlist title and its current entries.
	// Fails with an error wrapping shared.ErrFetch on network, auth, or
	// parse failure; no partial listing is ever returned.
	ListEntries(ctx context.Context, playlistURL string) (*RemoteListing, error)
}

// Fetcher retrieves and transcodes a single remote entry to a local file.
type Fetcher interface {
	// Fetch downloads the entry identified by remoteID according to opts
	// and returns the resulting filename relative to opts.OutputDir.
	// Fails with an error wrapping shared.ErrFetch on any extraction,
	// transcode, or IO failure.
	Fetch(ctx context.Context, remoteID string, opts FetchOptions) (string, error)
}

// RemoteListing is the result of listing a remote playlist.
type RemoteListing struct {
	Title   string
	Entries []models.RemoteEntry
}

// FetchOptions enumerates every recognized knob for a media fetch.
type FetchOptions struct {
	OutputDir      string      // Directory the media file is written to
	Format         string      // Target audio format, e.g. "mp3"
	Bitrate        string      // Target bitrate passed to the transcoder, e.g. "320"
	OutputTemplate string      // yt-dlp output template; defaults to DefaultOutputTemplate
	CookiesFile    string      // Optional Netscape-format cookies file
	Logger         *log.Logger // Optional hook for subprocess diagnostics
}

// DefaultOutputTemplate names files by title with the remote id embedded so
// downloads can be located on disk without a metadata lookup.
const DefaultOutputTemplate = "%(title)s [%(id)s].%(ext)s"
