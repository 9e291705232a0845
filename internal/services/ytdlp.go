// yt-dlp subprocess implementation of [Lister] and [Fetcher]
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/shared"
)

const defaultBinary = "yt-dlp"

// watchURLPrefix turns a bare remote entry id into a fetchable URL.
const watchURLPrefix = "https://music.youtube.com/watch?v="

// runFunc executes a command and returns its combined output. Injected so
// tests can exercise argument construction and output parsing without a
// yt-dlp binary on PATH.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// YTDLP implements [Lister] and [Fetcher] by shelling out to the yt-dlp
// binary: flat-playlist JSON dumps for listings, extract-audio for fetches.
type YTDLP struct {
	binary      string
	cookiesPath string
	run         runFunc
}

// NewYTDLP creates a yt-dlp backed service. binary defaults to "yt-dlp"
// resolved via PATH; cookiesPath is optional.
func NewYTDLP(binary, cookiesPath string) *YTDLP {
	if binary == "" {
		binary = defaultBinary
	}

	return &YTDLP{
		binary:      binary,
		cookiesPath: cookiesPath,
		run:         execRun,
	}
}

// listingPayload mirrors the single-JSON dump yt-dlp produces for a
// flat playlist extraction.
type listingPayload struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Entries []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"entries"`
}

// ListEntries fetches the remote playlist listing without downloading media.
func (y *YTDLP) ListEntries(ctx context.Context, playlistURL string) (*RemoteListing, error) {
	args := []string{
		"--quiet",
		"--no-warnings",
		"--flat-playlist",
		"--dump-single-json",
	}
	args = y.appendCookies(args)
	args = append(args, playlistURL)

	output, err := y.run(ctx, y.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v (output: %s)",
			shared.ErrFetch, playlistURL, err, firstLine(output))
	}

	var payload listingPayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse listing for %s: %v", shared.ErrFetch, playlistURL, err)
	}

	listing := &RemoteListing{Title: payload.Title}
	for _, entry := range payload.Entries {
		if entry.ID == "" {
			continue
		}
		title := entry.Title
		if title == "" {
			title = "Unknown"
		}
		listing.Entries = append(listing.Entries, models.RemoteEntry{
			RemoteID: entry.ID,
			Title:    title,
		})
	}

	return listing, nil
}

// Fetch downloads one remote entry and returns the resulting filename
// relative to opts.OutputDir.
func (y *YTDLP) Fetch(ctx context.Context, remoteID string, opts FetchOptions) (string, error) {
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create output directory %s: %v",
			shared.ErrFetch, opts.OutputDir, err)
	}

	format := opts.Format
	if format == "" {
		format = "mp3"
	}
	template := opts.OutputTemplate
	if template == "" {
		template = DefaultOutputTemplate
	}

	args := []string{
		"--quiet",
		"--no-warnings",
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", format,
		"--output", filepath.Join(opts.OutputDir, template),
	}
	if opts.Bitrate != "" {
		args = append(args, "--audio-quality", opts.Bitrate)
	}
	if opts.CookiesFile != "" {
		args = append(args, "--cookies", opts.CookiesFile)
	} else {
		args = y.appendCookies(args)
	}
	args = append(args, watchURLPrefix+remoteID)

	output, err := y.run(ctx, y.binary, args...)
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.Debug("yt-dlp fetch failed", "remote_id", remoteID, "output", strings.TrimSpace(string(output)))
		}
		return "", fmt.Errorf("%w: fetching %s: %v", shared.ErrFetch, remoteID, err)
	}

	filename, err := findDownloaded(opts.OutputDir, remoteID)
	if err != nil {
		return "", err
	}

	return filename, nil
}

// findDownloaded locates the file yt-dlp wrote for the entry. The default
// output template embeds the remote id in brackets, so a directory scan is
// enough; yt-dlp decides the final extension after transcoding.
func findDownloaded(outputDir, remoteID string) (string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read output directory %s: %v",
			shared.ErrFetch, outputDir, err)
	}

	marker := "[" + remoteID + "]"
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(entry.Name(), marker) {
			return entry.Name(), nil
		}
	}

	return "", fmt.Errorf("%w: downloaded file for %s not found in %s",
		shared.ErrFetch, remoteID, outputDir)
}

// appendCookies adds the configured cookies file when one exists on disk.
func (y *YTDLP) appendCookies(args []string) []string {
	if y.cookiesPath == "" {
		return args
	}
	if _, err := os.Stat(y.cookiesPath); err != nil {
		return args
	}
	return append(args, "--cookies", y.cookiesPath)
}

// firstLine trims subprocess output to its first line for error messages.
func firstLine(output []byte) string {
	text := strings.TrimSpace(string(output))
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return text
}
