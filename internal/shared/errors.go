package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Synchronization errors. ErrFetch covers both remote listing and media
	// acquisition failures; a failed fetch is retried on the next scheduled
	// cycle, never within the same run. ErrStorage aborts the current run
	// for the affected playlist only.
	ErrFetch   = fmt.Errorf("remote fetch failed")
	ErrStorage = fmt.Errorf("catalog storage failed")

	// Catalog errors
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrPlaylistExists   = fmt.Errorf("playlist already exists")
	ErrSongNotFound     = fmt.Errorf("song not found")
	ErrSettingNotFound  = fmt.Errorf("setting not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
