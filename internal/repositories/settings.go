package repositories

import (
	"database/sql"
	"fmt"

	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/shared"
)

// DefaultSettings returns the seeded value for every recognized setting key.
func DefaultSettings() map[string]string {
	return map[string]string{
		models.SettingOutputDir:           "downloads",
		models.SettingBitrate:             "320",
		models.SettingInfoRefreshInterval: "5",
		models.SettingScheduleEnabled:     "false",
		models.SettingScheduleTime:        "03:00",
	}
}

// SettingRepository handles the key/value settings table.
type SettingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new SettingRepository with the given database connection
func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get retrieves a single setting value.
func (r *SettingRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", shared.ErrSettingNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to read setting %s: %v", shared.ErrStorage, key, err)
	}

	return value, nil
}

// Set stores a setting, replacing any existing value.
func (r *SettingRepository) Set(key, value string) error {
	_, err := r.db.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("%w: failed to write setting %s: %v", shared.ErrStorage, key, err)
	}

	return nil
}

// All returns every stored setting as a map.
func (r *SettingRepository) All() (map[string]string, error) {
	rows, err := r.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query settings: %v", shared.ErrStorage, err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w: failed to scan setting: %v", shared.ErrStorage, err)
		}
		settings[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStorage, err)
	}

	return settings, nil
}

// EnsureDefaults inserts any recognized setting that is not yet stored.
// Existing values are never overwritten.
func (r *SettingRepository) EnsureDefaults() error {
	for key, value := range DefaultSettings() {
		_, err := r.db.Exec("INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", key, value)
		if err != nil {
			return fmt.Errorf("%w: failed to seed setting %s: %v", shared.ErrStorage, key, err)
		}
	}

	return nil
}
