package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/opdl/playlistd/internal/shared"
	"github.com/urfave/cli/v3"
)

// SettingsGet prints one setting, or every setting when no key is given.
func (r *Runner) SettingsGet(ctx context.Context, cmd *cli.Command) error {
	c, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.settings.EnsureDefaults(); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	if key := cmd.StringArg("key"); key != "" {
		value, err := c.settings.Get(key)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", value)
	}

	all, err := c.settings.All()
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := r.writePlain("%s = %s\n", key, all[key]); err != nil {
			return err
		}
	}
	return nil
}

// SettingsSet stores a setting value.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("key")
	value := cmd.StringArg("value")
	if key == "" {
		return fmt.Errorf("%w: setting key is required", shared.ErrMissingArgument)
	}

	c, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.settings.Set(key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}

	return r.writePlain("%s = %s\n", key, value)
}
