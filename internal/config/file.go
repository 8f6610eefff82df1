package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/taskcurve/taskcurve/internal/store"
)

// LoadFileDefaults reads an optional on-disk JSON file of Defaults overrides
// and seeds them into cfg, used only by `taskcurve init`: a missing file is
// not an error, since LoadDefaults falls back to DefaultDefaults when no
// "defaults" key is stored.
func LoadFileDefaults(ctx context.Context, cfg store.ConfigStore, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	defaults := DefaultDefaults()
	if err := json.Unmarshal(data, &defaults); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return SaveDefaults(ctx, cfg, defaults)
}
