// Package config owns the reserved-key configuration map every store
// carries: a "version" string and a "defaults" block. The planner's work
// hours are read from the defaults block; its curve_type is stored and
// printed by `taskcurve init`, but task creation does not read it
// (lifecycle.CreateTask picks a curve with domain.InferCurve).
package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taskcurve/taskcurve/internal/domain"
	"github.com/taskcurve/taskcurve/internal/store"
)

const (
	KeyVersion  = "version"
	KeyDefaults = "defaults"

	CurrentVersion = "1.0.0"
)

// Defaults is the "defaults" config key's JSON shape: a curve variant name
// and the planner's working window. The `plan` command reads the working
// window; CurveType is not consulted when a task is created.
type Defaults struct {
	CurveType      domain.CurveVariant `json:"curve_type"`
	WorkHoursStart string              `json:"work_hours_start"`
	WorkHoursEnd   string              `json:"work_hours_end"`
}

// DefaultDefaults mirrors the planner's own fallback window so a freshly
// initialized store and a config-less planner call agree.
func DefaultDefaults() Defaults {
	return Defaults{
		CurveType:      domain.CurveLinear,
		WorkHoursStart: "09:00",
		WorkHoursEnd:   "17:00",
	}
}

// LoadDefaults reads the "defaults" key from cfg, falling back to
// DefaultDefaults when the key is absent (a fresh store: the schema seeds
// only the "version" key).
func LoadDefaults(ctx context.Context, cfg store.ConfigStore) (Defaults, error) {
	raw, ok, err := cfg.Get(ctx, KeyDefaults)
	if err != nil {
		return Defaults{}, fmt.Errorf("read defaults config: %w", err)
	}
	if !ok {
		return DefaultDefaults(), nil
	}
	var d Defaults
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Defaults{}, fmt.Errorf("parse defaults config: %w", err)
	}
	return d, nil
}

// SaveDefaults writes d back to the "defaults" key.
func SaveDefaults(ctx context.Context, cfg store.ConfigStore, d Defaults) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal defaults config: %w", err)
	}
	return cfg.Set(ctx, KeyDefaults, string(raw))
}
