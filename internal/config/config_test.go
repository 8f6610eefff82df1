package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskcurve/taskcurve/internal/domain"
	"github.com/taskcurve/taskcurve/internal/store/sqlite"
)

func openTestConfigStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(sqlite.DefaultConfig(":memory:"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadDefaults_FallsBackWhenUnset(t *testing.T) {
	db := openTestConfigStore(t)
	ctx := context.Background()

	d, err := LoadDefaults(ctx, db.Config)
	require.NoError(t, err)
	assert.Equal(t, "09:00", d.WorkHoursStart)
	assert.Equal(t, domain.CurveLinear, d.CurveType)
}

func TestSaveAndLoadDefaults_RoundTrips(t *testing.T) {
	db := openTestConfigStore(t)
	ctx := context.Background()

	want := Defaults{WorkHoursStart: "08:30", WorkHoursEnd: "16:30"}
	require.NoError(t, SaveDefaults(ctx, db.Config, want))

	got, err := LoadDefaults(ctx, db.Config)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFileDefaults_MissingFileIsNotAnError(t *testing.T) {
	db := openTestConfigStore(t)
	err := LoadFileDefaults(context.Background(), db.Config, filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
}

func TestLoadFileDefaults_OverridesFromJSON(t *testing.T) {
	db := openTestConfigStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "defaults.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"work_hours_start":"07:00","work_hours_end":"15:00"}`), 0644))

	require.NoError(t, LoadFileDefaults(ctx, db.Config, path))

	got, err := LoadDefaults(ctx, db.Config)
	require.NoError(t, err)
	assert.Equal(t, "07:00", got.WorkHoursStart)
	assert.Equal(t, "15:00", got.WorkHoursEnd)
}
