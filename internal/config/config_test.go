package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 2*time.Second, cfg.HintDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.RenderWait)
	assert.Equal(t, 2, cfg.Scale)
	assert.Equal(t, "#ffffff", cfg.Background)
	assert.False(t, cfg.StrictPagination)
}

func TestInitReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
hint_delay = "500ms"
output_dir = "exports"

[export]
scale = 3
strict_pagination = true
`), 0o644))

	v := viper.New()
	require.NoError(t, Init(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.HintDelay)
	assert.Equal(t, "exports", cfg.OutputDir)
	assert.Equal(t, 3, cfg.Scale)
	assert.True(t, cfg.StrictPagination)
	assert.Equal(t, path, GetConfigFilePath(v))
}

func TestInitMissingFileIsFine(t *testing.T) {
	v := viper.New()
	require.NoError(t, Init(v, filepath.Join(t.TempDir(), "absent.toml")))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("MDEDIT_EXPORT_COLUMNS", "100")
	v := viper.New()
	require.NoError(t, Init(v, filepath.Join(t.TempDir(), "absent.toml")))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Columns)
}

func TestInvalidValuesFallBack(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(HintDelayKey, "-1s")
	v.Set(ScaleKey, 0)
	v.Set(BackgroundKey, "white")

	cfg, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), HintDelayKey)
	assert.Contains(t, err.Error(), ScaleKey)
	assert.Contains(t, err.Error(), BackgroundKey)

	d := Defaults()
	assert.Equal(t, d.HintDelay, cfg.HintDelay)
	assert.Equal(t, d.Scale, cfg.Scale)
	assert.Equal(t, d.Background, cfg.Background)
}
