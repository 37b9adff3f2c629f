package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kyaoi/mdedit/internal/export"
	"github.com/kyaoi/mdedit/internal/mode"
	"github.com/kyaoi/mdedit/internal/preview"
	"github.com/kyaoi/mdedit/internal/raster"
)

const (
	rootDir        = ".mdedit"
	configFileName = "config.toml"
	envPrefix      = "MDEDIT"
)

const (
	HintDelayKey        = "hint_delay"
	RenderWaitKey       = "render_wait"
	OutputDirKey        = "output_dir"
	StyleKey            = "style"
	CodeStyleKey        = "code_style"
	LogFileKey          = "log_file"
	BackgroundKey       = "export.background"
	ScaleKey            = "export.scale"
	ColumnsKey          = "export.columns"
	StrictPaginationKey = "export.strict_pagination"
)

// Config is the effective configuration of the editor.
type Config struct {
	HintDelay        time.Duration
	RenderWait       time.Duration
	OutputDir        string
	Style            string
	CodeStyle        string
	LogFile          string
	Background       string
	Scale            int
	Columns          int
	StrictPagination bool
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HintDelay:  mode.DefaultHintDelay,
		RenderWait: export.DefaultRenderWait,
		OutputDir:  ".",
		Style:      preview.DefaultStyle,
		CodeStyle:  preview.DefaultCodeStyle,
		Background: raster.DefaultBackground,
		Scale:      raster.DefaultScale,
		Columns:    preview.DefaultSurfaceColumns,
	}
}

// SetDefaults registers the built-in values on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(HintDelayKey, d.HintDelay)
	v.SetDefault(RenderWaitKey, d.RenderWait)
	v.SetDefault(OutputDirKey, d.OutputDir)
	v.SetDefault(StyleKey, d.Style)
	v.SetDefault(CodeStyleKey, d.CodeStyle)
	v.SetDefault(LogFileKey, d.LogFile)
	v.SetDefault(BackgroundKey, d.Background)
	v.SetDefault(ScaleKey, d.Scale)
	v.SetDefault(ColumnsKey, d.Columns)
	v.SetDefault(StrictPaginationKey, d.StrictPagination)
}

// Init prepares v to read the config file and MDEDIT_* variables. An empty
// path selects ~/.mdedit/config.toml; a missing file is not an error.
func Init(v *viper.Viper, path string) error {
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, rootDir, configFileName)
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load decodes v into a Config. Invalid values are replaced by their
// defaults and reported together in the returned error.
func Load(v *viper.Viper) (Config, error) {
	d := Defaults()
	cfg := Config{
		HintDelay:        v.GetDuration(HintDelayKey),
		RenderWait:       v.GetDuration(RenderWaitKey),
		OutputDir:        v.GetString(OutputDirKey),
		Style:            v.GetString(StyleKey),
		CodeStyle:        v.GetString(CodeStyleKey),
		LogFile:          v.GetString(LogFileKey),
		Background:       v.GetString(BackgroundKey),
		Scale:            v.GetInt(ScaleKey),
		Columns:          v.GetInt(ColumnsKey),
		StrictPagination: v.GetBool(StrictPaginationKey),
	}

	var errs []error
	if cfg.HintDelay <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", HintDelayKey))
		cfg.HintDelay = d.HintDelay
	}
	if cfg.RenderWait < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", RenderWaitKey))
		cfg.RenderWait = d.RenderWait
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = d.OutputDir
	}
	if cfg.Scale < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", ScaleKey))
		cfg.Scale = d.Scale
	}
	if cfg.Columns < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", ColumnsKey))
		cfg.Columns = d.Columns
	}
	if _, err := raster.ParseColor(cfg.Background); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", BackgroundKey, err))
		cfg.Background = d.Background
	}
	return cfg, errors.Join(errs...)
}

// GetConfigFilePath returns the file v was pointed at.
func GetConfigFilePath(v *viper.Viper) string {
	return v.ConfigFileUsed()
}
