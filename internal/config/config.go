/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"godiagram/internal/domain"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Export        ExportConfig  `yaml:"export"`
	Recent        RecentConfig  `yaml:"recent"`
	Logging       LoggingConfig `yaml:"logging"`
}

type EditorConfig struct {
	HistoryDepth int     `yaml:"history_depth"`
	PasteOffset  float64 `yaml:"paste_offset"`
	BackupsKeep  int     `yaml:"backups_keep"` // negative disables backups
}

type ExportConfig struct {
	Scale        float64 `yaml:"scale"`
	Margin       float64 `yaml:"margin"`
	Background   string  `yaml:"background"` // #rrggbb or #rrggbbaa
	GroupOutline bool    `yaml:"group_outline"`
}

type RecentConfig struct {
	Enabled bool   `yaml:"enabled"`
	Limit   int    `yaml:"limit"`
	Path    string `yaml:"path"` // empty means <user config dir>/godiagram/recent.sqlite
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{HistoryDepth: 1000, PasteOffset: 10, BackupsKeep: 5},
		Export:        ExportConfig{Scale: 2, Margin: 16, Background: "#ffffff", GroupOutline: false},
		Recent:        RecentConfig{Enabled: true, Limit: 20},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile = "GDE_CONFIG"

	EnvHistoryDepth = "GDE_HISTORY_DEPTH"
	EnvPasteOffset  = "GDE_PASTE_OFFSET"
	EnvBackupsKeep  = "GDE_BACKUPS_KEEP"

	EnvExportScale        = "GDE_EXPORT_SCALE"
	EnvExportMargin       = "GDE_EXPORT_MARGIN"
	EnvExportBackground   = "GDE_EXPORT_BACKGROUND"
	EnvExportGroupOutline = "GDE_EXPORT_GROUP_OUTLINE"

	EnvRecentEnabled = "GDE_RECENT_ENABLED"
	EnvRecentLimit   = "GDE_RECENT_LIMIT"
	EnvRecentPath    = "GDE_RECENT_PATH"

	// EnvLogLevel Logging envs
	EnvLogLevel  = "GDE_LOG_LEVEL"
	EnvLogFormat = "GDE_LOG_FORMAT"
	EnvLogSource = "GDE_LOG_SOURCE"
	EnvLogFile   = "GDE_LOG_FILE"
)

// envKeys maps config keys to the variable overriding them.
var envKeys = map[string]string{
	"editor.history_depth": EnvHistoryDepth,
	"editor.paste_offset":  EnvPasteOffset,
	"editor.backups_keep":  EnvBackupsKeep,
	"export.scale":         EnvExportScale,
	"export.margin":        EnvExportMargin,
	"export.background":    EnvExportBackground,
	"export.group_outline": EnvExportGroupOutline,
	"recent.enabled":       EnvRecentEnabled,
	"recent.limit":         EnvRecentLimit,
	"recent.path":          EnvRecentPath,
	"logging.level":        EnvLogLevel,
	"logging.format":       EnvLogFormat,
	"logging.source":       EnvLogSource,
	"logging.file":         EnvLogFile,
}

// ConfigPath returns the per-user config file path. GDE_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoDiagram")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoDiagram")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "godiagram")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "godiagram")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present) over the defaults and applies environment
// overrides. The returned config is usable even when err is non-nil.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path. A missing file is not an error.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	var loadErr error
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		fileCfg := Defaults()
		if uerr := yaml.Unmarshal(data, &fileCfg); uerr != nil {
			loadErr = fmt.Errorf("parse config %s: %w", path, uerr)
		} else {
			cfg = fileCfg
		}
	case !errors.Is(err, os.ErrNotExist):
		loadErr = fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return cfg, loadErr
}

// Save writes cfg as YAML to the user config path.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// normalize replaces out-of-range values with defaults.
func normalize(cfg *AppConfig) {
	def := Defaults()
	if cfg.Editor.HistoryDepth <= 0 {
		cfg.Editor.HistoryDepth = def.Editor.HistoryDepth
	}
	if cfg.Export.Scale <= 0 {
		cfg.Export.Scale = def.Export.Scale
	}
	if cfg.Export.Margin < 0 {
		cfg.Export.Margin = def.Export.Margin
	}
	if _, err := ParseColor(cfg.Export.Background); err != nil {
		cfg.Export.Background = def.Export.Background
	}
	if cfg.Recent.Limit <= 0 {
		cfg.Recent.Limit = def.Recent.Limit
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
}

func applyEnvOverrides(cfg *AppConfig) {
	envInt(EnvHistoryDepth, &cfg.Editor.HistoryDepth)
	envFloat(EnvPasteOffset, &cfg.Editor.PasteOffset)
	envInt(EnvBackupsKeep, &cfg.Editor.BackupsKeep)
	envFloat(EnvExportScale, &cfg.Export.Scale)
	envFloat(EnvExportMargin, &cfg.Export.Margin)
	envString(EnvExportBackground, &cfg.Export.Background)
	envBool(EnvExportGroupOutline, &cfg.Export.GroupOutline)
	envBool(EnvRecentEnabled, &cfg.Recent.Enabled)
	envInt(EnvRecentLimit, &cfg.Recent.Limit)
	envString(EnvRecentPath, &cfg.Recent.Path)
	envString(EnvLogLevel, &cfg.Logging.Level)
	envString(EnvLogFormat, &cfg.Logging.Format)
	envBool(EnvLogSource, &cfg.Logging.Source)
	envString(EnvLogFile, &cfg.Logging.File)
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		lv := strings.ToLower(v)
		*dst = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// ParseColor parses #rrggbb or #rrggbbaa.
func ParseColor(s string) (domain.Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return domain.Color{}, fmt.Errorf("invalid color %q", s)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return domain.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return domain.Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// BackgroundColor returns the parsed export background.
func (e ExportConfig) BackgroundColor() domain.Color {
	c, err := ParseColor(e.Background)
	if err != nil {
		c, _ = ParseColor(Defaults().Export.Background)
	}
	return c
}
