// Package config loads pipinstall settings.
//
// Values come from built-in defaults, an optional TOML file and
// PIPINSTALL_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/stuartofmt/pipInstall/internal/logging"
	"github.com/stuartofmt/pipInstall/internal/manifest"
	"github.com/stuartofmt/pipInstall/internal/pyenv"
)

// EnvPrefix prefixes environment overrides, e.g. PIPINSTALL_PYTHON.
const EnvPrefix = "PIPINSTALL"

// HistoryOff disables the run history.
const HistoryOff = "off"

// DefaultHistoryName is the history database created inside the venv.
const DefaultHistoryName = "pipinstall-history.db"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting.
type Config struct {
	Python             string        `json:"python" mapstructure:"python"`
	VenvFolder         string        `json:"venv_folder" mapstructure:"venv_folder"`
	ManifestKey        string        `json:"manifest_key" mapstructure:"manifest_key"`
	NameKey            string        `json:"name_key" mapstructure:"name_key"`
	RequirementsDir    string        `json:"requirements_dir" mapstructure:"requirements_dir"`
	RequirementsExts   []string      `json:"requirements_exts" mapstructure:"requirements_exts"`
	LogName            string        `json:"log_name" mapstructure:"log_name"`
	HistoryDB          string        `json:"history_db" mapstructure:"history_db"`
	CommandTimeout     time.Duration `json:"command_timeout" mapstructure:"command_timeout"`
	ClearVenv          bool          `json:"clear_venv" mapstructure:"clear_venv"`
	UpgradeDeps        bool          `json:"upgrade_deps" mapstructure:"upgrade_deps"`
	SystemSitePackages bool          `json:"system_site_packages" mapstructure:"system_site_packages"`
}

// Default returns the built-in configuration.
func Default() Config {
	env := pyenv.DefaultOptions()
	m := manifest.DefaultOptions()
	return Config{
		Python:             env.Python,
		VenvFolder:         env.VenvFolder,
		ManifestKey:        m.Key,
		NameKey:            m.NameKey,
		RequirementsDir:    m.RequirementsDir,
		RequirementsExts:   m.Extensions,
		LogName:            logging.DefaultLogName,
		HistoryDB:          "",
		CommandTimeout:     0,
		ClearVenv:          env.Clear,
		UpgradeDeps:        env.UpgradeDeps,
		SystemSitePackages: env.SystemSitePackages,
	}
}

// Load builds the configuration. path names an optional TOML file; an
// empty path skips the file, a path that does not exist is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("python", defaults.Python)
	v.SetDefault("venv_folder", defaults.VenvFolder)
	v.SetDefault("manifest_key", defaults.ManifestKey)
	v.SetDefault("name_key", defaults.NameKey)
	v.SetDefault("requirements_dir", defaults.RequirementsDir)
	v.SetDefault("requirements_exts", defaults.RequirementsExts)
	v.SetDefault("log_name", defaults.LogName)
	v.SetDefault("history_db", defaults.HistoryDB)
	v.SetDefault("command_timeout", defaults.CommandTimeout)
	v.SetDefault("clear_venv", defaults.ClearVenv)
	v.SetDefault("upgrade_deps", defaults.UpgradeDeps)
	v.SetDefault("system_site_packages", defaults.SystemSitePackages)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no run could use.
func (c Config) Validate() error {
	required := []struct{ key, value string }{
		{"python", c.Python},
		{"venv_folder", c.VenvFolder},
		{"manifest_key", c.ManifestKey},
		{"log_name", c.LogName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalid, r.key)
		}
	}
	if filepath.IsAbs(c.VenvFolder) {
		return fmt.Errorf("%w: venv_folder must be relative to the plugin directory", ErrInvalid)
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("%w: command_timeout must not be negative", ErrInvalid)
	}
	return nil
}

// EnvOptions returns the venv options for this configuration.
func (c Config) EnvOptions() pyenv.Options {
	return pyenv.Options{
		Python:             c.Python,
		VenvFolder:         c.VenvFolder,
		Clear:              c.ClearVenv,
		SystemSitePackages: c.SystemSitePackages,
		UpgradeDeps:        c.UpgradeDeps,
	}
}

// ManifestOptions returns the manifest keys and requirement locations.
func (c Config) ManifestOptions() manifest.Options {
	return manifest.Options{
		Key:             c.ManifestKey,
		NameKey:         c.NameKey,
		RequirementsDir: c.RequirementsDir,
		Extensions:      c.RequirementsExts,
	}
}

// HistoryPath returns the history database for a venv, or false when the
// history is disabled.
func (c Config) HistoryPath(venvRoot string) (string, bool) {
	switch {
	case strings.EqualFold(c.HistoryDB, HistoryOff):
		return "", false
	case c.HistoryDB == "":
		return filepath.Join(venvRoot, DefaultHistoryName), true
	default:
		return c.HistoryDB, true
	}
}

// tomlView is the TOML rendering of Config. Durations print as text.
type tomlView struct {
	Python             string   `toml:"python"`
	VenvFolder         string   `toml:"venv_folder"`
	ManifestKey        string   `toml:"manifest_key"`
	NameKey            string   `toml:"name_key"`
	RequirementsDir    string   `toml:"requirements_dir"`
	RequirementsExts   []string `toml:"requirements_exts"`
	LogName            string   `toml:"log_name"`
	HistoryDB          string   `toml:"history_db"`
	CommandTimeout     string   `toml:"command_timeout"`
	ClearVenv          bool     `toml:"clear_venv"`
	UpgradeDeps        bool     `toml:"upgrade_deps"`
	SystemSitePackages bool     `toml:"system_site_packages"`
}

// MarshalTOML renders the configuration as a TOML document that Load
// accepts back.
func (c Config) MarshalTOML() ([]byte, error) {
	exts := c.RequirementsExts
	if exts == nil {
		exts = []string{}
	}
	return toml.Marshal(tomlView{
		Python:             c.Python,
		VenvFolder:         c.VenvFolder,
		ManifestKey:        c.ManifestKey,
		NameKey:            c.NameKey,
		RequirementsDir:    c.RequirementsDir,
		RequirementsExts:   exts,
		LogName:            c.LogName,
		HistoryDB:          c.HistoryDB,
		CommandTimeout:     c.CommandTimeout.String(),
		ClearVenv:          c.ClearVenv,
		UpgradeDeps:        c.UpgradeDeps,
		SystemSitePackages: c.SystemSitePackages,
	})
}
