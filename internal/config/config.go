// Package config loads kwtag settings from the config file, KWTAG_*
// environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/insight"
	"github.com/Veraticus/kwtag/internal/keyword"
	"github.com/Veraticus/kwtag/internal/packform"
)

// Config is the typed view of the configuration file, environment and
// flags.
type Config struct {
	Profiles map[string]keyword.Profile `mapstructure:"profiles"`
	Logging  LoggingConfig              `mapstructure:"logging"`
	Database string                     `mapstructure:"database"`
	Tag      TagConfig                  `mapstructure:"tag"`
	PackForm PackFormConfig             `mapstructure:"packform"`
	Insight  InsightConfig              `mapstructure:"insight"`
	Progress ProgressConfig             `mapstructure:"progress"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TagConfig configures the keyword tagger.
type TagConfig struct {
	Profile string `mapstructure:"profile"`
	Sheet   string `mapstructure:"sheet"`
	OutDir  string `mapstructure:"out_dir"`
	Label   string `mapstructure:"label_column"`
}

// PackFormConfig configures the pack-form labeler.
type PackFormConfig struct {
	PackFormColumn string `mapstructure:"pack_form_column"`
	ProductColumn  string `mapstructure:"product_column"`
	Sheet          string `mapstructure:"sheet"`
}

// InsightConfig configures the search-insight tagger.
type InsightConfig struct {
	Columns insight.Columns      `mapstructure:"columns"`
	Sheet   string               `mapstructure:"sheet"`
	Params  []insight.ParamGroup `mapstructure:"params"`
}

// ProgressConfig controls progress reporting.
type ProgressConfig struct {
	Every   int  `mapstructure:"every"`
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database", "~/.local/share/kwtag/history.db")

	v.SetDefault("tag.profile", "oneplus")
	v.SetDefault("tag.sheet", "Tagged")
	v.SetDefault("tag.label_column", "词性")

	v.SetDefault("packform.pack_form_column", packform.ColumnPackForm)
	v.SetDefault("packform.product_column", packform.ColumnProduct)
	v.SetDefault("packform.sheet", "Processed")

	cols := insight.DefaultColumns()
	v.SetDefault("insight.columns.term", cols.Term)
	v.SetDefault("insight.columns.volume", cols.Volume)
	v.SetDefault("insight.columns.brand", cols.Brand)
	v.SetDefault("insight.sheet", "源数据")

	v.SetDefault("progress.enabled", true)
	v.SetDefault("progress.every", 100)
}

// Load decodes v into a Config. Profiles from the configuration are merged
// over the built-in ones by name; a partial profile inherits the missing
// fields of the built-in profile with the same name.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	profiles := keyword.Builtin()
	for name, p := range cfg.Profiles {
		profiles[name] = mergeProfile(profiles[name], p, name)
	}
	cfg.Profiles = profiles
	cfg.Database = ExpandPath(cfg.Database)
	cfg.Tag.OutDir = ExpandPath(cfg.Tag.OutDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ExpandPath resolves a leading ~ to the home directory and then expands
// $VAR references. The path is left as is when the home directory is
// unknown.
func ExpandPath(path string) string {
	if rest, ok := strings.CutPrefix(path, "~"); ok && (rest == "" || rest[0] == '/') {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, rest)
		}
	}
	return os.ExpandEnv(path)
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	if c.Progress.Every < 0 {
		return fmt.Errorf("%w: progress.every must not be negative", common.ErrInvalidConfig)
	}
	if c.Database == "" {
		return fmt.Errorf("%w: database path is empty", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	for _, name := range c.ProfileNames() {
		if err := c.Profiles[name].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Profile returns a profile by name.
func (c *Config) Profile(name string) (keyword.Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return keyword.Profile{}, fmt.Errorf("%w: unknown profile %q (available: %v)",
			common.ErrInvalidConfig, name, c.ProfileNames())
	}
	return p, nil
}

// ProfileNames returns the configured profile names, sorted.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func mergeProfile(base, override keyword.Profile, name string) keyword.Profile {
	out := base
	out.Name = name
	if override.QueryColumn != "" {
		out.QueryColumn = override.QueryColumn
	}
	if override.CampaignColumn != "" {
		out.CampaignColumn = override.CampaignColumn
	}
	if override.QueryPosition != 0 {
		out.QueryPosition = override.QueryPosition
	}
	if override.CampaignPosition != 0 {
		out.CampaignPosition = override.CampaignPosition
	}
	if override.Fallback != "" {
		out.Fallback = override.Fallback
	}
	if len(override.BrandTokens) > 0 {
		out.BrandTokens = override.BrandTokens
	}
	if override.Competitors {
		out.Competitors = true
	}
	return out
}
