// Package config loads and validates mergeassist configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/mergeassist/core/classify"
	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/estimate"
	"github.com/emenda-labs/mergeassist/core/guidance"
	"github.com/emenda-labs/mergeassist/drivers/appian/objects"
)

const (
	// FileName is the config file base name searched for when no path is given.
	FileName = "mergeassist"
	// EnvPrefix prefixes environment overrides, e.g. MERGEASSIST_COMPLEXITY_LOWMAX.
	EnvPrefix = "MERGEASSIST"
)

// Config is the full mergeassist configuration.
type Config struct {
	Complexity  estimate.Thresholds `json:"complexity" yaml:"complexity" mapstructure:"complexity"`
	Classify    ClassifyConfig      `json:"classify" yaml:"classify" mapstructure:"classify"`
	Guidance    GuidanceConfig      `json:"guidance" yaml:"guidance" mapstructure:"guidance"`
	Workers     int                 `json:"workers" yaml:"workers" mapstructure:"workers"`
	ObjectTypes []objects.TypeSpec  `json:"objectTypes" yaml:"objectTypes" mapstructure:"objectTypes"`
	Summarizer  SummarizerConfig    `json:"summarizer" yaml:"summarizer" mapstructure:"summarizer"`
	Logging     LoggingConfig       `json:"logging" yaml:"logging" mapstructure:"logging"`

	// Source is the config file that was read, empty when only defaults and env applied.
	Source string `json:"-" yaml:"-" mapstructure:"-"`
}

// ClassifyConfig holds classifier policy.
type ClassifyConfig struct {
	Convergence classify.ConvergencePolicy `json:"convergence" yaml:"convergence" mapstructure:"convergence"`
}

// GuidanceConfig holds merge guidance policy.
type GuidanceConfig struct {
	Cosmetic guidance.CosmeticPolicy `json:"cosmetic" yaml:"cosmetic" mapstructure:"cosmetic"`
}

// SummarizerConfig configures the optional change summarizer endpoint chain.
type SummarizerConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Endpoints      []string `json:"endpoints" yaml:"endpoints" mapstructure:"endpoints"`
	TimeoutSeconds int      `json:"timeoutSeconds" yaml:"timeoutSeconds" mapstructure:"timeoutSeconds"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the shipped configuration.
func DefaultConfig() *Config {
	return &Config{
		Complexity:  estimate.DefaultThresholds(),
		Classify:    ClassifyConfig{Convergence: classify.ConvergeNoConflict},
		Guidance:    GuidanceConfig{Cosmetic: guidance.CosmeticWhitespace},
		Workers:     0,
		ObjectTypes: []objects.TypeSpec{},
		Summarizer: SummarizerConfig{
			Enabled:        false,
			Endpoints:      []string{},
			TimeoutSeconds: 30,
		},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// Load reads configuration from path, or from mergeassist.yaml in the working
// directory or $HOME/.mergeassist when path is empty. A missing search-path
// file yields the defaults; a missing explicit file is an error. Environment
// variables override file values. The result is not validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mergeassist"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("complexity.lowMax", d.Complexity.LowMax)
	v.SetDefault("complexity.mediumMax", d.Complexity.MediumMax)
	v.SetDefault("complexity.minutesLow", d.Complexity.MinutesLow)
	v.SetDefault("complexity.minutesMedium", d.Complexity.MinutesMedium)
	v.SetDefault("complexity.minutesHigh", d.Complexity.MinutesHigh)
	v.SetDefault("complexity.alwaysLow", []string{})
	v.SetDefault("classify.convergence", string(d.Classify.Convergence))
	v.SetDefault("guidance.cosmetic", string(d.Guidance.Cosmetic))
	v.SetDefault("workers", d.Workers)
	v.SetDefault("objectTypes", []map[string]any{})
	v.SetDefault("summarizer.enabled", d.Summarizer.Enabled)
	v.SetDefault("summarizer.endpoints", []string{})
	v.SetDefault("summarizer.timeoutSeconds", d.Summarizer.TimeoutSeconds)
	v.SetDefault("logging.level", d.Logging.Level)
}

var logLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "silent": true, "off": true,
}

// Validate checks every setting and returns a *errors.ConfigurationError
// listing all problems, or nil.
func (c *Config) Validate() error {
	ce := &mergeerr.ConfigurationError{}

	c.Complexity.Check(ce)

	if !c.Classify.Convergence.Valid() {
		ce.Add("classify.convergence %q must be %q or %q",
			c.Classify.Convergence, classify.ConvergeNoConflict, classify.ConvergeConflict)
	}
	if !c.Guidance.Cosmetic.Valid() {
		ce.Add("guidance.cosmetic %q must be %q or %q",
			c.Guidance.Cosmetic, guidance.CosmeticWhitespace, guidance.CosmeticNone)
	}
	if c.Workers < 0 {
		ce.Add("workers (%d) must not be negative", c.Workers)
	}

	seen := make(map[string]bool)
	for i, spec := range c.ObjectTypes {
		if spec.Name == "" {
			ce.Add("objectTypes[%d].name is empty", i)
		} else if seen[spec.Name] {
			ce.Add("objectTypes[%d].name %q is declared twice", i, spec.Name)
		}
		seen[spec.Name] = true
		if !spec.Capability.Valid() {
			ce.Add("objectTypes[%d].capability %q must be one of line, graph, always_low", i, spec.Capability)
		}
	}

	if c.Summarizer.Enabled {
		if len(c.Summarizer.Endpoints) == 0 {
			ce.Add("summarizer.endpoints must not be empty when the summarizer is enabled")
		}
		for i, e := range c.Summarizer.Endpoints {
			u, err := url.Parse(e)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				ce.Add("summarizer.endpoints[%d] %q is not an http(s) URL", i, e)
			}
		}
		if c.Summarizer.TimeoutSeconds <= 0 {
			ce.Add("summarizer.timeoutSeconds (%d) must be positive", c.Summarizer.TimeoutSeconds)
		}
	}

	if !logLevels[strings.ToLower(c.Logging.Level)] {
		ce.Add("logging.level %q is not a known level", c.Logging.Level)
	}

	return ce.OrNil()
}

// Catalogue returns the built-in object type catalogue extended with the configured types.
func (c *Config) Catalogue() *objects.Catalogue {
	return objects.NewCatalogue(c.ObjectTypes...)
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
