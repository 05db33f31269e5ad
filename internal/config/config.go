// SPDX-License-Identifier: EPL-2.0

// Package config loads audvoice settings from defaults, an optional config
// file and AUDVOICE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix namespaces environment overrides, e.g. AUDVOICE_SAMPLE_RATE.
const EnvPrefix = "AUDVOICE"

// Outputs lists the accepted output drivers.
var Outputs = []string{"oto", "null"}

// Config holds all runtime options.
type Config struct {
	SampleRate int    `mapstructure:"sample_rate"` // device frames per second
	Channels   int    `mapstructure:"channels"`
	MaxVoices  int    `mapstructure:"max_voices"` // simultaneous sounds per device
	Output     string `mapstructure:"output"`     // "oto" or "null"
	LogLevel   string `mapstructure:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SampleRate: 44100,
		Channels:   2,
		MaxVoices:  256,
		Output:     "oto",
		LogLevel:   "info",
	}
}

// New returns a viper instance carrying the defaults and environment
// binding. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	def := Default()
	v.SetDefault("sample_rate", def.SampleRate)
	v.SetDefault("channels", def.Channels)
	v.SetDefault("max_voices", def.MaxVoices)
	v.SetDefault("output", def.Output)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads path (when not empty) into v and decodes the result.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects values no device can run with.
func (c Config) Validate() error {
	if c.SampleRate < 1000 || c.SampleRate > 384000 {
		return fmt.Errorf("sample_rate %d: %w", c.SampleRate, ErrInvalid)
	}
	if c.Channels < 1 || c.Channels > 8 {
		return fmt.Errorf("channels %d: %w", c.Channels, ErrInvalid)
	}
	if c.MaxVoices < 1 {
		return fmt.Errorf("max_voices %d: %w", c.MaxVoices, ErrInvalid)
	}
	if !slices.Contains(Outputs, strings.ToLower(c.Output)) {
		return fmt.Errorf("output %q: %w", c.Output, ErrInvalid)
	}

	return nil
}
