// Package config loads the optional shell configuration from
// ~/.config/rush/config.yaml.
package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// ConfigName is the configuration file name under the rush config
// directory.
const ConfigName = "config.yaml"

// Config is the user-tunable shell configuration.
type Config struct {
	// Prompt is the PS1-style prompt template.
	Prompt string `json:"prompt"`
	// HistorySize bounds the in-memory history list.
	HistorySize int `json:"history_size" validate:"gte=0"`
	// AliasFile overrides the default alias file location.
	AliasFile string `json:"alias_file"`
}

// Dir returns the rush configuration directory for a home directory.
func Dir(home string) string {
	return filepath.Join(home, ".config", "rush")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Prompt:      `\u@\h:\w\$ `,
		HistorySize: 1000,
	}
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return validate.Struct(c)
}

// Load reads the configuration under home on fs. A missing file yields the
// defaults; a malformed or invalid file is an error.
func Load(fs afero.Fs, home string) (*Config, error) {
	path := filepath.Join(Dir(home), ConfigName)

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return Default(), nil
	}

	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	out := Default()
	if err := yaml.UnmarshalStrict(contents, out); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return out, nil
}
