package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/grovetools/xsh/errors"
)

// Config is the xsh.yml / xsh.toml configuration.
type Config struct {
	Version string `yaml:"version" toml:"version" jsonschema:"description=Configuration version (e.g. '1.0')"`

	// Defaults are applied to every command the xsh CLI builds.
	Defaults DefaultsConfig `yaml:"defaults,omitempty" toml:"defaults,omitempty" jsonschema:"description=Defaults applied to every command"`

	// Env is merged over the inherited environment of every command.
	Env map[string]string `yaml:"env,omitempty" toml:"env,omitempty" jsonschema:"description=Environment variables set for every command"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`

	source string
}

// Source returns the path of the file the configuration was loaded from,
// empty for configurations parsed from bytes.
func (c *Config) Source() string {
	return c.source
}

// ResolveDir returns Defaults.Dir resolved against the directory of the
// configuration file.
func (c *Config) ResolveDir() string {
	dir := c.Defaults.Dir
	if dir == "" || filepath.IsAbs(dir) || c.source == "" {
		return dir
	}
	return filepath.Join(filepath.Dir(c.source), dir)
}

// DefaultsConfig holds command defaults.
type DefaultsConfig struct {
	// Timeout is a Go duration string such as "30s". Empty means no timeout.
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty" jsonschema:"description=Kill commands that run longer than this Go duration (e.g. '30s')"`
	// OutputLimit is the number of most recent bytes kept per captured stream.
	OutputLimit int `yaml:"output_limit,omitempty" toml:"output_limit,omitempty" jsonschema:"minimum=0,description=Bytes of captured output kept per stream"`
	// Echo controls whether commands are echoed before they run. Defaults to true.
	Echo *bool `yaml:"echo,omitempty" toml:"echo,omitempty" jsonschema:"description=Echo commands before running them"`
	// Output is one of capture, combined, inherit or ignore.
	Output string `yaml:"output,omitempty" toml:"output,omitempty" jsonschema:"enum=capture,enum=combined,enum=inherit,enum=ignore,description=How command output is handled"`
	// Dir is the working directory, relative to the directory of the config file.
	Dir string `yaml:"dir,omitempty" toml:"dir,omitempty" jsonschema:"description=Working directory for commands"`
}

var outputModes = map[string]bool{"capture": true, "combined": true, "inherit": true, "ignore": true}

// TimeoutDuration parses Timeout.
func (d DefaultsConfig) TimeoutDuration() (time.Duration, error) {
	if d.Timeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid defaults.timeout").
			WithDetail("timeout", d.Timeout)
	}
	if timeout < 0 {
		return 0, errors.New(errors.ErrCodeConfigValidation, "defaults.timeout must not be negative").
			WithDetail("timeout", d.Timeout)
	}
	return timeout, nil
}

// EchoEnabled reports whether commands should be echoed.
func (d DefaultsConfig) EchoEnabled() bool {
	return d.Echo == nil || *d.Echo
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
}

// Validate checks the semantics the schema cannot express.
func (c *Config) Validate() error {
	if _, err := c.Defaults.TimeoutDuration(); err != nil {
		return err
	}
	if c.Defaults.OutputLimit < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "defaults.output_limit must not be negative")
	}
	if c.Defaults.Output != "" && !outputModes[c.Defaults.Output] {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("unknown defaults.output %q", c.Defaults.Output))
	}
	for key := range c.Env {
		if key == "" {
			return errors.New(errors.ErrCodeConfigValidation, "env contains an empty variable name")
		}
	}
	return nil
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded xsh.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension '%s': %w", key, err)
	}
	return nil
}
