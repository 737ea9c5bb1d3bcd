package config

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var overrideNames = []string{
	"xsh.override.yml",
	"xsh.override.yaml",
	".xsh.override.yml",
	"xsh.override.toml",
}

// applyOverrides merges every override file found in dir over cfg.
func applyOverrides(cfg *Config, dir string, logger *logrus.Logger) (*Config, error) {
	for _, name := range overrideNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		logger.WithField("path", path).Debug("Loading local override configuration")
		override, err := loadRaw(path)
		if err != nil {
			return nil, err
		}
		cfg = mergeConfigs(cfg, override)
	}
	return cfg, nil
}

// mergeConfigs returns base with every field set in override applied on
// top. Env and extension maps are merged key by key.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}
	if override.source != "" {
		result.source = override.source
	}
	result.Defaults = mergeDefaults(base.Defaults, override.Defaults)

	if len(override.Env) > 0 {
		result.Env = make(map[string]string, len(base.Env)+len(override.Env))
		for k, v := range base.Env {
			result.Env[k] = v
		}
		for k, v := range override.Env {
			result.Env[k] = v
		}
	}

	if len(override.Extensions) > 0 {
		result.Extensions = make(map[string]interface{}, len(base.Extensions)+len(override.Extensions))
		for k, v := range base.Extensions {
			result.Extensions[k] = v
		}
		for k, v := range override.Extensions {
			result.Extensions[k] = v
		}
	}
	return &result
}

func mergeDefaults(base, override DefaultsConfig) DefaultsConfig {
	if override.Timeout != "" {
		base.Timeout = override.Timeout
	}
	if override.OutputLimit != 0 {
		base.OutputLimit = override.OutputLimit
	}
	if override.Echo != nil {
		base.Echo = override.Echo
	}
	if override.Output != "" {
		base.Output = override.Output
	}
	if override.Dir != "" {
		base.Dir = override.Dir
	}
	return base
}
