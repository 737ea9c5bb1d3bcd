package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/xsh/errors"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are searched in order in every directory.
var configNames = []string{
	"xsh.yml",
	"xsh.yaml",
	".xsh.yml",
	".xsh.yaml",
	"xsh.toml",
	".xsh.toml",
}

// Load reads and parses a single configuration file. The format is chosen
// by extension: .toml is TOML, everything else YAML.
func Load(path string) (*Config, error) {
	cfg, err := loadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault finds and loads the configuration starting from the current
// directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}
	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the given directory
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger loads configuration with hierarchical merging:
// 1. Global config ($XDG_CONFIG_HOME/xsh/xsh.yml) - base layer
// 2. Project config (xsh.yml found upward from startDir) - overrides global
// 3. Local override (xsh.override.yml next to the project config) - overrides all
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	projectPath, err := FindConfigFile(startDir)
	if err != nil {
		return nil, err
	}

	var finalConfig *Config

	globalPath := getXDGConfigPath()
	if globalPath != "" && globalPath != projectPath {
		if _, err := os.Stat(globalPath); err == nil {
			logger.WithField("path", globalPath).Debug("Loading global configuration")
			globalConfig, err := loadRaw(globalPath)
			if err != nil {
				logger.WithError(err).Warn("Failed to load global configuration, continuing without it")
			} else {
				finalConfig = globalConfig
			}
		}
	}

	logger.WithField("path", projectPath).Debug("Loading project configuration")
	projectConfig, err := loadRaw(projectPath)
	if err != nil {
		return nil, err
	}
	if finalConfig == nil {
		finalConfig = projectConfig
	} else {
		finalConfig = mergeConfigs(finalConfig, projectConfig)
	}

	finalConfig, err = applyOverrides(finalConfig, filepath.Dir(projectPath), logger)
	if err != nil {
		return nil, err
	}

	finalConfig.SetDefaults()
	if err := finalConfig.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded and validated successfully")
	return finalConfig, nil
}

// LoadFromBytes parses YAML configuration from a byte array.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parse(data, formatYAML)
	if err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOMLFromBytes parses TOML configuration from a byte array.
func LoadTOMLFromBytes(data []byte) (*Config, error) {
	cfg, err := parse(data, formatTOML)
	if err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return formatTOML
	}
	return formatYAML
}

// loadRaw reads one file without defaults or semantic validation.
func loadRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	cfg, err := parse(data, formatOf(path))
	if err != nil {
		if ge, ok := err.(*errors.GroveError); ok {
			return nil, ge.WithDetail("path", path)
		}
		return nil, err
	}
	cfg.source = path
	return cfg, nil
}

// parse expands environment variables, validates the document against the
// embedded schema and decodes it.
func parse(data []byte, f format) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	var raw map[string]interface{}
	var cfg Config
	switch f {
	case formatTOML:
		if err := toml.Unmarshal(expanded, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
		if err := toml.Unmarshal(expanded, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
		cfg.Extensions = extensionsOf(raw)
	default:
		if err := yaml.Unmarshal(expanded, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
		}
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
		}
	}

	if raw == nil {
		raw = map[string]interface{}{}
	}
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create validator")
	}
	if err := validator.Validate(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "schema validation failed")
	}
	return &cfg, nil
}

// extensionsOf returns the top-level keys that are not part of Config.
func extensionsOf(raw map[string]interface{}) map[string]interface{} {
	ext := make(map[string]interface{})
	for key, value := range raw {
		switch key {
		case "version", "defaults", "env":
			continue
		}
		ext[key] = value
	}
	return ext
}

// FindConfigFile searches for xsh configuration files with the following precedence:
// 1. Current directory up to filesystem root
// 2. XDG config directory (~/.config/xsh/xsh.yml)
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if xdgConfigPath := getXDGConfigPath(); xdgConfigPath != "" {
		if info, err := os.Stat(xdgConfigPath); err == nil && !info.IsDir() {
			return xdgConfigPath, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// getXDGConfigPath returns the XDG config path for xsh
func getXDGConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "xsh", "xsh.yml")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "xsh", "xsh.yml")
	}
	return ""
}
