package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/xsh/errors"
)

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
defaults:
  timeout: 30s
  output_limit: 4096
  echo: false
  output: combined
env:
  CI: "1"
`))
	require.NoError(t, err)

	assert.Equal(t, "1.0", cfg.Version)
	timeout, err := cfg.Defaults.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
	assert.Equal(t, 4096, cfg.Defaults.OutputLimit)
	assert.False(t, cfg.Defaults.EchoEnabled())
	assert.Equal(t, "combined", cfg.Defaults.Output)
	assert.Equal(t, map[string]string{"CI": "1"}, cfg.Env)
}

func TestLoadTOMLFromBytes(t *testing.T) {
	cfg, err := LoadTOMLFromBytes([]byte(`
version = "1.0"

[defaults]
timeout = "5s"
output = "ignore"

[env]
GOFLAGS = "-mod=mod"

[logging]
level = "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, "5s", cfg.Defaults.Timeout)
	assert.Equal(t, "ignore", cfg.Defaults.Output)
	assert.Equal(t, "-mod=mod", cfg.Env["GOFLAGS"])

	var logCfg struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
}

// TestExtensions verifies that unknown top-level keys are kept and decodable.
func TestExtensions(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
version: "1.0"
monitoring:
  enabled: true
  interval: 30
`))
	require.NoError(t, err)

	_, ok := cfg.Extensions["monitoring"]
	require.True(t, ok, "expected 'monitoring' extension to be present")

	type MonitoringConfig struct {
		Enabled  bool `yaml:"enabled"`
		Interval int  `yaml:"interval"`
	}
	var monCfg MonitoringConfig
	require.NoError(t, cfg.UnmarshalExtension("monitoring", &monCfg))
	assert.True(t, monCfg.Enabled)
	assert.Equal(t, 30, monCfg.Interval)

	var missing MonitoringConfig
	require.NoError(t, cfg.UnmarshalExtension("absent", &missing))
	assert.Equal(t, MonitoringConfig{}, missing)
}

func TestLoadFromBytesErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code errors.ErrorCode
	}{
		{"malformed yaml", "defaults: [", errors.ErrCodeConfigInvalid},
		{"schema violation", "defaults:\n  output: tee\n", errors.ErrCodeConfigValidation},
		{"unknown defaults key", "defaults:\n  retries: 3\n", errors.ErrCodeConfigValidation},
		{"bad duration", "defaults:\n  timeout: soon\n", errors.ErrCodeConfigValidation},
		{"negative duration", "defaults:\n  timeout: -1s\n", errors.ErrCodeConfigValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("XSH_TEST_VALUE", "from-env")

	tests := []struct {
		in   string
		want string
	}{
		{"${XSH_TEST_VALUE}", "from-env"},
		{"${XSH_TEST_UNSET:-fallback}", "fallback"},
		{"${XSH_TEST_VALUE:-fallback}", "from-env"},
		{"${XSH_TEST_UNSET}", ""},
		{"plain $XSH_TEST_VALUE", "plain $XSH_TEST_VALUE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnvVars(tt.in), tt.in)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	_, err := FindConfigFile(nested)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))

	path := filepath.Join(root, "xsh.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = \"1.0\"\n"), 0o644))

	found, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	yamlPath := filepath.Join(root, "a", "xsh.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("version: \"1.0\"\n"), 0o644))

	found, err = FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, yamlPath, found)
}

func TestLoadFromLayers(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "xsh"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "xsh", "xsh.yml"), []byte(`
defaults:
  timeout: 1m
  output_limit: 1024
env:
  GLOBAL: "1"
  SHARED: global
`), 0o644))

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "xsh.yml"), []byte(`
defaults:
  timeout: 10s
  dir: build
env:
  SHARED: project
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(project, "xsh.override.yml"), []byte(`
defaults:
  echo: false
`), 0o644))

	cfg, err := LoadFrom(project)
	require.NoError(t, err)

	assert.Equal(t, "10s", cfg.Defaults.Timeout)
	assert.Equal(t, 1024, cfg.Defaults.OutputLimit)
	assert.False(t, cfg.Defaults.EchoEnabled())
	assert.Equal(t, map[string]string{"GLOBAL": "1", "SHARED": "project"}, cfg.Env)
	assert.Equal(t, filepath.Join(project, "build"), cfg.ResolveDir())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "xsh.yml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))
}
