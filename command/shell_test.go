package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShell(t *testing.T) {
	t.Setenv("XSH_SHELL_TEST", "present")

	sh, err := NewShell()
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, sh.Dir())

	value, ok := sh.EnvVar("XSH_SHELL_TEST")
	assert.True(t, ok)
	assert.Equal(t, "present", value)
}

func TestNewShellFrom(t *testing.T) {
	sh := NewShellFrom("/srv", []string{"A=1", "B=x=y", "malformed", "=hidden", "A=2"})

	env := sh.Environment()
	assert.Equal(t, 2, env.Len())
	a, _ := env.Get("A")
	assert.Equal(t, "2", a)
	b, _ := env.Get("B")
	assert.Equal(t, "x=y", b)
}

func TestShellDerivation(t *testing.T) {
	base := NewShellFrom("/srv", []string{"A=1"})

	child := base.WithDir("app").WithEnv("B", "2").WithoutEnv("A")
	assert.Equal(t, "/srv", base.Dir())
	assert.Equal(t, filepath.Join("/srv", "app"), child.Dir())

	_, ok := base.EnvVar("B")
	assert.False(t, ok)
	_, ok = child.EnvVar("A")
	assert.False(t, ok)
	v, ok := child.EnvVar("B")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestShellEnvironmentIsACopy(t *testing.T) {
	sh := NewShellFrom("/", []string{"A=1"})
	env := sh.Environment()
	env.Set("A", "mutated")

	v, _ := sh.EnvVar("A")
	assert.Equal(t, "1", v)
}

func TestShellZeroValue(t *testing.T) {
	var sh Shell
	_, ok := sh.EnvVar("PATH")
	assert.False(t, ok)
	assert.Equal(t, 0, sh.Environment().Len())
	assert.Equal(t, "/tmp", sh.WithDir("/tmp").Dir())
}

func TestMustCmdPanics(t *testing.T) {
	sh := NewShellFrom("/", nil)
	assert.Panics(t, func() { sh.MustCmd("{prog...}") })
}

func TestNilContextUsesProcess(t *testing.T) {
	c := NewArgv(nil, "true")
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, c.Dir())
	assert.NotEmpty(t, c.Environ())
}
