package command

import (
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	xsherrors "github.com/grovetools/xsh/errors"
)

// Context supplies the working directory and environment a Command starts
// from. It is read once, when the Command is built; later changes to the
// Context do not affect commands built from it.
type Context interface {
	// Dir returns the working directory.
	Dir() string
	// Environment returns the environment as an ordered map.
	Environment() *orderedmap.OrderedMap[string, string]
}

// Shell is an immutable Context: a logical working directory and an
// environment independent of the process-wide os.Getwd and os.Getenv.
//
// Derive new shells with WithDir and WithEnv instead of changing global
// state, so concurrent commands never race on a shared cwd or environment:
//
//	sh, _ := command.NewShell()
//	build := sh.WithDir("./target").WithEnv("GOOS", "linux")
//	out, err := build.MustCmd("go env GOOS").Read()
type Shell struct {
	dir string
	env *orderedmap.OrderedMap[string, string]
}

// NewShell captures the current process working directory and environment.
func NewShell() (Shell, error) {
	dir, err := os.Getwd()
	if err != nil {
		return Shell{}, xsherrors.Wrap(err, xsherrors.ErrCodeWorkingDir, "failed to get current directory")
	}
	return NewShellFrom(dir, os.Environ()), nil
}

// NewShellFrom builds a shell from an explicit directory and a list of
// KEY=VALUE pairs, as returned by os.Environ.
func NewShellFrom(dir string, environ []string) Shell {
	env := orderedmap.New[string, string](len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env.Set(key, value)
	}
	return Shell{dir: dir, env: env}
}

// Dir returns the working directory of the shell.
func (s Shell) Dir() string {
	return s.dir
}

// Environment returns a copy of the shell environment.
func (s Shell) Environment() *orderedmap.OrderedMap[string, string] {
	return copyEnv(s.env)
}

// EnvVar returns the value of key in the shell environment.
func (s Shell) EnvVar(key string) (string, bool) {
	if s.env == nil {
		return "", false
	}
	return s.env.Get(key)
}

// WithDir returns a shell whose working directory is path, resolved against
// the current shell directory when relative.
func (s Shell) WithDir(path string) Shell {
	s.dir = joinDir(s.dir, path)
	return s
}

// WithEnv returns a shell with key set to value.
func (s Shell) WithEnv(key, value string) Shell {
	env := copyEnv(s.env)
	env.Set(key, value)
	s.env = env
	return s
}

// WithoutEnv returns a shell without key.
func (s Shell) WithoutEnv(key string) Shell {
	env := copyEnv(s.env)
	env.Delete(key)
	s.env = env
	return s
}

// Cmd parses template, renders values into it and returns a Command bound to
// this shell.
func (s Shell) Cmd(template string, values ...any) (Command, error) {
	return New(s, template, values...)
}

// MustCmd is like Cmd but panics on a template error.
func (s Shell) MustCmd(template string, values ...any) Command {
	c, err := s.Cmd(template, values...)
	if err != nil {
		panic(err)
	}
	return c
}

func copyEnv(env *orderedmap.OrderedMap[string, string]) *orderedmap.OrderedMap[string, string] {
	if env == nil {
		return orderedmap.New[string, string]()
	}
	out := orderedmap.New[string, string](env.Len())
	for pair := env.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

func joinDir(base, path string) string {
	if path == "" {
		return base
	}
	if filepath.IsAbs(path) || base == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
