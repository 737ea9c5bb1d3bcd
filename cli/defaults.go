package cli

import (
	"sort"

	"github.com/grovetools/xsh/command"
	"github.com/grovetools/xsh/config"
)

// ApplyDefaults returns c with the configured defaults and environment
// applied. Flags given on the command line are applied afterwards and win.
func ApplyDefaults(cfg *config.Config, c command.Command) (command.Command, error) {
	if cfg == nil {
		return c, nil
	}

	d := cfg.Defaults
	timeout, err := d.TimeoutDuration()
	if err != nil {
		return c, err
	}
	if timeout > 0 {
		c = c.WithTimeout(timeout)
	}
	if d.OutputLimit > 0 {
		c = c.WithOutputLimit(d.OutputLimit)
	}
	if !d.EchoEnabled() {
		c = c.Quiet()
	}
	if d.Output != "" {
		mode, err := command.ParseOutputMode(d.Output)
		if err != nil {
			return c, err
		}
		c = c.WithOutput(mode)
	}
	if dir := cfg.ResolveDir(); dir != "" {
		c = c.WithDir(dir)
	}

	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c = c.WithEnv(k, cfg.Env[k])
	}
	return c, nil
}
