//go:build windows

package command

import (
	"os"
	"os/exec"
)

// configureProcess leaves the default cancellation in place, which calls
// Process.Kill.
func configureProcess(cmd *exec.Cmd, group bool) {}

func signalOf(state *os.ProcessState) string {
	return ""
}
