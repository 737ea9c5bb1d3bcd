package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/grovetools/xsh/command"
	xsherrors "github.com/grovetools/xsh/errors"
	"github.com/grovetools/xsh/logging"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		out:     os.Stderr,
	}
}

// WithOutput redirects the handler's messages.
func (h *ErrorHandler) WithOutput(w io.Writer) *ErrorHandler {
	h.out = w
	return h
}

// Handle prints err with a hint chosen by its error code and returns it.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	pretty := logging.NewPrettyLoggerFor(h.out)
	pretty.ErrorPretty("Error", err)

	var cmdErr *command.Error
	errors.As(err, &cmdErr)

	switch xsherrors.GetCode(err) {
	case xsherrors.ErrCodeConfigNotFound:
		fmt.Fprintln(h.out, "No xsh.yml found. Pass --config or create one in the project root.")
	case xsherrors.ErrCodeConfigInvalid, xsherrors.ErrCodeConfigValidation:
		fmt.Fprintln(h.out, "Check the configuration against 'xsh schema'.")
	case xsherrors.ErrCodeTemplateInvalid:
		fmt.Fprintln(h.out, "Markers are {name} for one argument and {name...} for a list; every marker needs exactly one value.")
	case xsherrors.ErrCodeCommandNotFound:
		if cmdErr != nil {
			fmt.Fprintf(h.out, "'%s' is not on PATH.\n", cmdErr.Program)
		}
	case xsherrors.ErrCodeWorkingDir:
		if cmdErr != nil {
			pretty.Path("Working directory", cmdErr.Dir)
		}
	case xsherrors.ErrCodeCommandTimeout:
		if cmdErr != nil {
			fmt.Fprintf(h.out, "Raise --timeout (currently %s) if the command needs longer.\n", cmdErr.Timeout)
		}
	}

	if h.Verbose {
		var groveErr *xsherrors.GroveError
		if errors.As(err, &groveErr) {
			fmt.Fprintf(h.out, "\nError details:\n%s\n", groveErr.ToJSON())
		}
		if cmdErr != nil {
			if errno, ok := cmdErr.Errno(); ok {
				pretty.Field("errno", fmt.Sprintf("%d (%s)", int(errno), errno))
			}
		}
	}
	return err
}

// ExitCode maps err to a process exit code: the child's code for failed
// commands, 124 for timeouts, 127 for missing programs and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cmdErr *command.Error
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case xsherrors.ErrCodeCommandFailed:
			if cmdErr.Status.Code > 0 {
				return cmdErr.Status.Code
			}
		case xsherrors.ErrCodeCommandTimeout:
			return 124
		case xsherrors.ErrCodeCommandNotFound:
			return 127
		case xsherrors.ErrCodePermissionDenied:
			return 126
		}
	}
	return 1
}
