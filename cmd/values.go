package cmd

import (
	"fmt"

	"github.com/kballard/go-shellquote"

	"github.com/grovetools/xsh/command"
	xsherrors "github.com/grovetools/xsh/errors"
)

// bindValues turns command-line strings into template values: a value for a
// {name...} marker is split with POSIX shell word rules, any other value is
// one argument. Surplus or missing values are left for Render to report.
func bindValues(t command.Template, raw []string) ([]any, error) {
	markers := t.Markers()
	values := make([]any, len(raw))
	for i, s := range raw {
		if i < len(markers) && markers[i].Splat {
			words, err := shellquote.Split(s)
			if err != nil {
				return nil, xsherrors.InvalidInput(markers[i].Name, fmt.Sprintf("cannot split %q: %v", s, err))
			}
			values[i] = command.Seq(words...)
			continue
		}
		values[i] = command.Scalar(s)
	}
	return values, nil
}
