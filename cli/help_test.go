package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestParseChoices(t *testing.T) {
	tests := []struct {
		usage   string
		desc    string
		choices []string
	}{
		{"Output handling: capture, combined, inherit, or ignore", "Output handling:", []string{"capture", "combined", "inherit", "ignore"}},
		{"Mode: a, b, c (default a)", "Mode: (default a)", []string{"a", "b", "c"}},
		{"Pick: one, or two", "Pick: one, or two", nil},
		{"No list here", "No list here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.usage, func(t *testing.T) {
			desc, choices := parseChoices(tt.usage)
			assert.Equal(t, tt.desc, desc)
			assert.Equal(t, tt.choices, choices)
		})
	}
}

func TestWrapText(t *testing.T) {
	text := "one two three four five six"
	wrapped := wrapText(text, 10)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 10)
	}
	assert.Equal(t, text, strings.Join(strings.Fields(wrapped), " "))

	assert.Equal(t, "keep\nbreaks", wrapText("keep\nbreaks", 40))
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("xsh", "Run commands")
	root.AddCommand(&cobra.Command{Use: "run", Short: "Run a template", Run: func(*cobra.Command, []string) {}})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})
	assert.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "run")
	assert.Contains(t, out.String(), "--verbose")
}
