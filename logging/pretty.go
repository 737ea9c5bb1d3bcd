package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PrettyLogger provides pretty formatted console output
type PrettyLogger struct {
	writer io.Writer
	styles PrettyStyles
}

// PrettyStyles contains lipgloss styles for different log types
type PrettyStyles struct {
	Prompt  lipgloss.Style
	Command lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Path    lipgloss.Style
	Code    lipgloss.Style
}

// NewPrettyStyles returns the default styling bound to a renderer. The
// renderer decides whether colors are emitted, so output to a pipe or a
// buffer stays plain.
func NewPrettyStyles(r *lipgloss.Renderer) PrettyStyles {
	return PrettyStyles{
		Prompt:  r.NewStyle().Foreground(lipgloss.Color("8")),               // Gray
		Command: r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),   // Blue
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),    // Red
		Key:     r.NewStyle().Foreground(lipgloss.Color("8")),               // Gray
		Value:   r.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),   // Cyan
		Path:    r.NewStyle().Foreground(lipgloss.Color("6")).Italic(true),  // Dark cyan
		Code:    r.NewStyle().Foreground(lipgloss.Color("5")),               // Magenta
	}
}

// NewPrettyLogger creates a pretty logger writing to stderr.
func NewPrettyLogger() *PrettyLogger {
	return NewPrettyLoggerFor(os.Stderr)
}

// NewPrettyLoggerFor creates a pretty logger writing to w, styled according
// to what w supports.
func NewPrettyLoggerFor(w io.Writer) *PrettyLogger {
	return &PrettyLogger{
		writer: w,
		styles: NewPrettyStyles(lipgloss.NewRenderer(w)),
	}
}

// Echo prints a command line the way a shell trace would: "$ cmd".
func (p *PrettyLogger) Echo(line string) {
	fmt.Fprintf(p.writer, "%s %s\n", p.styles.Prompt.Render("$"), p.styles.Command.Render(line))
}

// ErrorPretty logs an error with pretty formatting
func (p *PrettyLogger) ErrorPretty(message string, err error) {
	fmt.Fprintf(p.writer, "%s %s",
		p.styles.Error.Render("✗"),
		p.styles.Error.Render(message))
	if err != nil {
		fmt.Fprintf(p.writer, ": %s", err.Error())
	}
	fmt.Fprintln(p.writer)
}

// Field logs a key-value pair with pretty formatting
func (p *PrettyLogger) Field(key string, value interface{}) {
	fmt.Fprintf(p.writer, "%s: %s\n",
		p.styles.Key.Render(key),
		p.styles.Value.Render(fmt.Sprint(value)))
}

// Path logs a file path with special formatting
func (p *PrettyLogger) Path(label string, path string) {
	fmt.Fprintf(p.writer, "%s: %s\n",
		p.styles.Key.Render(label),
		p.styles.Path.Render(path))
}

// Code logs code or command output, indented.
func (p *PrettyLogger) Code(content string) {
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.writer, "  %s\n", p.styles.Code.Render(line))
	}
}

// Echo writes "$ line" to w.
func Echo(w io.Writer, line string) {
	NewPrettyLoggerFor(w).Echo(line)
}
