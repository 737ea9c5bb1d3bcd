package command

import (
	"strings"
	"unicode/utf8"
)

// quoteArg renders one argument for display. Arguments made only of
// characters that no POSIX shell treats specially are left bare. Everything
// else, including the empty string, is wrapped in double quotes with \, ",
// $ and ` escaped, so splitting the line with shell rules gives the
// original argument back. Invalid UTF-8 is replaced with U+FFFD.
func quoteArg(arg string) string {
	if !utf8.ValidString(arg) {
		arg = strings.ToValidUTF8(arg, "\uFFFD")
	}
	if arg != "" && !needsQuoting(arg) {
		return arg
	}

	var b strings.Builder
	b.Grow(len(arg) + 2)
	b.WriteByte('"')
	for _, r := range arg {
		switch r {
		case '\\', '"', '$', '`':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func needsQuoting(arg string) bool {
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("_@%+=:,./-", c) >= 0:
		case c >= utf8.RuneSelf:
			// non-ASCII letters carry no shell meaning
		default:
			return true
		}
	}
	return false
}

func formatCommandLine(prog string, args []string) string {
	var b strings.Builder
	b.WriteString(quoteArg(prog))
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(quoteArg(arg))
	}
	return b.String()
}
