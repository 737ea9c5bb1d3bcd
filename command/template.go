package command

import (
	"fmt"
	"strings"

	xsherrors "github.com/grovetools/xsh/errors"
)

// SegmentKind identifies what a template segment holds.
type SegmentKind int

const (
	// SegmentLiteral is verbatim text from the template.
	SegmentLiteral SegmentKind = iota
	// SegmentScalar is a {name} marker, replaced by exactly one value.
	SegmentScalar
	// SegmentSplat is a {name...} marker, replaced by zero or more arguments.
	SegmentSplat
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentLiteral:
		return "literal"
	case SegmentScalar:
		return "scalar"
	case SegmentSplat:
		return "splat"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// Segment is one lexical piece of a template word.
type Segment struct {
	Kind SegmentKind
	// Text is the literal text, or the marker name for markers.
	Text string
	// Offset is the byte offset of the segment in the template.
	Offset int
}

// Word is a run of segments with no whitespace between them. A word renders
// to a single argument, except a word made of a lone splat marker.
type Word struct {
	Segments []Segment
}

func (w Word) isSplat() bool {
	return len(w.Segments) == 1 && w.Segments[0].Kind == SegmentSplat
}

// Marker describes an interpolation point in a template.
type Marker struct {
	Name   string
	Splat  bool
	Offset int
}

func (m Marker) String() string {
	if m.Splat {
		return "{" + m.Name + "...}"
	}
	return "{" + m.Name + "}"
}

// Template is a parsed command template. The first word is the program.
//
// Templates are immutable and may be rendered any number of times.
type Template struct {
	text    string
	words   []Word
	markers []Marker
}

// Parse parses a command template such as
//
//	git commit -m {msg} {extra...} --author='{name} <{email}>'
//
// Whitespace separates words. Text between single quotes is kept as one
// literal, including its whitespace; there are no escape sequences. A
// {name} marker takes one value and may be concatenated with other text;
// a {name...} marker expands to zero or more arguments and must stand alone.
func Parse(text string) (Template, error) {
	t := Template{text: text}
	inWord := false

	for i := 0; i < len(text); {
		c := text[i]
		if isSpace(c) {
			inWord = false
			i++
			continue
		}

		var seg Segment
		var n int
		switch c {
		case '{':
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				return Template{}, newTemplateError(text, i, "", "unclosed `{` in command")
			}
			inner := text[i+1 : i+end]
			splat := strings.HasSuffix(inner, "...")
			name := strings.TrimSuffix(inner, "...")
			if name == "" {
				return Template{}, newTemplateError(text, i, "", "empty marker name")
			}
			if !isMarkerName(name) {
				return Template{}, newTemplateError(text, i, name,
					fmt.Sprintf("can only interpolate simple names, got `%s`", inner))
			}
			seg = Segment{Kind: SegmentScalar, Text: name, Offset: i}
			if splat {
				seg.Kind = SegmentSplat
			}
			t.markers = append(t.markers, Marker{Name: name, Splat: splat, Offset: i})
			n = end + 1
		case '\'':
			end := strings.IndexByte(text[i+1:], '\'')
			if end < 0 {
				return Template{}, newTemplateError(text, i, "", "unclosed `'` in command")
			}
			seg = Segment{Kind: SegmentLiteral, Text: text[i+1 : i+1+end], Offset: i}
			n = end + 2
		default:
			j := i
			for j < len(text) && !isSpace(text[j]) && text[j] != '\'' && text[j] != '{' {
				j++
			}
			seg = Segment{Kind: SegmentLiteral, Text: text[i:j], Offset: i}
			n = j - i
		}

		if !inWord {
			t.words = append(t.words, Word{})
			inWord = true
		}
		last := &t.words[len(t.words)-1]
		last.Segments = append(last.Segments, seg)
		i += n
	}

	if len(t.words) == 0 {
		return Template{}, newTemplateError(text, 0, "", "command can't be empty")
	}
	for wi, w := range t.words {
		for _, seg := range w.Segments {
			if seg.Kind != SegmentSplat {
				continue
			}
			if wi == 0 {
				return Template{}, newTemplateError(text, seg.Offset, seg.Text, "can't splat program name")
			}
			if len(w.Segments) > 1 {
				return Template{}, newTemplateError(text, seg.Offset, seg.Text,
					fmt.Sprintf("can't combine splat with concatenation, add spaces around `{%s...}`", seg.Text))
			}
		}
	}
	return t, nil
}

// MustParse is like Parse but panics on error. It is intended for templates
// that are constant in the source.
func MustParse(text string) Template {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the template text.
func (t Template) String() string {
	return t.text
}

// Words returns the parsed words, program first.
func (t Template) Words() []Word {
	return append([]Word(nil), t.words...)
}

// Markers returns the markers in left-to-right order.
func (t Template) Markers() []Marker {
	return append([]Marker(nil), t.markers...)
}

// Render binds values to markers in left-to-right order and returns the
// program followed by its arguments. Values are classified with ValueOf.
func (t Template) Render(values ...any) ([]string, error) {
	if len(values) != len(t.markers) {
		return nil, newTemplateError(t.text, 0, "",
			fmt.Sprintf("template has %d marker(s) but %d value(s) were supplied", len(t.markers), len(values)))
	}

	argv := make([]string, 0, len(t.words))
	next := 0
	bind := func(seg Segment) (Value, error) {
		raw := values[next]
		next++
		v, err := ValueOf(raw)
		if err != nil {
			return Value{}, newTemplateError(t.text, seg.Offset, seg.Text,
				fmt.Sprintf("cannot interpolate %s: %v", markerText(seg), err))
		}
		return v, nil
	}

	for _, w := range t.words {
		if w.isSplat() {
			seg := w.Segments[0]
			v, err := bind(seg)
			if err != nil {
				return nil, err
			}
			if v.kind == scalarValue {
				return nil, newTemplateError(t.text, seg.Offset, seg.Text,
					fmt.Sprintf("%s needs a sequence or optional value, got %T", markerText(seg), values[next-1]))
			}
			argv = append(argv, v.items...)
			continue
		}

		var b strings.Builder
		for _, seg := range w.Segments {
			if seg.Kind == SegmentLiteral {
				b.WriteString(seg.Text)
				continue
			}
			v, err := bind(seg)
			if err != nil {
				return nil, err
			}
			if v.kind != scalarValue {
				return nil, newTemplateError(t.text, seg.Offset, seg.Text,
					fmt.Sprintf("%s needs a single value, got %s %T; use {%s...} to splat it",
						markerText(seg), v.kind, values[next-1], seg.Text))
			}
			b.WriteString(v.items[0])
		}
		argv = append(argv, b.String())
	}

	if argv[0] == "" {
		return nil, newTemplateError(t.text, 0, "", "program name is empty")
	}
	return argv, nil
}

func markerText(seg Segment) string {
	return Marker{Name: seg.Text, Splat: seg.Kind == SegmentSplat}.String()
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func isMarkerName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// TemplateError reports a malformed template or a value that does not fit
// its marker. It always indicates a mistake at the call site.
type TemplateError struct {
	Template string
	Offset   int
	Marker   string
	Reason   string
}

func newTemplateError(text string, offset int, marker, reason string) *TemplateError {
	return &TemplateError{Template: text, Offset: offset, Marker: marker, Reason: reason}
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("invalid command template %q (offset %d): %s", e.Template, e.Offset, e.Reason)
}

// ErrorCode implements errors.Coder.
func (e *TemplateError) ErrorCode() xsherrors.ErrorCode {
	return xsherrors.ErrCodeTemplateInvalid
}
