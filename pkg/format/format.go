// Package format re-emits USS text with one declaration per line and
// consistent indentation.
package format

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/buffer"
	"github.com/walteh/ussls/pkg/position"
)

// Options mirror the editor's formatting settings.
type Options struct {
	UseSpaces   bool `json:"use_spaces" yaml:"use_spaces"`
	IndentWidth int  `json:"indent_width" yaml:"indent_width"`
}

func DefaultOptions() Options {
	return Options{UseSpaces: true, IndentWidth: 4}
}

func (o Options) indent() string {
	if !o.UseSpaces {
		return "\t"
	}
	return strings.Repeat(" ", max(o.IndentWidth, 1))
}

// Text formats a whole stylesheet. The result ends with exactly one newline
// unless it is empty.
func Text(text string, opts Options) string {
	f := newFormatter(opts, 0, true)
	f.write(text)
	out := strings.TrimRight(f.out.String(), " \t\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

// Document returns a single edit replacing the whole buffer, or nothing when
// the text is already formatted.
func Document(ctx context.Context, buf *buffer.Buffer, opts Options) []buffer.Edit {
	text := buf.Text()
	formatted := Text(text, opts)
	if formatted == text {
		return nil
	}
	zerolog.Ctx(ctx).Debug().Int("before", len(text)).Int("after", len(formatted)).Msg("formatted document")
	return []buffer.Edit{{
		Range:   position.Range{End: buf.OffsetToPosition(buf.Len())},
		NewText: formatted,
	}}
}

// Range formats only the text inside r. Indentation continues from the brace
// depth at r's start, and the slice keeps its trailing newline or lack of
// one. It returns no edits when r cannot be resolved or nothing changes.
func Range(ctx context.Context, buf *buffer.Buffer, r position.Range, opts Options) []buffer.Edit {
	r = r.Normalize()
	start, ok := buf.PositionToOffset(r.Start)
	if !ok {
		return nil
	}
	end, ok := buf.PositionToOffset(r.End)
	if !ok {
		end = buf.Len()
	}
	slice := buf.Slice(start, end)

	f := newFormatter(opts, max(buf.BraceBalance(start), 0), r.Start.Character == 0)
	f.write(slice)
	formatted := strings.TrimRight(f.out.String(), " \t")
	if !strings.HasSuffix(slice, "\n") {
		formatted = strings.TrimRight(formatted, "\n")
	}
	if formatted == slice {
		return nil
	}
	zerolog.Ctx(ctx).Debug().Stringer("range", r).Msg("formatted range")
	return []buffer.Edit{{
		Range:   position.Range{Start: buf.OffsetToPosition(start), End: buf.OffsetToPosition(end)},
		NewText: formatted,
	}}
}

// formatter streams runes into out. lineStart is true when the next content
// begins a fresh output line; newlines counts source line breaks since the
// last emitted content.
type formatter struct {
	out        strings.Builder
	indent     string
	depth      int
	parens     int
	lineStart  bool
	newlines   int
	inComment  bool
	commentLen int
	quote      rune
	prev       rune
	last       rune
}

func newFormatter(opts Options, depth int, lineStart bool) *formatter {
	return &formatter{indent: opts.indent(), depth: depth, lineStart: lineStart}
}

func (f *formatter) write(text string) {
	for _, c := range text {
		f.step(c)
		f.prev = c
	}
}

func (f *formatter) step(c rune) {
	switch {
	case f.inComment:
		f.out.WriteRune(c)
		f.commentLen++
		if f.commentLen > 1 && f.prev == '*' && c == '/' {
			f.inComment = false
		}
		return
	case f.quote != 0:
		f.out.WriteRune(c)
		if (c == f.quote && f.prev != '\\') || c == '\n' {
			f.quote = 0
		}
		return
	}

	switch c {
	case '{':
		f.trimSpace()
		if !f.lineStart && f.out.Len() > 0 {
			f.out.WriteByte(' ')
		}
		f.content("{")
		f.depth++
		f.newline()
	case '}':
		f.trimSpace()
		if !f.lineStart {
			f.newline()
		}
		f.depth = max(f.depth-1, 0)
		f.newlines = 0
		f.content("}")
		f.newline()
	case ';':
		f.trimSpace()
		f.content(";")
		if f.parens == 0 {
			f.newline()
		}
	case ':':
		declaration := f.depth > 0 && f.parens == 0
		if declaration {
			f.trimSpace()
		}
		f.content(":")
		if declaration {
			f.out.WriteByte(' ')
			f.last = ' '
		}
	case '\n':
		f.newlines++
		if !f.lineStart {
			f.trimSpace()
			f.newline()
		}
	case '\r':
	case ' ', '\t':
		if !f.lineStart && f.last != ' ' {
			f.out.WriteByte(' ')
			f.last = ' '
		}
	default:
		f.content(string(c))
		switch c {
		case '(':
			f.parens++
		case ')':
			f.parens = max(f.parens-1, 0)
		case '"', '\'':
			f.quote = c
		case '*':
			if f.prev == '/' {
				f.inComment = true
				f.commentLen = 0
			}
		}
	}
}

// content emits s, first starting a fresh line with indentation when needed.
// Two or more source line breaks before content outside a block's first
// line keep one blank line.
func (f *formatter) content(s string) {
	if f.lineStart {
		if f.newlines >= 2 && f.out.Len() > 0 && !strings.HasSuffix(f.out.String(), "{\n") {
			f.out.WriteByte('\n')
		}
		f.out.WriteString(strings.Repeat(f.indent, f.depth))
		f.lineStart = false
	}
	f.newlines = 0
	f.out.WriteString(s)
	f.last = rune(s[len(s)-1])
}

func (f *formatter) newline() {
	f.out.WriteByte('\n')
	f.lineStart = true
	f.last = '\n'
}

func (f *formatter) trimSpace() {
	if f.last != ' ' {
		return
	}
	s := strings.TrimRight(f.out.String(), " ")
	f.out.Reset()
	f.out.WriteString(s)
	f.last = 0
	if s != "" {
		f.last = rune(s[len(s)-1])
	}
}
