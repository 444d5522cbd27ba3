// Package buffer holds document text in a balanced rope so that edits cost
// O(edit + log n) and position/offset conversions cost O(log n).
//
// Offsets are absolute indexes into the document measured in UTF-16 code
// units, matching the column unit of [position.Place].
package buffer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/walteh/ussls/pkg/position"
)

// Buffer is not safe for concurrent use; callers serialize access per
// document.
type Buffer struct {
	root *node
}

func New(text string) *Buffer {
	return &Buffer{root: build(text)}
}

// SetText replaces the whole content.
func (b *Buffer) SetText(text string) {
	b.root = build(text)
}

func (b *Buffer) Text() string {
	if b.root == nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow(b.root.sum.bytes)
	b.root.appendAll(&sb)
	return sb.String()
}

func (b *Buffer) total() summary {
	if b.root == nil {
		return summary{}
	}
	return b.root.sum
}

// Len is the document length in UTF-16 code units.
func (b *Buffer) Len() int {
	return b.total().units
}

// ByteLen is the document length in bytes.
func (b *Buffer) ByteLen() int {
	return b.total().bytes
}

// LineCount counts lines the way editors do: an empty document has one line
// and a trailing newline opens a new, empty last line.
func (b *Buffer) LineCount() int {
	return b.total().lines + 1
}

// lineSpan returns the start of line as a summary and the byte offset of the
// line's '\n' (or the end of the document for the last line).
func (b *Buffer) lineSpan(line int) (summary, int) {
	start := b.root.prefixLines(line)
	if line >= b.total().lines {
		return start, b.total().bytes
	}
	return start, b.root.prefixLines(line+1).bytes - 1
}

// LineText returns the content of line without its terminator.
func (b *Buffer) LineText(line int) (string, bool) {
	if line < 0 || line >= b.LineCount() {
		return "", false
	}
	start, end := b.lineSpan(line)
	return strings.TrimSuffix(b.sliceBytes(start.bytes, end), "\r"), true
}

// PositionToOffset resolves p to an offset. It fails only when p.Line is
// outside the document; a column past the end of the line clamps to the
// line's end.
func (b *Buffer) PositionToOffset(p position.Place) (int, bool) {
	if p.Line < 0 || p.Line >= b.LineCount() {
		return 0, false
	}
	start, end := b.lineSpan(p.Line)
	if p.Character <= 0 {
		return start.units, true
	}
	raw := b.sliceBytes(start.bytes, end)
	return start.units + position.ByteToUTF16(raw, position.UTF16ToByte(raw, p.Character)), true
}

// OffsetToPosition maps an offset to a line and column. Offsets outside
// [0, Len()] are clamped.
func (b *Buffer) OffsetToPosition(off int) position.Place {
	off = min(max(off, 0), b.Len())
	before := b.root.prefixUnits(off)
	lineStart := b.root.prefixLines(before.lines)
	return position.Place{Line: before.lines, Character: off - lineStart.units}
}

// ByteOffsetToPosition maps a byte offset into Text() to a line and column.
func (b *Buffer) ByteOffsetToPosition(bo int) position.Place {
	return b.OffsetToPosition(b.ByteOffsetToOffset(bo))
}

// ByteOffsetToOffset converts a byte offset into Text() to a UTF-16 offset.
func (b *Buffer) ByteOffsetToOffset(bo int) int {
	return b.root.prefixBytes(bo).units
}

// OffsetToByteOffset converts a UTF-16 offset to a byte offset into Text().
func (b *Buffer) OffsetToByteOffset(off int) int {
	return b.root.prefixUnits(off).bytes
}

// Slice returns the text between two offsets.
func (b *Buffer) Slice(start, end int) string {
	return b.sliceBytes(b.OffsetToByteOffset(start), b.OffsetToByteOffset(end))
}

func (b *Buffer) sliceBytes(start, end int) string {
	var sb strings.Builder
	b.root.appendBytes(&sb, start, end)
	return sb.String()
}

// BraceBalance returns the number of '{' minus the number of '}' in the text
// before off.
func (b *Buffer) BraceBalance(off int) int {
	s := b.root.prefixUnits(off)
	return s.opens - s.closes
}

// Replace swaps the text between two offsets for text.
func (b *Buffer) Replace(start, end int, text string) {
	start = min(max(start, 0), b.Len())
	end = min(max(end, start), b.Len())
	left, rest := split(b.root, start)
	_, right := split(rest, end-start)
	b.root = join(join(left, build(text)), right)
}

// ApplyEdit replaces the text covered by r. It reports false, leaving the
// buffer untouched, when either end of r cannot be resolved.
func (b *Buffer) ApplyEdit(r position.Range, text string) bool {
	r = r.Normalize()
	start, ok := b.PositionToOffset(r.Start)
	if !ok {
		return false
	}
	end, ok := b.PositionToOffset(r.End)
	if !ok {
		return false
	}
	b.Replace(start, end, text)
	return true
}

// Edit replaces Range with NewText.
type Edit struct {
	Range   position.Range `json:"range"`
	NewText string         `json:"newText"`
}

// LinePrefix returns the text of p's line up to the (clamped) column.
func (b *Buffer) LinePrefix(p position.Place) (string, bool) {
	line, ok := b.LineText(p.Line)
	if !ok {
		return "", false
	}
	return line[:position.UTF16ToByte(line, p.Character)], true
}

// IsTokenRune reports whether r can be part of a token: letters, digits,
// '-' and '_'.
func IsTokenRune(r rune) bool {
	return r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Word is a token found by WordAt.
type Word struct {
	position.RawPosition
	Range position.Range
}

// WordAt returns the maximal token containing or touching p.
func (b *Buffer) WordAt(p position.Place) (Word, bool) {
	off, ok := b.PositionToOffset(p)
	if !ok {
		return Word{}, false
	}
	line, _ := b.LineText(p.Line)
	lineStart := off - b.OffsetToPosition(off).Character
	cursor := position.UTF16ToByte(line, off-lineStart)

	start := cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:start])
		if !IsTokenRune(r) {
			break
		}
		start -= size
	}
	end := cursor
	for end < len(line) {
		r, size := utf8.DecodeRuneInString(line[end:])
		if !IsTokenRune(r) {
			break
		}
		end += size
	}
	if start == end {
		return Word{}, false
	}

	startCol := position.ByteToUTF16(line, start)
	return Word{
		RawPosition: position.RawPosition{Offset: lineStart + startCol, Text: line[start:end]},
		Range: position.Range{
			Start: position.Place{Line: p.Line, Character: startCol},
			End:   position.Place{Line: p.Line, Character: position.ByteToUTF16(line, end)},
		},
	}, true
}
