package position

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// Place is a zero-based line and a UTF-16 code unit column, the addressing
// scheme used by LSP clients.
type Place struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Compare orders two places by line and then by character.
func (p Place) Compare(o Place) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Character < o.Character:
		return -1
	case p.Character > o.Character:
		return 1
	}
	return 0
}

func (p Place) Before(o Place) bool {
	return p.Compare(o) < 0
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

type Range struct {
	Start Place `json:"start"`
	End   Place `json:"end"`
}

// Normalize returns the range with Start <= End.
func (r Range) Normalize() Range {
	if r.End.Before(r.Start) {
		return Range{Start: r.End, End: r.Start}
	}
	return r
}

func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Contains reports whether p lies within r, both ends inclusive.
func (r Range) Contains(p Place) bool {
	return !p.Before(r.Start) && !r.End.Before(p)
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// RawPosition is a token occurrence in a document: its absolute offset in
// UTF-16 code units and its text.
type RawPosition struct {
	Offset int
	Text   string
}

// ID returns a unique identifier for this position based on offset and text
func (p RawPosition) ID() string {
	return fmt.Sprintf("%s@%d", p.Text, p.Offset)
}

// Length is the token length in UTF-16 code units.
func (p RawPosition) Length() int {
	return UTF16Len(p.Text)
}

func (p RawPosition) End() int {
	return p.Offset + p.Length()
}

func (p RawPosition) HasRangeOverlapWith(other RawPosition) bool {
	if p.Length() == 0 {
		return p.Offset >= other.Offset && p.Offset <= other.End()
	}
	if other.Length() == 0 {
		return other.Offset >= p.Offset && other.Offset <= p.End()
	}
	return other.Offset < p.End() && other.End() > p.Offset
}

func (p RawPosition) String() string {
	return p.ID()
}

// UTF16Len counts the UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// UTF16ToByte converts a UTF-16 column within s to a byte index. Columns past
// the end clamp to len(s); a column inside a surrogate pair rounds down to the
// start of that rune.
func UTF16ToByte(s string, units int) int {
	if units <= 0 {
		return 0
	}
	n := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		w := utf16.RuneLen(r)
		if n+w > units {
			return i
		}
		n += w
		i += size
		if n == units {
			return i
		}
	}
	return len(s)
}

// ByteToUTF16 converts a byte index within s to a UTF-16 column.
func ByteToUTF16(s string, b int) int {
	if b > len(s) {
		b = len(s)
	}
	return UTF16Len(s[:b])
}
