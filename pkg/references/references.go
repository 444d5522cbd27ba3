// Package references finds definitions and occurrences of class names, ids
// and custom properties by scanning the whole document on each query.
package references

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/buffer"
	"github.com/walteh/ussls/pkg/position"
)

// Index is the lookup surface used by the workspace. Implementations may
// rescan on every call or keep incremental state.
type Index interface {
	Definition(ctx context.Context, buf *buffer.Buffer, pos position.Place) (position.Range, bool)
	References(ctx context.Context, buf *buffer.Buffer, pos position.Place) []position.Range
	Rename(ctx context.Context, buf *buffer.Buffer, pos position.Place, newName string) ([]buffer.Edit, bool)
}

var _ Index = (*Scanner)(nil)

// Scanner is an Index without state.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

// Definition resolves the token under pos. A custom property resolves to the
// first place it is followed by ':'; a class or id (detected from the '.' or
// '#' before the token) resolves to the first place it is followed by '{'.
// Class and id ranges include the sigil.
func (s *Scanner) Definition(ctx context.Context, buf *buffer.Buffer, pos position.Place) (position.Range, bool) {
	word, ok := buf.WordAt(pos)
	if !ok {
		return position.Range{}, false
	}
	text := buf.Text()

	var sigil string
	var terminator byte
	switch {
	case strings.HasPrefix(word.Text, "--"):
		terminator = ':'
	case word.Offset > 0 && buf.Slice(word.Offset-1, word.Offset) == ".":
		sigil, terminator = ".", '{'
	case word.Offset > 0 && buf.Slice(word.Offset-1, word.Offset) == "#":
		sigil, terminator = "#", '{'
	default:
		return position.Range{}, false
	}

	for _, start := range occurrences(text, word.Text) {
		if sigil != "" && (start == 0 || text[start-1:start] != sigil) {
			continue
		}
		end := start + len(word.Text)
		if !followedBy(text[end:], terminator) {
			continue
		}
		r := position.Range{
			Start: buf.ByteOffsetToPosition(start - len(sigil)),
			End:   buf.ByteOffsetToPosition(end),
		}
		zerolog.Ctx(ctx).Debug().Str("word", sigil+word.Text).Stringer("range", r).Msg("definition found")
		return r, true
	}
	return position.Range{}, false
}

// References lists every whole-token occurrence of the token under pos, in
// document order.
func (s *Scanner) References(ctx context.Context, buf *buffer.Buffer, pos position.Place) []position.Range {
	word, ok := buf.WordAt(pos)
	if !ok {
		return nil
	}
	ranges := tokenRanges(buf, word.Text)
	zerolog.Ctx(ctx).Debug().Str("word", word.Text).Int("count", len(ranges)).Msg("references")
	return ranges
}

// Rename returns one edit per occurrence of the token under pos. It reports
// false, meaning no changes, when there is nothing to rename or newName is
// not a single token.
func (s *Scanner) Rename(ctx context.Context, buf *buffer.Buffer, pos position.Place, newName string) ([]buffer.Edit, bool) {
	if !isToken(newName) {
		return nil, false
	}
	word, ok := buf.WordAt(pos)
	if !ok {
		return nil, false
	}
	ranges := tokenRanges(buf, word.Text)
	if len(ranges) == 0 {
		return nil, false
	}
	edits := make([]buffer.Edit, len(ranges))
	for i, r := range ranges {
		edits[i] = buffer.Edit{Range: r, NewText: newName}
	}
	zerolog.Ctx(ctx).Debug().Str("from", word.Text).Str("to", newName).Int("edits", len(edits)).Msg("rename")
	return edits, true
}

func tokenRanges(buf *buffer.Buffer, word string) []position.Range {
	starts := occurrences(buf.Text(), word)
	if len(starts) == 0 {
		return nil
	}
	ranges := make([]position.Range, len(starts))
	for i, start := range starts {
		ranges[i] = position.Range{
			Start: buf.ByteOffsetToPosition(start),
			End:   buf.ByteOffsetToPosition(start + len(word)),
		}
	}
	return ranges
}

// occurrences returns the byte offsets where word appears as a whole token.
// A leading '-' belongs to the token, so "--gap" matches inside "var(--gap)"
// but not inside "---gap".
func occurrences(text, word string) []int {
	if word == "" {
		return nil
	}
	var out []int
	for from := 0; from <= len(text)-len(word); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(word)
		if !tokenBefore(text, start) && !tokenAfter(text, end) {
			out = append(out, start)
		}
		from = start + 1
	}
	return out
}

func tokenBefore(text string, at int) bool {
	if at == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:at])
	return buffer.IsTokenRune(r)
}

func tokenAfter(text string, at int) bool {
	if at >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[at:])
	return buffer.IsTokenRune(r)
}

func followedBy(rest string, b byte) bool {
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	return rest != "" && rest[0] == b
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !buffer.IsTokenRune(r) {
			return false
		}
	}
	return true
}
