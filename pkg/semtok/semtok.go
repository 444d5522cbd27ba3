package semtok

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/knowledge"
	"github.com/walteh/ussls/pkg/position"
)

// Tokenizer classifies the text of a stylesheet in one pass. Known
// properties and elements get ModifierDefaultLibrary.
type Tokenizer struct {
	tables *knowledge.Tables
}

func NewTokenizer(tables *knowledge.Tables) *Tokenizer {
	return &Tokenizer{tables: tables}
}

// scanState survives line breaks.
type scanState struct {
	depth     int
	inValue   bool
	inComment bool
}

// GetTokensForText returns the tokens of text in document order.
//
//	Example:
//	   tokens := tok.GetTokensForText(ctx, ".card:hover { width: 10px; }")
//	   // class, pseudo-class, property, number
func (t *Tokenizer) GetTokensForText(ctx context.Context, text string) []Token {
	var tokens []Token
	var st scanState
	for num, line := range strings.Split(text, "\n") {
		tokens = t.scanLine(tokens, &st, num, strings.TrimSuffix(line, "\r"))
	}
	zerolog.Ctx(ctx).Debug().Int("tokens", len(tokens)).Msg("semantic tokens")
	return tokens
}

// GetTokensForRange returns the tokens that start inside r, end exclusive.
func (t *Tokenizer) GetTokensForRange(ctx context.Context, text string, r position.Range) []Token {
	all := t.GetTokensForText(ctx, text)
	out := all[:0]
	for _, tok := range all {
		if !tok.Range.Start.Before(r.Start) && tok.Range.Start.Before(r.End) {
			out = append(out, tok)
		}
	}
	return out
}

func (t *Tokenizer) scanLine(tokens []Token, st *scanState, num int, line string) []Token {
	emit := func(typ TokenType, mod TokenModifier, start, end int) {
		tokens = append(tokens, Token{
			Type:     typ,
			Modifier: mod,
			Range: position.Range{
				Start: position.Place{Line: num, Character: position.ByteToUTF16(line, start)},
				End:   position.Place{Line: num, Character: position.ByteToUTF16(line, end)},
			},
		})
	}

	for i := 0; i < len(line); {
		if st.inComment {
			end := len(line)
			if j := strings.Index(line[i:], "*/"); j >= 0 {
				end = i + j + 2
				st.inComment = false
			}
			if strings.TrimSpace(line[i:end]) != "" {
				emit(TokenComment, ModifierNone, i, end)
			}
			i = end
			continue
		}

		c := line[i]
		selector := st.depth <= 0
		switch {
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			st.inComment = true

		case c == '"' || c == '\'':
			end := closingQuote(line, i)
			emit(TokenString, ModifierNone, i, end)
			i = end

		case c == '{':
			st.depth++
			st.inValue = false
			i++
		case c == '}':
			st.depth--
			st.inValue = false
			i++
		case c == ';':
			st.inValue = false
			i++

		case c == ':' && !selector && !st.inValue:
			st.inValue = true
			i++
		case c == ':' && selector:
			start := i
			for i < len(line) && line[i] == ':' {
				i++
			}
			end := nameEnd(line, i)
			if end > i {
				emit(TokenPseudoClass, ModifierNone, start, end)
			}
			i = end

		case (c == '.' || c == '#') && selector && i+1 < len(line) && isNameStart(line[i+1]):
			end := nameEnd(line, i+1)
			typ := TokenClass
			if c == '#' {
				typ = TokenId
			}
			emit(typ, ModifierNone, i, end)
			i = end

		case c == '#' && st.inValue:
			end := nameEnd(line, i+1)
			emit(TokenNumber, ModifierNone, i, end)
			i = end

		case st.inValue && startsNumber(line, i):
			end := numberEnd(line, i)
			emit(TokenNumber, ModifierNone, i, end)
			i = end

		case isNameStart(c):
			end := nameEnd(line, i)
			typ, mod := t.classifyName(line[i:end], selector, st.inValue, end < len(line) && line[end] == '(')
			emit(typ, mod, i, end)
			i = end

		default:
			i++
		}
	}
	return tokens
}

func (t *Tokenizer) classifyName(name string, selector, inValue, call bool) (TokenType, TokenModifier) {
	switch {
	case strings.HasPrefix(name, "--"):
		if !selector && !inValue {
			return TokenVariable, ModifierDeclaration
		}
		return TokenVariable, ModifierNone
	case selector:
		if _, ok := t.tables.Element(name); ok {
			return TokenElement, ModifierDefaultLibrary
		}
		return TokenElement, ModifierNone
	case call:
		return TokenFunction, ModifierNone
	case !inValue:
		if t.tables.IsKnownProperty(name) {
			return TokenProperty, ModifierDefaultLibrary
		}
		return TokenProperty, ModifierNone
	}
	return TokenKeyword, ModifierNone
}

// Encode packs tokens into the LSP relative format: five integers per token
// holding the line delta, start delta, length, type and modifier bits.
// Tokens must be in document order and on one line each.
func Encode(tokens []Token) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	var prev position.Place
	for _, tok := range tokens {
		start := tok.Range.Start
		deltaLine := start.Line - prev.Line
		deltaStart := start.Character
		if deltaLine == 0 {
			deltaStart -= prev.Character
		}
		data = append(data,
			uint32(deltaLine),
			uint32(deltaStart),
			uint32(tok.Range.End.Character-start.Character),
			uint32(tok.Type),
			uint32(tok.Modifier),
		)
		prev = start
	}
	return data
}

func isNameStart(b byte) bool {
	return b == '-' || b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}

func isNameByte(b byte) bool {
	return isNameStart(b) || b >= '0' && b <= '9'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func nameEnd(line string, i int) int {
	for i < len(line) && isNameByte(line[i]) {
		i++
	}
	return i
}

// startsNumber matches 1, .5, -2 and +3 at i.
func startsNumber(line string, i int) bool {
	c := line[i]
	if isDigit(c) {
		return true
	}
	if (c == '-' || c == '+' || c == '.') && i+1 < len(line) {
		next := line[i+1]
		return isDigit(next) || (c != '.' && next == '.' && i+2 < len(line) && isDigit(line[i+2]))
	}
	return false
}

// numberEnd consumes the sign, digits, fraction and unit.
func numberEnd(line string, i int) int {
	if line[i] == '-' || line[i] == '+' {
		i++
	}
	for i < len(line) && (isDigit(line[i]) || line[i] == '.') {
		i++
	}
	if i < len(line) && line[i] == '%' {
		return i + 1
	}
	for i < len(line) && (line[i] >= 'a' && line[i] <= 'z' || line[i] >= 'A' && line[i] <= 'Z') {
		i++
	}
	return i
}

// closingQuote returns the offset after the quote that closes the string
// opened at i, or the line length.
func closingQuote(line string, i int) int {
	q := line[i]
	for j := i + 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return len(line)
}
