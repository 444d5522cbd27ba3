package completion

import (
	"fmt"
	"strings"

	"github.com/walteh/ussls/pkg/buffer"
	"github.com/walteh/ussls/pkg/position"
)

// Kind is the syntactic construct surrounding a cursor.
type Kind int

const (
	KindUnknown Kind = iota
	KindSelector
	KindClassSelector
	KindIdSelector
	KindPseudoClass
	KindPropertyName
	KindPropertyValue
	KindUrlArgument
	KindVariableArgument
)

var kindNames = [...]string{
	KindUnknown:          "Unknown",
	KindSelector:         "Selector",
	KindClassSelector:    "ClassSelector",
	KindIdSelector:       "IdSelector",
	KindPseudoClass:      "PseudoClass",
	KindPropertyName:     "PropertyName",
	KindPropertyValue:    "PropertyValue",
	KindUrlArgument:      "UrlArgument",
	KindVariableArgument: "VariableArgument",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// CompletionContext is the classifier's answer for one cursor position.
// Property is only set for KindPropertyValue.
type CompletionContext struct {
	Kind     Kind
	Property string
}

func (c CompletionContext) String() string {
	if c.Kind == KindPropertyValue {
		return fmt.Sprintf("PropertyValue(%s)", c.Property)
	}
	return c.Kind.String()
}

var (
	Unknown          = CompletionContext{Kind: KindUnknown}
	Selector         = CompletionContext{Kind: KindSelector}
	ClassSelector    = CompletionContext{Kind: KindClassSelector}
	IdSelector       = CompletionContext{Kind: KindIdSelector}
	PseudoClass      = CompletionContext{Kind: KindPseudoClass}
	PropertyName     = CompletionContext{Kind: KindPropertyName}
	UrlArgument      = CompletionContext{Kind: KindUrlArgument}
	VariableArgument = CompletionContext{Kind: KindVariableArgument}
)

func PropertyValue(name string) CompletionContext {
	return CompletionContext{Kind: KindPropertyValue, Property: name}
}

// Classify decides which construct the cursor at pos is in from lexical cues
// alone. Rules are tried in order and the first match wins:
//
//  1. an unterminated var( on the line before the cursor
//  2. an unterminated url( or resource(
//  3. a trailing single ':' (property value inside a block when it is the
//     only colon on the line, else pseudo-class)
//  4. a trailing '.' or '#'
//  5. inside a declaration block: property value when the line holds a
//     ':', else property name
//  6. outside any block: selector
//
// Anything else, including a position on a line that does not exist, is
// Unknown.
func Classify(buf *buffer.Buffer, pos position.Place) CompletionContext {
	prefix, ok := buf.LinePrefix(pos)
	if !ok {
		return Unknown
	}
	offset, ok := buf.PositionToOffset(pos)
	if !ok {
		return Unknown
	}
	return classify(prefix, buf.BraceBalance(offset))
}

// classify is the pure core of Classify: prefix is the current line up to
// the cursor and depth is the brace balance of the whole document before it.
func classify(prefix string, depth int) CompletionContext {
	inVar, inURL := openFunctions(prefix)
	switch {
	case inVar:
		return VariableArgument
	case inURL:
		return UrlArgument
	}

	trimmed := strings.TrimSpace(prefix)

	if strings.HasSuffix(prefix, ":") && !strings.HasSuffix(prefix, "::") {
		if depth > 0 && strings.Count(trimmed, ":") == 1 {
			if name := propertyBeforeColon(trimmed); looksLikeProperty(name) {
				return PropertyValue(name)
			}
		}
		return PseudoClass
	}

	switch {
	case strings.HasSuffix(prefix, "."):
		return ClassSelector
	case strings.HasSuffix(prefix, "#"):
		return IdSelector
	}

	if depth <= 0 {
		return Selector
	}

	if strings.Contains(prefix, ":") {
		if name := propertyBeforeColon(trimmed); name != "" {
			return PropertyValue(name)
		}
	}

	if trimmed == "" || strings.HasSuffix(trimmed, ";") || strings.HasSuffix(trimmed, "{") || isToken(trimmed) {
		return PropertyName
	}

	return Unknown
}

// openFunctions reports whether var( or url(/resource( is still open at the
// end of prefix. Nested calls are tracked so "var(--a, rgb(1, 2, 3)" is
// still inside var.
func openFunctions(prefix string) (inVar, inURL bool) {
	var stack []string
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '(':
			j := i
			for j > 0 && isNameByte(prefix[j-1]) {
				j--
			}
			stack = append(stack, strings.ToLower(prefix[j:i]))
		case ')':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	for _, name := range stack {
		switch name {
		case "var":
			inVar = true
		case "url", "resource":
			inURL = true
		}
	}
	return inVar, inURL
}

// propertyBeforeColon is the trimmed text before the first ':' of the line
// prefix. It is not narrowed to the current statement, so
// "Label { color: red; " names "Label { color".
func propertyBeforeColon(trimmed string) string {
	name, _, _ := strings.Cut(trimmed, ":")
	return strings.TrimSpace(name)
}

func looksLikeProperty(name string) bool {
	return name != "" && name[0] != '.' && name[0] != '#'
}

func isToken(s string) bool {
	for _, r := range s {
		if !buffer.IsTokenRune(r) {
			return false
		}
	}
	return s != ""
}

func isNameByte(b byte) bool {
	return b == '-' || b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
