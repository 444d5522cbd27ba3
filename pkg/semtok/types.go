/*
Token Types and Modifiers:
------------------------

	+-------------+     +-----------+
	| TokenType   | --> | Range     |
	+-------------+     +-----------+
	      |                  |
	      v                  v
	[type, class,      single line,
	 property, ...]    UTF-16 columns

TokenType values are indexes into TokenTypes, the legend the server
advertises. TokenModifier values are bits of TokenModifiers.
*/
package semtok

import (
	"github.com/walteh/ussls/pkg/position"
)

// TokenType represents the semantic meaning of a token
type TokenType uint32

const (
	// TokenElement is a type selector (e.g., Button)
	TokenElement TokenType = iota

	// TokenClass is a class selector (e.g., .card)
	TokenClass

	// TokenId is an id selector (e.g., #header)
	TokenId

	// TokenPseudoClass is a pseudo-class or pseudo-element (e.g., :hover)
	TokenPseudoClass

	// TokenProperty is a declaration name (e.g., background-color)
	TokenProperty

	// TokenVariable is a custom property (e.g., --accent)
	TokenVariable

	// TokenFunction is a function name (e.g., var, rgb, url)
	TokenFunction

	// TokenKeyword is a bare value (e.g., auto, red)
	TokenKeyword

	// TokenNumber is a number with its unit, or a hex color
	TokenNumber

	// TokenString is a quoted string
	TokenString

	// TokenComment is a block comment, one token per line
	TokenComment
)

// TokenTypes is the legend, indexed by TokenType. The names are the
// standard LSP token types.
var TokenTypes = []string{
	TokenElement:     "type",
	TokenClass:       "class",
	TokenId:          "enumMember",
	TokenPseudoClass: "keyword",
	TokenProperty:    "property",
	TokenVariable:    "variable",
	TokenFunction:    "function",
	TokenKeyword:     "enumMember",
	TokenNumber:      "number",
	TokenString:      "string",
	TokenComment:     "comment",
}

// TokenModifier represents additional characteristics of a token
type TokenModifier uint32

const (
	ModifierNone TokenModifier = 0

	// ModifierDeclaration marks a custom property where it is defined
	ModifierDeclaration TokenModifier = 1 << (iota - 1)

	// ModifierDefaultLibrary marks built-in properties and elements
	ModifierDefaultLibrary
)

// TokenModifiers is the modifier legend, indexed by bit.
var TokenModifiers = []string{"declaration", "defaultLibrary"}

// Token represents a semantic token with its type, modifiers, and position
type Token struct {
	Type     TokenType
	Modifier TokenModifier
	Range    position.Range
}

func (t TokenType) String() string {
	switch t {
	case TokenElement:
		return "element"
	case TokenClass:
		return "class"
	case TokenId:
		return "id"
	case TokenPseudoClass:
		return "pseudo-class"
	case TokenProperty:
		return "property"
	case TokenVariable:
		return "variable"
	case TokenFunction:
		return "function"
	case TokenKeyword:
		return "keyword"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenComment:
		return "comment"
	default:
		return "unknown"
	}
}
