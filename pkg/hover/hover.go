// Package hover builds the markdown shown when hovering a token in a USS
// document.
package hover

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/buffer"
	"github.com/walteh/ussls/pkg/completion"
	"github.com/walteh/ussls/pkg/knowledge"
	"github.com/walteh/ussls/pkg/position"
)

// HoverInfo represents the information to be displayed in a hover tooltip
type HoverInfo struct {
	// Content is markdown.
	Content string
	// Range covers the hovered token, including a leading '.', '#' or ':'.
	Range position.Range
}

type Provider struct {
	tables *knowledge.Tables
}

func NewProvider(tables *knowledge.Tables) *Provider {
	return &Provider{tables: tables}
}

var (
	numericPattern = regexp.MustCompile(`^-?[0-9]*\.?[0-9]+[a-z%]+$`)
	hexPattern     = regexp.MustCompile(`^(?:[0-9A-Fa-f]{3,4}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)
)

// Hover describes the token at pos. The character before the token decides
// between selector, pseudo-class and color readings; otherwise the tables are
// consulted in order: property, element, named color, unit, variable,
// keyword.
func (p *Provider) Hover(ctx context.Context, buf *buffer.Buffer, pos position.Place) (*HoverInfo, bool) {
	word, ok := buf.WordAt(pos)
	if !ok {
		return nil, false
	}

	var sigil string
	if word.Offset > 0 {
		sigil = buf.Slice(word.Offset-1, word.Offset)
	}
	var next string
	if end := word.End(); end < buf.Len() {
		next = buf.Slice(end, end+1)
	}

	content, withSigil := p.describe(buf, word.Text, sigil, next)
	if content == "" {
		return nil, false
	}

	r := word.Range
	if withSigil {
		r.Start.Character--
	}
	zerolog.Ctx(ctx).Debug().Str("word", word.Text).Str("sigil", sigil).Stringer("range", r).Msg("hover")
	return &HoverInfo{Content: content, Range: r}, true
}

func (p *Provider) describe(buf *buffer.Buffer, word, sigil, next string) (string, bool) {
	switch {
	case sigil == "." && !startsWithDigit(word):
		return fmt.Sprintf("## Class Selector\n\n`.%s`\n\nMatches elements with the class `%s`.", word, word), true
	case sigil == "#":
		if hexPattern.MatchString(word) {
			return fmt.Sprintf("## Color\n\n**Hex:** `#%s`", word), true
		}
		return fmt.Sprintf("## ID Selector\n\n`#%s`\n\nMatches the element with name `%s`.", word, word), true
	case sigil == ":":
		if pc, ok := p.tables.PseudoClass(word); ok {
			return fmt.Sprintf("## :%s\n\n%s", pc.Name, pc.Description), true
		}
	}

	if prop, ok := p.tables.Property(word); ok {
		return completion.PropertyMarkdown(prop), false
	}

	if el, ok := p.tables.Element(word); ok {
		return fmt.Sprintf("## %s\n\n%s\n\n**Namespace:** `%s`\n\n[Unity Documentation](https://docs.unity3d.com/ScriptReference/UIElements.%s.html)",
			el.Name, el.Description, el.Namespace, el.Name), false
	}

	if c, ok := p.tables.Color(word); ok {
		return fmt.Sprintf("## Color: %s\n\n**Hex:** `%s`", c.Name, c.Hex), false
	}

	literal := word
	if next == "%" {
		literal += next
	}
	if numericPattern.MatchString(literal) {
		if u, ok := p.tables.UnitOf(literal); ok {
			return fmt.Sprintf("## Unit: %s\n\n%s", u.Name, u.Description), false
		}
	}

	if strings.HasPrefix(word, "--") {
		var sb strings.Builder
		fmt.Fprintf(&sb, "## USS Variable\n\n`%s`\n\nCustom property (variable) defined in this stylesheet.", word)
		if value, ok := variableValue(buf.Text(), word); ok {
			fmt.Fprintf(&sb, "\n\n**Value:** `%s`", value)
		}
		return sb.String(), false
	}

	if kw, ok := p.tables.Keyword(word); ok {
		return fmt.Sprintf("## `%s`\n\n%s", kw.Name, kw.Description), false
	}

	return "", false
}

// variableValue returns the value of the first declaration of name.
func variableValue(text, name string) (string, bool) {
	re := regexp.MustCompile(`(?:^|[^\w-])` + regexp.QuoteMeta(name) + `\s*:\s*([^;}\n]*)`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
