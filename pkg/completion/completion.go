package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/buffer"
	"github.com/walteh/ussls/pkg/completion/providers"
	"github.com/walteh/ussls/pkg/knowledge"
	"github.com/walteh/ussls/pkg/position"
)

// Engine answers completion requests against one set of reference tables.
type Engine struct {
	tables     *knowledge.Tables
	selectors  *providers.SelectorProvider
	classes    *providers.SymbolProvider
	ids        *providers.SymbolProvider
	variables  *providers.SymbolProvider
	pseudos    *providers.PseudoClassProvider
	properties *providers.PropertyProvider
	values     *providers.ValueProvider
	urls       *providers.UrlProvider
}

func NewEngine(tables *knowledge.Tables) *Engine {
	return &Engine{
		tables:     tables,
		selectors:  providers.NewSelectorProvider(tables),
		classes:    providers.NewClassProvider(),
		ids:        providers.NewIdProvider(),
		variables:  providers.NewVariableProvider(),
		pseudos:    providers.NewPseudoClassProvider(tables),
		properties: providers.NewPropertyProvider(tables),
		values:     providers.NewValueProvider(tables),
		urls:       providers.NewUrlProvider(),
	}
}

// Complete classifies pos and returns the suggestions for that context.
// An Unknown context yields no items.
func (e *Engine) Complete(ctx context.Context, buf *buffer.Buffer, pos position.Place) ([]providers.CompletionItem, CompletionContext) {
	cc := Classify(buf, pos)

	var items []providers.CompletionItem
	switch cc.Kind {
	case KindSelector:
		items = e.selectors.GetCompletions()
	case KindClassSelector:
		items = e.classes.GetCompletions(buf.Text())
	case KindIdSelector:
		items = e.ids.GetCompletions(buf.Text())
	case KindPseudoClass:
		items = e.pseudos.GetCompletions()
	case KindPropertyName:
		items = e.properties.GetCompletions()
	case KindPropertyValue:
		items = e.values.GetCompletions(cc.Property)
	case KindUrlArgument:
		items = e.urls.GetCompletions()
	case KindVariableArgument:
		items = e.variables.GetCompletions(buf.Text())
	}

	zerolog.Ctx(ctx).Debug().
		Str("context", cc.String()).
		Stringer("position", pos).
		Int("items", len(items)).
		Msg("completion")

	return items, cc
}

// Resolve fills in the long-form documentation of a property or element item.
// Other items are returned unchanged.
func (e *Engine) Resolve(item providers.CompletionItem) providers.CompletionItem {
	switch item.Kind {
	case providers.KindProperty:
		if prop, ok := e.tables.Property(item.Label); ok {
			item.Documentation = PropertyMarkdown(prop)
			item.Markdown = true
		}
	case providers.KindClass:
		if el, ok := e.tables.Element(item.Label); ok {
			item.Documentation = fmt.Sprintf("## %s\n\n%s\n\n**Namespace:** `%s`", el.Name, el.Description, el.Namespace)
			item.Markdown = true
		}
	}
	return item
}

// PropertyMarkdown renders the reference card for a property.
func PropertyMarkdown(prop *knowledge.Property) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n%s\n\n", prop.Name, prop.Description)
	fmt.Fprintf(&sb, "**Syntax:** `%s`\n\n", prop.Syntax)
	fmt.Fprintf(&sb, "**Initial value:** `%s`\n\n", prop.Initial)
	if prop.Inherited {
		sb.WriteString("**Inherited:** Yes")
	} else {
		sb.WriteString("**Inherited:** No")
	}
	return sb.String()
}
