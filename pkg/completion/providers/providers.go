package providers

import (
	"fmt"
	"strings"

	"github.com/walteh/ussls/pkg/knowledge"
)

// SelectorProvider offers UXML element types and selector skeletons.
type SelectorProvider struct {
	tables *knowledge.Tables
}

func NewSelectorProvider(tables *knowledge.Tables) *SelectorProvider {
	return &SelectorProvider{tables: tables}
}

func (p *SelectorProvider) GetCompletions() []CompletionItem {
	items := make([]CompletionItem, 0, len(p.tables.Elements())+3)
	for _, e := range p.tables.Elements() {
		item := snippet(e.Name, KindClass, e.Namespace, e.Name+" {\n    $0\n}")
		item.Documentation = e.Description
		items = append(items, item)
	}
	return append(items,
		snippet(".", KindSnippet, "Class selector", ".$1 {\n    $0\n}"),
		snippet("#", KindSnippet, "ID selector", "#$1 {\n    $0\n}"),
		snippet("*", KindSnippet, "Universal selector", "* {\n    $0\n}"),
	)
}

// SymbolProvider offers class names, element names, or variables already
// present in the document.
type SymbolProvider struct {
	kind   ItemKind
	detail string
	names  func(text string) []string
}

func NewClassProvider() *SymbolProvider {
	return &SymbolProvider{kind: KindClass, detail: "Class selector", names: ClassNames}
}

func NewIdProvider() *SymbolProvider {
	return &SymbolProvider{kind: KindReference, detail: "ID selector", names: IdNames}
}

// NewVariableProvider creates a new variable completion provider
func NewVariableProvider() *SymbolProvider {
	return &SymbolProvider{kind: KindVariable, detail: "USS variable", names: VariableNames}
}

func (p *SymbolProvider) GetCompletions(text string) []CompletionItem {
	names := p.names(text)
	items := make([]CompletionItem, 0, len(names))
	for _, name := range names {
		items = append(items, CompletionItem{Label: name, Kind: p.kind, Detail: p.detail})
	}
	return items
}

type PseudoClassProvider struct {
	tables *knowledge.Tables
}

func NewPseudoClassProvider(tables *knowledge.Tables) *PseudoClassProvider {
	return &PseudoClassProvider{tables: tables}
}

func (p *PseudoClassProvider) GetCompletions() []CompletionItem {
	items := make([]CompletionItem, 0, len(p.tables.PseudoClasses()))
	for _, pc := range p.tables.PseudoClasses() {
		items = append(items, CompletionItem{
			Label:         pc.Name,
			Kind:          KindKeyword,
			Detail:        "Pseudo-class",
			Documentation: pc.Description,
		})
	}
	return items
}

type PropertyProvider struct {
	tables *knowledge.Tables
}

func NewPropertyProvider(tables *knowledge.Tables) *PropertyProvider {
	return &PropertyProvider{tables: tables}
}

func (p *PropertyProvider) GetCompletions() []CompletionItem {
	items := make([]CompletionItem, 0, len(p.tables.Properties()))
	for _, prop := range p.tables.Properties() {
		item := snippet(prop.Name, KindProperty, prop.Syntax, prop.Name+": $0;")
		item.Documentation = fmt.Sprintf("%s\n\n**Initial:** `%s`\n\n**Inherited:** %s", prop.Description, prop.Initial, yesNo(prop.Inherited))
		item.Markdown = true
		items = append(items, item)
	}
	return items
}

// ValueProvider suggests values for a named property: its keywords, then
// colors, functions, and units depending on what the name implies.
type ValueProvider struct {
	tables *knowledge.Tables
}

func NewValueProvider(tables *knowledge.Tables) *ValueProvider {
	return &ValueProvider{tables: tables}
}

var (
	lengthHints = []string{"width", "height", "margin", "padding", "size", "radius", "spacing"}
	angleUnits  = map[string]bool{"deg": true, "rad": true, "turn": true}
)

func (p *ValueProvider) GetCompletions(property string) []CompletionItem {
	var items []CompletionItem

	if prop, ok := p.tables.Property(property); ok {
		for _, v := range prop.Values {
			items = append(items, CompletionItem{Label: v, Kind: KindValue, Detail: "Value for " + property})
		}
	}

	if strings.Contains(property, "color") {
		for _, c := range p.tables.Colors() {
			items = append(items, CompletionItem{Label: c.Name, Kind: KindColor, Detail: c.Hex, Documentation: "Color: " + c.Hex})
		}
		items = append(items,
			snippet("rgb()", KindFunction, "", "rgb(${1:0}, ${2:0}, ${3:0})"),
			snippet("rgba()", KindFunction, "", "rgba(${1:0}, ${2:0}, ${3:0}, ${4:1})"),
		)
	}

	if strings.Contains(property, "image") || strings.Contains(property, "font") || property == "cursor" {
		items = append(items,
			snippet("url()", KindFunction, "", `url("$1")`),
			snippet("resource()", KindFunction, "", `resource("$1")`),
		)
	}

	items = append(items, snippet("var()", KindFunction, "", "var(--$1)"))

	for _, u := range p.tables.Units() {
		switch {
		case property == "rotate" && angleUnits[u.Name]:
		case containsAny(property, lengthHints) && !angleUnits[u.Name] && u.Name != "s" && u.Name != "ms":
		case (strings.Contains(property, "duration") || strings.Contains(property, "delay")) && (u.Name == "s" || u.Name == "ms"):
		default:
			continue
		}
		items = append(items, snippet("0"+u.Name, KindUnit, u.Description, "${1:0}"+u.Name))
	}

	return items
}

type UrlProvider struct{}

func NewUrlProvider() *UrlProvider {
	return &UrlProvider{}
}

func (p *UrlProvider) GetCompletions() []CompletionItem {
	return []CompletionItem{
		{Label: "Assets/", Kind: KindFolder, Detail: "Assets folder"},
		{Label: "project://database/", Kind: KindReference, Detail: "Project database path"},
		{Label: "resource://", Kind: KindReference, Detail: "Resources folder path"},
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
