// Package knowledge exposes the read-only reference tables for Unity Style
// Sheets: properties, UXML elements, pseudo-classes, units, named colors and
// value keywords.
package knowledge

import (
	_ "embed"
	"slices"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

//go:embed uss.yaml
var ussYAML []byte

type Property struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Syntax      string   `yaml:"syntax"`
	Initial     string   `yaml:"initial"`
	Inherited   bool     `yaml:"inherited"`
	Values      []string `yaml:"values"`
}

type Element struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Namespace   string `yaml:"namespace"`
}

type PseudoClass struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Unit struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Color struct {
	Name string `yaml:"name"`
	Hex  string `yaml:"hex"`
}

type Keyword struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type document struct {
	Properties    []Property    `yaml:"properties"`
	Elements      []Element     `yaml:"elements"`
	PseudoClasses []PseudoClass `yaml:"pseudo_classes"`
	Units         []Unit        `yaml:"units"`
	Colors        []Color       `yaml:"colors"`
	Keywords      []Keyword     `yaml:"keywords"`
}

// Tables is immutable once built; every accessor is safe for concurrent use.
type Tables struct {
	doc           document
	properties    map[string]*Property
	elements      map[string]*Element
	pseudoClasses map[string]*PseudoClass
	colors        map[string]*Color
	keywords      map[string]*Keyword
}

// Parse builds tables from YAML in the embedded file's format.
func Parse(data []byte) (*Tables, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Errorf("decoding knowledge tables: %w", err)
	}
	if len(doc.Properties) == 0 {
		return nil, errors.New("knowledge tables define no properties")
	}
	return newTables(doc), nil
}

func newTables(doc document) *Tables {
	t := &Tables{
		doc:           doc,
		properties:    make(map[string]*Property, len(doc.Properties)),
		elements:      make(map[string]*Element, len(doc.Elements)),
		pseudoClasses: make(map[string]*PseudoClass, len(doc.PseudoClasses)),
		colors:        make(map[string]*Color, len(doc.Colors)),
		keywords:      make(map[string]*Keyword, len(doc.Keywords)),
	}
	slices.SortFunc(t.doc.Properties, func(a, b Property) int { return strings.Compare(a.Name, b.Name) })
	for i := range t.doc.Properties {
		t.properties[t.doc.Properties[i].Name] = &t.doc.Properties[i]
	}
	for i := range t.doc.Elements {
		t.elements[t.doc.Elements[i].Name] = &t.doc.Elements[i]
	}
	for i := range t.doc.PseudoClasses {
		t.pseudoClasses[t.doc.PseudoClasses[i].Name] = &t.doc.PseudoClasses[i]
	}
	for i := range t.doc.Colors {
		t.colors[t.doc.Colors[i].Name] = &t.doc.Colors[i]
	}
	for i := range t.doc.Keywords {
		t.keywords[t.doc.Keywords[i].Name] = &t.doc.Keywords[i]
	}
	return t
}

var defaultTables = sync.OnceValue(func() *Tables {
	t, err := Parse(ussYAML)
	if err != nil {
		panic(err)
	}
	return t
})

// Default returns the tables compiled into the binary.
func Default() *Tables {
	return defaultTables()
}

// WithProperties returns a copy of t that also accepts the named properties.
// Names already present keep their existing definition.
func (t *Tables) WithProperties(names ...string) *Tables {
	doc := t.doc
	doc.Properties = slices.Clone(t.doc.Properties)
	for _, name := range names {
		if _, ok := t.properties[name]; ok || name == "" {
			continue
		}
		doc.Properties = append(doc.Properties, Property{Name: name, Description: "Project-defined property.", Syntax: "<any>"})
	}
	return newTables(doc)
}

func (t *Tables) Property(name string) (*Property, bool) {
	p, ok := t.properties[name]
	return p, ok
}

func (t *Tables) IsKnownProperty(name string) bool {
	_, ok := t.properties[name]
	return ok
}

func (t *Tables) Element(name string) (*Element, bool) {
	e, ok := t.elements[name]
	return e, ok
}

func (t *Tables) PseudoClass(name string) (*PseudoClass, bool) {
	p, ok := t.pseudoClasses[name]
	return p, ok
}

func (t *Tables) Color(name string) (*Color, bool) {
	c, ok := t.colors[name]
	return c, ok
}

func (t *Tables) Keyword(name string) (*Keyword, bool) {
	k, ok := t.keywords[name]
	return k, ok
}

// UnitOf returns the unit a numeric literal such as "10px" ends with. Longer
// unit names win so "10rem" resolves to rem, not em.
func (t *Tables) UnitOf(literal string) (*Unit, bool) {
	var best *Unit
	for i := range t.doc.Units {
		u := &t.doc.Units[i]
		if strings.HasSuffix(literal, u.Name) && (best == nil || len(u.Name) > len(best.Name)) {
			best = u
		}
	}
	return best, best != nil
}

// Properties are sorted by name.
func (t *Tables) Properties() []Property { return t.doc.Properties }
func (t *Tables) Elements() []Element { return t.doc.Elements }
func (t *Tables) PseudoClasses() []PseudoClass { return t.doc.PseudoClasses }
func (t *Tables) Units() []Unit { return t.doc.Units }
func (t *Tables) Colors() []Color { return t.doc.Colors }
func (t *Tables) Keywords() []Keyword { return t.doc.Keywords }
