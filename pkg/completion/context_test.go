package completion

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walteh/ussls/pkg/buffer"
	"github.com/walteh/ussls/pkg/position"
)

// cursorAt returns the position of the '|' marker and the text without it.
func cursorAt(t *testing.T, marked string) (string, position.Place) {
	t.Helper()
	i := strings.Index(marked, "|")
	if i < 0 {
		t.Fatalf("no cursor marker in %q", marked)
	}
	text := marked[:i] + marked[i+1:]
	buf := buffer.New(text)
	return text, buf.ByteOffsetToPosition(i)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    CompletionContext
	}{
		{name: "class selector after dot", content: ".|foo { color: red; }", want: ClassSelector},
		{name: "property value on new line", content: "Button {\n  width: |", want: PropertyValue("width")},
		{name: "pseudo-class after element", content: "Button:|", want: PseudoClass},
		{name: "double colon is not a pseudo-class trigger", content: "Button::|", want: Selector},
		{name: "id selector", content: "#|", want: IdSelector},
		{name: "empty document", content: "|", want: Selector},
		{name: "selector after a closed rule", content: ".a { }\nLa|", want: Selector},
		{name: "property name at block start", content: "Label {\n  |", want: PropertyName},
		{name: "partial property name", content: "Label {\n  flex-d|", want: PropertyName},
		{name: "property name after semicolon", content: "Label {\n  color: red;\n  |", want: PropertyName},
		{name: "bare semicolon", content: "Label {\n  ;|", want: PropertyName},
		{name: "colon anywhere on the line names the text before it", content: "Label { color: red; |", want: PropertyValue("Label { color")},
		{name: "second declaration on one line keeps the first colon", content: ".a { color: red; width: |", want: PropertyValue(".a { color")},
		{name: "selector colon on the rule line", content: "Button:hover { col|", want: PropertyValue("Button")},
		{name: "two colons on the line is a pseudo-class", content: "Button:hover { color:|", want: PseudoClass},
		{name: "single colon after rule opener on one line", content: "Button { color:|", want: PropertyValue("Button { color")},
		{name: "colon right after property in block", content: "Label {\n  color:|", want: PropertyValue("color")},
		{name: "pseudo-class inside selector list", content: ".a:hover, .b:|", want: PseudoClass},
		{name: "colon after non-identifier in block", content: "Label {\n  .x:|", want: PseudoClass},
		{name: "var argument", content: "Label {\n  margin: var(|", want: VariableArgument},
		{name: "var with nested call", content: "Label {\n  color: var(--c, rgb(1, 2, 3)|", want: VariableArgument},
		{name: "closed var falls through", content: "Label {\n  margin: var(--m) |", want: PropertyValue("margin")},
		{name: "url argument", content: "Label {\n  background-image: url(\"Assets/|", want: UrlArgument},
		{name: "resource argument", content: "Label {\n  -unity-font: resource(|", want: UrlArgument},
		{name: "var wins over url", content: "Label {\n  background-image: url(var(|", want: VariableArgument},
		{name: "dot inside a value", content: "Label {\n  width: 1.|", want: ClassSelector},
		{name: "unknown inside block", content: "Label {\n  @import |", want: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, pos := cursorAt(t, tt.content)
			got := Classify(buffer.New(text), pos)
			assert.Equal(t, tt.want, got, "classify %q at %s = %s", text, pos, got)
		})
	}
}

func TestClassifyMissingLine(t *testing.T) {
	buf := buffer.New("Button {\n}")
	assert.Equal(t, Unknown, Classify(buf, position.Place{Line: 5, Character: 0}))
}

func TestClassifyStaleColumn(t *testing.T) {
	buf := buffer.New("Button {\n  width: ")
	assert.Equal(t, PropertyValue("width"), Classify(buf, position.Place{Line: 1, Character: 400}))
}

func TestClassifyIsDeterministic(t *testing.T) {
	text := ".root {\n  --gap: 4px;\n}\nButton:hover, #ok {\n  margin: var(--gap) 2px;\n  background-image: url(\"a.png\");\n}\n"
	buf := buffer.New(text)
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 500; i++ {
		pos := buf.OffsetToPosition(r.IntN(buf.Len() + 1))
		first := Classify(buf, pos)
		for j := 0; j < 3; j++ {
			assert.Equal(t, first, Classify(buf, pos), "position %s", pos)
		}
	}
}

func TestCompletionContextString(t *testing.T) {
	assert.Equal(t, "PropertyValue(width)", PropertyValue("width").String())
	assert.Equal(t, "PseudoClass", PseudoClass.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
