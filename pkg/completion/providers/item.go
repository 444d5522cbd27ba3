package providers

// ItemKind uses the numeric values of the LSP CompletionItemKind enum.
type ItemKind int

const (
	KindText      ItemKind = 1
	KindFunction  ItemKind = 3
	KindVariable  ItemKind = 6
	KindClass     ItemKind = 7
	KindProperty  ItemKind = 10
	KindUnit      ItemKind = 11
	KindValue     ItemKind = 12
	KindKeyword   ItemKind = 14
	KindSnippet   ItemKind = 15
	KindColor     ItemKind = 16
	KindReference ItemKind = 18
	KindFolder    ItemKind = 19
)

// CompletionItem represents a single completion suggestion
type CompletionItem struct {
	Label         string   `json:"label"`
	Kind          ItemKind `json:"kind"`
	Detail        string   `json:"detail,omitempty"`
	Documentation string   `json:"documentation,omitempty"`
	// Markdown marks Documentation as markdown rather than plain text.
	Markdown   bool   `json:"markdown,omitempty"`
	InsertText string `json:"insertText,omitempty"`
	// Snippet marks InsertText as an LSP snippet.
	Snippet bool `json:"snippet,omitempty"`
}

func snippet(label string, kind ItemKind, detail, insert string) CompletionItem {
	return CompletionItem{Label: label, Kind: kind, Detail: detail, InsertText: insert, Snippet: true}
}
