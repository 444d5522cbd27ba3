package lsp

import (
	"github.com/walteh/ussls/pkg/buffer"
	"github.com/walteh/ussls/pkg/color"
	"github.com/walteh/ussls/pkg/completion/providers"
	"github.com/walteh/ussls/pkg/diagnostic"
	"github.com/walteh/ussls/pkg/format"
	"github.com/walteh/ussls/pkg/lsp/protocol"
	"github.com/walteh/ussls/pkg/position"
)

func toPlace(p protocol.Position) position.Place {
	return position.Place{Line: int(p.Line), Character: int(p.Character)}
}

func toRange(r protocol.Range) position.Range {
	return position.Range{Start: toPlace(r.Start), End: toPlace(r.End)}
}

func toProtocolPosition(p position.Place) protocol.Position {
	return protocol.Position{Line: uint32(max(p.Line, 0)), Character: uint32(max(p.Character, 0))}
}

func toProtocolRange(r position.Range) protocol.Range {
	return protocol.Range{Start: toProtocolPosition(r.Start), End: toProtocolPosition(r.End)}
}

func toProtocolEdits(edits []buffer.Edit) []protocol.TextEdit {
	out := make([]protocol.TextEdit, len(edits))
	for i, e := range edits {
		out[i] = protocol.TextEdit{Range: toProtocolRange(e.Range), NewText: e.NewText}
	}
	return out
}

func toProtocolDiagnostics(diags []diagnostic.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, len(diags))
	for i, d := range diags {
		out[i] = protocol.Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: protocol.DiagnosticSeverity(d.Severity),
			Source:   d.Source,
			Message:  d.Message,
		}
	}
	return out
}

func toProtocolCompletionItem(item providers.CompletionItem) protocol.CompletionItem {
	out := protocol.CompletionItem{
		Label:      item.Label,
		Kind:       protocol.CompletionItemKind(item.Kind),
		Detail:     item.Detail,
		InsertText: item.InsertText,
	}
	if item.Documentation != "" {
		kind := protocol.PlainText
		if item.Markdown {
			kind = protocol.Markdown
		}
		out.Documentation = &protocol.MarkupContent{Kind: kind, Value: item.Documentation}
	}
	if item.Snippet {
		out.InsertTextFormat = protocol.SnippetTextFormat
	}
	return out
}

func fromProtocolCompletionItem(item protocol.CompletionItem) providers.CompletionItem {
	out := providers.CompletionItem{
		Label:      item.Label,
		Kind:       providers.ItemKind(item.Kind),
		Detail:     item.Detail,
		InsertText: item.InsertText,
		Snippet:    item.InsertTextFormat == protocol.SnippetTextFormat,
	}
	if item.Documentation != nil {
		out.Documentation = item.Documentation.Value
		out.Markdown = item.Documentation.Kind == protocol.Markdown
	}
	return out
}

// toFormatOptions maps editor options. A zero tab size defers to the
// configured options.
func toFormatOptions(o protocol.FormattingOptions) format.Options {
	return format.Options{UseSpaces: o.InsertSpaces, IndentWidth: int(o.TabSize)}
}

func toProtocolColor(c color.RGBA) protocol.Color {
	return protocol.Color{Red: c.Red, Green: c.Green, Blue: c.Blue, Alpha: c.Alpha}
}

func fromProtocolColor(c protocol.Color) color.RGBA {
	return color.RGBA{Red: c.Red, Green: c.Green, Blue: c.Blue, Alpha: c.Alpha}
}
