package lsp_test

import (
	"context"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ussls/pkg/diff"
	"github.com/walteh/ussls/pkg/knowledge"
	"github.com/walteh/ussls/pkg/lsp"
	"github.com/walteh/ussls/pkg/lsp/protocol"
	"github.com/walteh/ussls/pkg/semtok"
	"github.com/walteh/ussls/pkg/workspace"
)

const uri = protocol.DocumentURI("file:///Assets/UI/card.uss")

const sheet = `:root {
    --accent: #ff0000;
}

.card {
    color: var(--accent);
    width: 100px;
}
`

type harness struct {
	t       *testing.T
	ctx     context.Context
	server  *lsp.Server
	caller  *protocol.ServerCaller
	tracker *protocol.RPCTracker
	exited  chan struct{}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	ctx = zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel).WithContext(ctx)

	h := &harness{
		t:       t,
		ctx:     ctx,
		tracker: protocol.NewRPCTracker(),
		exited:  make(chan struct{}),
	}

	h.server = lsp.NewServer(
		workspace.New(knowledge.Default()),
		lsp.WithVersion("test"),
		lsp.WithExitHandler(func() { close(h.exited) }),
	)

	srv := h.server.BuildServer(ctx, &jrpc2.ServerOptions{
		RPCLog:      protocol.NewMultiRPCLogger(protocol.NewTestLogger(t, nil), h.tracker),
		Concurrency: 1,
	})

	cch, sch := channel.Direct()
	srv.Start(sch)
	cli := jrpc2.NewClient(cch, &jrpc2.ClientOptions{
		OnNotify: func(*jrpc2.Request) {},
	})
	h.caller = protocol.NewServerCaller(cli)

	t.Cleanup(func() {
		cli.Close()
		srv.Stop()
		cancel()
	})

	_, err := h.caller.Initialize(ctx, &protocol.ParamInitialize{ProcessID: 1, ClientInfo: &protocol.ClientInfo{Name: "test"}})
	require.NoError(t, err)
	require.NoError(t, h.caller.Initialized(ctx, &protocol.InitializedParams{}))

	return h
}

func (h *harness) open(text string) {
	h.t.Helper()
	require.NoError(h.t, h.caller.DidOpen(h.ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: lsp.LanguageID, Version: 1, Text: text},
	}))
}

// published waits for the nth publishDiagnostics notification, counting
// from one.
func (h *harness) published(n int) protocol.PublishDiagnosticsParams {
	h.t.Helper()
	msgs, ok := h.tracker.WaitForMessages(n, 5*time.Second, protocol.IsCallback("textDocument/publishDiagnostics"))
	require.True(h.t, ok, "expected %d diagnostics notifications, got %d", n, len(msgs))
	var params protocol.PublishDiagnosticsParams
	require.NoError(h.t, msgs[n-1].Decode(&params))
	return params
}

func pos(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

func rng(sl, sc, el, ec uint32) protocol.Range {
	return protocol.Range{Start: pos(sl, sc), End: pos(el, ec)}
}

func at(line, char uint32) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}, Position: pos(line, char)}
}

func TestInitialize(t *testing.T) {
	h := newHarness(t)

	result, err := h.caller.Initialize(h.ctx, &protocol.ParamInitialize{ProcessID: 1})
	require.NoError(t, err)

	caps := result.Capabilities
	assert.Equal(t, protocol.Incremental, caps.TextDocumentSync.Change)
	assert.True(t, caps.TextDocumentSync.OpenClose)
	assert.True(t, caps.TextDocumentSync.Save.IncludeText)
	assert.Equal(t, []string{".", "#", ":", "-", "/", "("}, caps.CompletionProvider.TriggerCharacters)
	assert.True(t, caps.CompletionProvider.ResolveProvider)
	assert.True(t, caps.HoverProvider)
	assert.True(t, caps.DefinitionProvider)
	assert.True(t, caps.ReferencesProvider)
	assert.True(t, caps.RenameProvider)
	assert.True(t, caps.DocumentFormattingProvider)
	assert.True(t, caps.DocumentRangeFormattingProvider)
	assert.True(t, caps.ColorProvider)
	require.NotNil(t, caps.DiagnosticProvider)
	require.NotNil(t, caps.SemanticTokensProvider)
	assert.Equal(t, semtok.TokenTypes, caps.SemanticTokensProvider.Legend.TokenTypes)
	assert.Equal(t, semtok.TokenModifiers, caps.SemanticTokensProvider.Legend.TokenModifiers)
	assert.True(t, caps.SemanticTokensProvider.Full)
	assert.True(t, caps.SemanticTokensProvider.Range)
	assert.Equal(t, "ussls", result.ServerInfo.Name)
	assert.Equal(t, "test", result.ServerInfo.Version)
}

func TestDiagnosticsLifecycle(t *testing.T) {
	h := newHarness(t)

	h.open("Button {\n    color: #1234567;\n")
	first := h.published(1)
	assert.Equal(t, uri, first.URI)
	assert.Equal(t, int32(1), first.Version)
	require.Len(t, first.Diagnostics, 2)
	for _, d := range first.Diagnostics {
		assert.Equal(t, protocol.SeverityError, d.Severity)
		assert.Equal(t, "uss", d.Source)
	}
	assert.Contains(t, first.Diagnostics[0].Message, "hex color length: 7")
	assert.Equal(t, rng(1, 11, 1, 19), first.Diagnostics[0].Range)
	assert.Contains(t, first.Diagnostics[1].Message, "Unclosed brace")
	assert.Equal(t, uint32(2), first.Diagnostics[1].Range.Start.Line)

	// drop the extra digit
	require.NoError(t, h.caller.DidChange(h.ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Range: ptr(rng(1, 18, 1, 19)), Text: ""},
		},
	}))
	partial := h.published(2)
	require.Len(t, partial.Diagnostics, 1)
	assert.Contains(t, partial.Diagnostics[0].Message, "Unclosed brace")

	require.NoError(t, h.caller.DidChange(h.ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{URI: uri, Version: 3},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Range: ptr(rng(2, 0, 2, 0)), Text: "}\n"},
		},
	}))
	fixed := h.published(3)
	assert.Equal(t, int32(3), fixed.Version)
	assert.Empty(t, fixed.Diagnostics)

	pulled, err := h.caller.Diagnostic(h.ctx, &protocol.DocumentDiagnosticParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}})
	require.NoError(t, err)
	assert.Equal(t, protocol.DiagnosticFull, pulled.Kind)
	assert.Empty(t, pulled.Items)

	require.NoError(t, h.caller.DidSave(h.ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Text:         ptr("Button {\n    colour: red;\n}\n"),
	}))
	saved := h.published(4)
	require.Len(t, saved.Diagnostics, 1)
	assert.Equal(t, protocol.SeverityWarning, saved.Diagnostics[0].Severity)
	assert.Contains(t, saved.Diagnostics[0].Message, "colour")

	require.NoError(t, h.caller.DidClose(h.ctx, &protocol.DidCloseTextDocumentParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}}))
	closed := h.published(5)
	assert.Equal(t, uri, closed.URI)
	assert.NotNil(t, closed.Diagnostics)
	assert.Empty(t, closed.Diagnostics)
}

func ptr[T any](v T) *T {
	return &v
}

func TestCompletion(t *testing.T) {
	h := newHarness(t)
	h.open(".card {\n    width: \n}\n")
	h.published(1)

	t.Run("property value", func(t *testing.T) {
		list, err := h.caller.Completion(h.ctx, &protocol.CompletionParams{TextDocumentPositionParams: at(1, 11)})
		require.NoError(t, err)
		labels := make([]string, len(list.Items))
		for i, item := range list.Items {
			labels[i] = item.Label
		}
		assert.Contains(t, labels, "auto")
		assert.Contains(t, labels, "px")
		assert.Contains(t, labels, "var()")
	})

	t.Run("property name with resolve", func(t *testing.T) {
		list, err := h.caller.Completion(h.ctx, &protocol.CompletionParams{TextDocumentPositionParams: at(2, 0)})
		require.NoError(t, err)
		require.NotEmpty(t, list.Items)
		assert.False(t, list.IsIncomplete)

		var width *protocol.CompletionItem
		for i := range list.Items {
			if list.Items[i].Label == "width" {
				width = &list.Items[i]
			}
		}
		require.NotNil(t, width)
		assert.Equal(t, protocol.SnippetTextFormat, width.InsertTextFormat)
		assert.Equal(t, "width: $0;", width.InsertText)

		resolved, err := h.caller.ResolveCompletionItem(h.ctx, width)
		require.NoError(t, err)
		require.NotNil(t, resolved.Documentation)
		assert.Equal(t, protocol.Markdown, resolved.Documentation.Kind)
		assert.Contains(t, resolved.Documentation.Value, "## width")
	})
}

func TestNavigation(t *testing.T) {
	h := newHarness(t)
	h.open(sheet)
	h.published(1)

	t.Run("hover", func(t *testing.T) {
		hover, err := h.caller.Hover(h.ctx, &protocol.HoverParams{TextDocumentPositionParams: at(6, 6)})
		require.NoError(t, err)
		require.NotNil(t, hover)
		assert.Equal(t, protocol.Markdown, hover.Contents.Kind)
		assert.Contains(t, hover.Contents.Value, "## width")
		assert.Equal(t, rng(6, 4, 6, 9), *hover.Range)
	})

	t.Run("hover on nothing", func(t *testing.T) {
		hover, err := h.caller.Hover(h.ctx, &protocol.HoverParams{TextDocumentPositionParams: at(3, 0)})
		require.NoError(t, err)
		assert.Nil(t, hover)
	})

	t.Run("definition", func(t *testing.T) {
		locs, err := h.caller.Definition(h.ctx, &protocol.DefinitionParams{TextDocumentPositionParams: at(5, 18)})
		require.NoError(t, err)
		require.Len(t, locs, 1)
		assert.Equal(t, protocol.Location{URI: uri, Range: rng(1, 4, 1, 12)}, locs[0])
	})

	t.Run("references", func(t *testing.T) {
		all, err := h.caller.References(h.ctx, &protocol.ReferenceParams{
			TextDocumentPositionParams: at(5, 18),
			Context:                    protocol.ReferenceContext{IncludeDeclaration: true},
		})
		require.NoError(t, err)
		assert.Equal(t, []protocol.Location{
			{URI: uri, Range: rng(1, 4, 1, 12)},
			{URI: uri, Range: rng(5, 15, 5, 23)},
		}, all)

		usages, err := h.caller.References(h.ctx, &protocol.ReferenceParams{TextDocumentPositionParams: at(5, 18)})
		require.NoError(t, err)
		assert.Equal(t, []protocol.Location{{URI: uri, Range: rng(5, 15, 5, 23)}}, usages)
	})

	t.Run("rename", func(t *testing.T) {
		edit, err := h.caller.Rename(h.ctx, &protocol.RenameParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos(1, 6),
			NewName:      "--brand",
		})
		require.NoError(t, err)
		require.NotNil(t, edit)
		diff.RequireKnownValueEqual(t, map[protocol.DocumentURI][]protocol.TextEdit{
			uri: {
				{Range: rng(1, 4, 1, 12), NewText: "--brand"},
				{Range: rng(5, 15, 5, 23), NewText: "--brand"},
			},
		}, edit.Changes)
	})

	t.Run("rename with no occurrences", func(t *testing.T) {
		edit, err := h.caller.Rename(h.ctx, &protocol.RenameParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos(3, 0),
			NewName:      "--brand",
		})
		require.NoError(t, err)
		assert.Nil(t, edit)
	})
}

func TestFormattingAndColors(t *testing.T) {
	h := newHarness(t)
	h.open(".card{color:#ff0000;}\n")
	h.published(1)

	t.Run("formatting", func(t *testing.T) {
		edits, err := h.caller.Formatting(h.ctx, &protocol.DocumentFormattingParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Options:      protocol.FormattingOptions{TabSize: 2, InsertSpaces: true},
		})
		require.NoError(t, err)
		require.Len(t, edits, 1)
		assert.Equal(t, ".card {\n  color: #ff0000;\n}\n", edits[0].NewText)
		assert.Equal(t, pos(0, 0), edits[0].Range.Start)
	})

	t.Run("colors", func(t *testing.T) {
		infos, err := h.caller.DocumentColor(h.ctx, &protocol.DocumentColorParams{TextDocument: protocol.TextDocumentIdentifier{URI: uri}})
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, rng(0, 12, 0, 19), infos[0].Range)
		assert.InDelta(t, 1.0, infos[0].Color.Red, 0.001)
		assert.InDelta(t, 0.0, infos[0].Color.Green, 0.001)
		assert.InDelta(t, 1.0, infos[0].Color.Alpha, 0.001)

		presentations, err := h.caller.ColorPresentation(h.ctx, &protocol.ColorPresentationParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Color:        infos[0].Color,
			Range:        infos[0].Range,
		})
		require.NoError(t, err)
		require.Len(t, presentations, 2)
		assert.Equal(t, "#FF0000", presentations[0].Label)
		assert.Equal(t, "rgb(255, 0, 0)", presentations[1].Label)
		assert.Equal(t, infos[0].Range, presentations[0].TextEdit.Range)
	})
}

func TestSemanticTokens(t *testing.T) {
	h := newHarness(t)
	h.open(sheet)
	h.published(1)

	var (
		pseudo   = uint32(semtok.TokenPseudoClass)
		class    = uint32(semtok.TokenClass)
		property = uint32(semtok.TokenProperty)
		variable = uint32(semtok.TokenVariable)
		function = uint32(semtok.TokenFunction)
		number   = uint32(semtok.TokenNumber)
		decl     = uint32(semtok.ModifierDeclaration)
		known    = uint32(semtok.ModifierDefaultLibrary)
	)

	t.Run("full", func(t *testing.T) {
		result, err := h.caller.SemanticTokensFull(h.ctx, &protocol.SemanticTokensParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		})
		require.NoError(t, err)
		assert.Equal(t, []uint32{
			0, 0, 5, pseudo, 0,
			1, 4, 8, variable, decl,
			0, 10, 7, number, 0,
			3, 0, 5, class, 0,
			1, 4, 5, property, known,
			0, 7, 3, function, 0,
			0, 4, 8, variable, 0,
			1, 4, 5, property, known,
			0, 7, 5, number, 0,
		}, result.Data)
	})

	t.Run("range", func(t *testing.T) {
		result, err := h.caller.SemanticTokensRange(h.ctx, &protocol.SemanticTokensRangeParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Range:        rng(6, 0, 7, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, []uint32{
			6, 4, 5, property, known,
			0, 7, 5, number, 0,
		}, result.Data)
	})

	t.Run("unknown document", func(t *testing.T) {
		result, err := h.caller.SemanticTokensFull(h.ctx, &protocol.SemanticTokensParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///missing.uss"},
		})
		require.NoError(t, err)
		assert.NotNil(t, result.Data)
		assert.Empty(t, result.Data)
	})
}

func TestUnknownDocument(t *testing.T) {
	h := newHarness(t)
	params := at(0, 0)
	params.TextDocument.URI = "file:///missing.uss"

	list, err := h.caller.Completion(h.ctx, &protocol.CompletionParams{TextDocumentPositionParams: params})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	hover, err := h.caller.Hover(h.ctx, &protocol.HoverParams{TextDocumentPositionParams: params})
	require.NoError(t, err)
	assert.Nil(t, hover)

	locs, err := h.caller.Definition(h.ctx, &protocol.DefinitionParams{TextDocumentPositionParams: params})
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestShutdownAndExit(t *testing.T) {
	h := newHarness(t)
	h.open(sheet)
	h.published(1)

	require.NoError(t, h.caller.Shutdown(h.ctx))

	_, err := h.caller.Hover(h.ctx, &protocol.HoverParams{TextDocumentPositionParams: at(6, 6)})
	require.Error(t, err)
	var jerr *jrpc2.Error
	require.True(t, errors.As(err, &jerr))
	assert.EqualValues(t, -32600, jerr.Code)

	assert.Error(t, h.caller.Shutdown(h.ctx))

	require.NoError(t, h.caller.Exit(h.ctx))
	select {
	case <-h.exited:
	case <-h.ctx.Done():
		t.Fatal("exit handler not called")
	}
	assert.Equal(t, 0, h.server.ExitCode())
}
