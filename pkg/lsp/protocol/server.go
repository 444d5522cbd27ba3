package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

// Server is the set of client-to-server methods ussls answers.
type Server interface {
	Initialize(context.Context, *ParamInitialize) (*InitializeResult, error)
	Initialized(context.Context, *InitializedParams) error
	Shutdown(context.Context) error
	Exit(context.Context) error
	SetTrace(context.Context, *SetTraceParams) error

	DidOpen(context.Context, *DidOpenTextDocumentParams) error
	DidChange(context.Context, *DidChangeTextDocumentParams) error
	DidSave(context.Context, *DidSaveTextDocumentParams) error
	DidClose(context.Context, *DidCloseTextDocumentParams) error

	Completion(context.Context, *CompletionParams) (*CompletionList, error)
	ResolveCompletionItem(context.Context, *CompletionItem) (*CompletionItem, error)
	Hover(context.Context, *HoverParams) (*Hover, error)
	Definition(context.Context, *DefinitionParams) ([]Location, error)
	References(context.Context, *ReferenceParams) ([]Location, error)
	Rename(context.Context, *RenameParams) (*WorkspaceEdit, error)
	Formatting(context.Context, *DocumentFormattingParams) ([]TextEdit, error)
	RangeFormatting(context.Context, *DocumentRangeFormattingParams) ([]TextEdit, error)
	DocumentColor(context.Context, *DocumentColorParams) ([]ColorInformation, error)
	ColorPresentation(context.Context, *ColorPresentationParams) ([]ColorPresentation, error)
	Diagnostic(context.Context, *DocumentDiagnosticParams) (*DocumentDiagnosticReport, error)
	SemanticTokensFull(context.Context, *SemanticTokensParams) (*SemanticTokens, error)
	SemanticTokensRange(context.Context, *SemanticTokensRangeParams) (*SemanticTokens, error)
}

func buildServerDispatchMap(server Server) handler.Map {
	return handler.Map{
		"$/cancelRequest":                   createEmptyResultHandler(cancelRequest),
		"$/setTrace":                        createEmptyResultHandler(server.SetTrace),
		"completionItem/resolve":            createHandler(server.ResolveCompletionItem),
		"exit":                              createEmptyHandler(server.Exit),
		"initialize":                        createHandler(server.Initialize),
		"initialized":                       createEmptyResultHandler(server.Initialized),
		"shutdown":                          createEmptyHandler(server.Shutdown),
		"textDocument/colorPresentation":    createHandler(server.ColorPresentation),
		"textDocument/completion":           createHandler(server.Completion),
		"textDocument/definition":           createHandler(server.Definition),
		"textDocument/diagnostic":           createHandler(server.Diagnostic),
		"textDocument/didChange":            createEmptyResultHandler(server.DidChange),
		"textDocument/didClose":             createEmptyResultHandler(server.DidClose),
		"textDocument/didOpen":              createEmptyResultHandler(server.DidOpen),
		"textDocument/didSave":              createEmptyResultHandler(server.DidSave),
		"textDocument/documentColor":        createHandler(server.DocumentColor),
		"textDocument/formatting":           createHandler(server.Formatting),
		"textDocument/hover":                createHandler(server.Hover),
		"textDocument/rangeFormatting":      createHandler(server.RangeFormatting),
		"textDocument/references":           createHandler(server.References),
		"textDocument/rename":               createHandler(server.Rename),
		"textDocument/semanticTokens/full":  createHandler(server.SemanticTokensFull),
		"textDocument/semanticTokens/range": createHandler(server.SemanticTokensRange),
	}
}

// cancelRequest accepts $/cancelRequest. Queries run to completion, so there
// is nothing to interrupt.
func cancelRequest(ctx context.Context, params *CancelParams) error {
	return nil
}

// ServerCaller calls a Server over a jrpc2 client. Tests use it to drive a
// server the way an editor would.
type ServerCaller struct {
	client *jrpc2.Client
}

func NewServerCaller(client *jrpc2.Client) *ServerCaller {
	return &ServerCaller{client: client}
}

func (s *ServerCaller) Initialize(ctx context.Context, params *ParamInitialize) (*InitializeResult, error) {
	var result InitializeResult
	if err := createClientCall(ctx, s.client, "initialize", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *ServerCaller) Initialized(ctx context.Context, params *InitializedParams) error {
	return createClientNotify(ctx, s.client, "initialized", params)
}

func (s *ServerCaller) Shutdown(ctx context.Context) error {
	return createClientEmptyCall(ctx, s.client, "shutdown")
}

func (s *ServerCaller) Exit(ctx context.Context) error {
	return createClientEmptyNotify(ctx, s.client, "exit")
}

func (s *ServerCaller) SetTrace(ctx context.Context, params *SetTraceParams) error {
	return createClientNotify(ctx, s.client, "$/setTrace", params)
}

func (s *ServerCaller) DidOpen(ctx context.Context, params *DidOpenTextDocumentParams) error {
	return createClientNotify(ctx, s.client, "textDocument/didOpen", params)
}

func (s *ServerCaller) DidChange(ctx context.Context, params *DidChangeTextDocumentParams) error {
	return createClientNotify(ctx, s.client, "textDocument/didChange", params)
}

func (s *ServerCaller) DidSave(ctx context.Context, params *DidSaveTextDocumentParams) error {
	return createClientNotify(ctx, s.client, "textDocument/didSave", params)
}

func (s *ServerCaller) DidClose(ctx context.Context, params *DidCloseTextDocumentParams) error {
	return createClientNotify(ctx, s.client, "textDocument/didClose", params)
}

func (s *ServerCaller) Completion(ctx context.Context, params *CompletionParams) (*CompletionList, error) {
	var result *CompletionList
	if err := createClientCall(ctx, s.client, "textDocument/completion", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) ResolveCompletionItem(ctx context.Context, params *CompletionItem) (*CompletionItem, error) {
	var result *CompletionItem
	if err := createClientCall(ctx, s.client, "completionItem/resolve", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) Hover(ctx context.Context, params *HoverParams) (*Hover, error) {
	var result *Hover
	if err := createClientCall(ctx, s.client, "textDocument/hover", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) Definition(ctx context.Context, params *DefinitionParams) ([]Location, error) {
	var result []Location
	if err := createClientCall(ctx, s.client, "textDocument/definition", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) References(ctx context.Context, params *ReferenceParams) ([]Location, error) {
	var result []Location
	if err := createClientCall(ctx, s.client, "textDocument/references", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) Rename(ctx context.Context, params *RenameParams) (*WorkspaceEdit, error) {
	var result *WorkspaceEdit
	if err := createClientCall(ctx, s.client, "textDocument/rename", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) Formatting(ctx context.Context, params *DocumentFormattingParams) ([]TextEdit, error) {
	var result []TextEdit
	if err := createClientCall(ctx, s.client, "textDocument/formatting", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) RangeFormatting(ctx context.Context, params *DocumentRangeFormattingParams) ([]TextEdit, error) {
	var result []TextEdit
	if err := createClientCall(ctx, s.client, "textDocument/rangeFormatting", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) DocumentColor(ctx context.Context, params *DocumentColorParams) ([]ColorInformation, error) {
	var result []ColorInformation
	if err := createClientCall(ctx, s.client, "textDocument/documentColor", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) ColorPresentation(ctx context.Context, params *ColorPresentationParams) ([]ColorPresentation, error) {
	var result []ColorPresentation
	if err := createClientCall(ctx, s.client, "textDocument/colorPresentation", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) Diagnostic(ctx context.Context, params *DocumentDiagnosticParams) (*DocumentDiagnosticReport, error) {
	var result *DocumentDiagnosticReport
	if err := createClientCall(ctx, s.client, "textDocument/diagnostic", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) SemanticTokensFull(ctx context.Context, params *SemanticTokensParams) (*SemanticTokens, error) {
	var result *SemanticTokens
	if err := createClientCall(ctx, s.client, "textDocument/semanticTokens/full", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ServerCaller) SemanticTokensRange(ctx context.Context, params *SemanticTokensRangeParams) (*SemanticTokens, error) {
	var result *SemanticTokens
	if err := createClientCall(ctx, s.client, "textDocument/semanticTokens/range", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}
