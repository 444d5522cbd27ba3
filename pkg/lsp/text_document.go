package lsp

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/document"
	"github.com/walteh/ussls/pkg/lsp/protocol"
	"github.com/walteh/ussls/pkg/semtok"
)

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	if s.shutdown.Load() {
		return nil
	}
	item := params.TextDocument
	zerolog.Ctx(ctx).Debug().Str("uri", string(item.URI)).Int32("version", item.Version).Msg("document opened")

	s.workspace.Open(ctx, string(item.URI), item.LanguageID, item.Text, item.Version)
	return s.publishDiagnostics(ctx, item.URI)
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	if s.shutdown.Load() {
		return nil
	}
	uri := params.TextDocument.URI
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("uri", string(uri)).Int32("version", params.TextDocument.Version).Int("changes", len(params.ContentChanges)).Msg("document changed")

	changes := make([]document.Change, len(params.ContentChanges))
	for i, c := range params.ContentChanges {
		changes[i] = document.Change{Text: c.Text}
		if c.Range != nil {
			r := toRange(*c.Range)
			changes[i].Range = &r
		}
	}

	if !s.workspace.Change(ctx, string(uri), params.TextDocument.Version, changes) {
		logger.Warn().Str("uri", string(uri)).Msg("change for a document that is not open")
		return nil
	}
	return s.publishDiagnostics(ctx, uri)
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	if s.shutdown.Load() {
		return nil
	}
	uri := params.TextDocument.URI
	zerolog.Ctx(ctx).Debug().Str("uri", string(uri)).Bool("with_text", params.Text != nil).Msg("document saved")

	if params.Text != nil {
		if doc, ok := s.workspace.Document(string(uri)); ok {
			s.workspace.Change(ctx, string(uri), doc.Version(), []document.Change{{Text: *params.Text}})
		}
	}
	return s.publishDiagnostics(ctx, uri)
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	zerolog.Ctx(ctx).Debug().Str("uri", string(uri)).Msg("document closed")

	s.workspace.Close(ctx, string(uri))
	if s.shutdown.Load() {
		return nil
	}
	return s.publishDiagnostics(ctx, uri)
}

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	uri := string(params.TextDocument.URI)
	items := s.workspace.Complete(ctx, uri, toPlace(params.Position))

	list := &protocol.CompletionList{Items: make([]protocol.CompletionItem, len(items))}
	for i, item := range items {
		list.Items[i] = toProtocolCompletionItem(item)
	}
	return list, nil
}

func (s *Server) ResolveCompletionItem(ctx context.Context, params *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	resolved := toProtocolCompletionItem(s.workspace.ResolveCompletion(fromProtocolCompletionItem(*params)))
	resolved.Data = params.Data
	return &resolved, nil
}

func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	info, ok := s.workspace.Hover(ctx, string(params.TextDocument.URI), toPlace(params.Position))
	if !ok {
		return nil, nil
	}
	rng := toProtocolRange(info.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: info.Content},
		Range:    &rng,
	}, nil
}

func (s *Server) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	uri := params.TextDocument.URI
	rng, ok := s.workspace.Definition(ctx, string(uri), toPlace(params.Position))
	if !ok {
		return []protocol.Location{}, nil
	}
	return []protocol.Location{{URI: uri, Range: toProtocolRange(rng)}}, nil
}

func (s *Server) References(ctx context.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	uri := params.TextDocument.URI
	pos := toPlace(params.Position)
	refs := s.workspace.References(ctx, string(uri), pos)

	if !params.Context.IncludeDeclaration {
		if def, ok := s.workspace.Definition(ctx, string(uri), pos); ok {
			kept := refs[:0]
			for _, r := range refs {
				if !def.Contains(r.Start) {
					kept = append(kept, r)
				}
			}
			refs = kept
		}
	}

	locations := make([]protocol.Location, len(refs))
	for i, r := range refs {
		locations[i] = protocol.Location{URI: uri, Range: toProtocolRange(r)}
	}
	return locations, nil
}

func (s *Server) Rename(ctx context.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	changes, ok := s.workspace.Rename(ctx, string(params.TextDocument.URI), toPlace(params.Position), params.NewName)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("new_name", params.NewName).Msg("rename has no changes")
		return nil, nil
	}

	edit := &protocol.WorkspaceEdit{Changes: make(map[protocol.DocumentURI][]protocol.TextEdit, len(changes))}
	for uri, edits := range changes {
		edit.Changes[protocol.DocumentURI(uri)] = toProtocolEdits(edits)
	}
	return edit, nil
}

func (s *Server) Formatting(ctx context.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	opts := toFormatOptions(params.Options)
	return toProtocolEdits(s.workspace.Format(ctx, string(params.TextDocument.URI), &opts)), nil
}

func (s *Server) RangeFormatting(ctx context.Context, params *protocol.DocumentRangeFormattingParams) ([]protocol.TextEdit, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	opts := toFormatOptions(params.Options)
	return toProtocolEdits(s.workspace.FormatRange(ctx, string(params.TextDocument.URI), toRange(params.Range), &opts)), nil
}

func (s *Server) DocumentColor(ctx context.Context, params *protocol.DocumentColorParams) ([]protocol.ColorInformation, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	infos := s.workspace.Colors(ctx, string(params.TextDocument.URI))
	out := make([]protocol.ColorInformation, len(infos))
	for i, info := range infos {
		out[i] = protocol.ColorInformation{Range: toProtocolRange(info.Range), Color: toProtocolColor(info.Color)}
	}
	return out, nil
}

func (s *Server) ColorPresentation(ctx context.Context, params *protocol.ColorPresentationParams) ([]protocol.ColorPresentation, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	presentations := s.workspace.ColorPresentations(fromProtocolColor(params.Color))
	out := make([]protocol.ColorPresentation, len(presentations))
	for i, p := range presentations {
		out[i] = protocol.ColorPresentation{
			Label:    p.Label,
			TextEdit: &protocol.TextEdit{Range: params.Range, NewText: p.Label},
		}
	}
	return out, nil
}

func (s *Server) Diagnostic(ctx context.Context, params *protocol.DocumentDiagnosticParams) (*protocol.DocumentDiagnosticReport, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	diags := s.workspace.Diagnostics(ctx, string(params.TextDocument.URI))
	return &protocol.DocumentDiagnosticReport{
		Kind:  protocol.DiagnosticFull,
		Items: toProtocolDiagnostics(diags),
	}, nil
}

func (s *Server) SemanticTokensFull(ctx context.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	tokens := s.workspace.SemanticTokens(ctx, string(params.TextDocument.URI))
	return &protocol.SemanticTokens{Data: semtok.Encode(tokens)}, nil
}

func (s *Server) SemanticTokensRange(ctx context.Context, params *protocol.SemanticTokensRangeParams) (*protocol.SemanticTokens, error) {
	if err := s.checkShutdown(); err != nil {
		return nil, err
	}
	tokens := s.workspace.SemanticTokensRange(ctx, string(params.TextDocument.URI), toRange(params.Range))
	return &protocol.SemanticTokens{Data: semtok.Encode(tokens)}, nil
}
