// Package lsp serves the workspace over the Language Server Protocol.
package lsp

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ussls/pkg/lsp/protocol"
	"github.com/walteh/ussls/pkg/semtok"
	"github.com/walteh/ussls/pkg/workspace"
)

const LanguageID = "uss"

// TriggerCharacters open completion without an explicit request.
var TriggerCharacters = []string{".", "#", ":", "-", "/", "("}

// Server represents an LSP server instance
type Server struct {
	id      string
	version string

	workspace *workspace.Workspace

	// LSP client for notifications
	callbackClient protocol.Client

	initialized atomic.Bool
	shutdown    atomic.Bool
	exited      atomic.Bool

	onExit func()
}

var _ protocol.Server = (*Server)(nil)

type Option func(*Server)

// WithVersion sets the version reported in the initialize result.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithExitHandler runs fn once the client sends exit.
func WithExitHandler(fn func()) Option {
	return func(s *Server) { s.onExit = fn }
}

func NewServer(ws *workspace.Workspace, opts ...Option) *Server {
	s := &Server{
		id:        xid.New().String(),
		version:   "dev",
		workspace: ws,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) SetCallbackClient(client protocol.Client) {
	s.callbackClient = client
}

func (s *Server) Workspace() *workspace.Workspace {
	return s.workspace
}

// ExitCode is 0 when exit followed shutdown and 1 otherwise.
func (s *Server) ExitCode() int {
	if s.shutdown.Load() {
		return 0
	}
	return 1
}

// BuildServer wires the server into a jrpc2 server and keeps its callback
// client for diagnostics publishing.
func (s *Server) BuildServer(ctx context.Context, opts *jrpc2.ServerOptions, serveOpts ...protocol.ServeOption) *jrpc2.Server {
	srv, callback := protocol.NewServerServer(ctx, s, opts, serveOpts...)
	s.SetCallbackClient(callback)
	return srv
}

// StartAndWait serves LSP framed messages on r and w until the client exits
// or the stream closes.
func (s *Server) StartAndWait(ctx context.Context, r io.Reader, w io.WriteCloser, opts *jrpc2.ServerOptions, serveOpts ...protocol.ServeOption) error {
	srv := s.BuildServer(ctx, opts, serveOpts...)
	prev := s.onExit
	s.onExit = func() {
		if prev != nil {
			prev()
		}
		srv.Stop()
	}

	zerolog.Ctx(ctx).Info().Str("server_id", s.id).Msg("starting language server")

	srv.Start(channel.LSP(r, w))
	if err := srv.Wait(); err != nil && !s.exited.Load() && !errors.Is(err, io.EOF) {
		return errors.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	logger := zerolog.Ctx(ctx)
	if params.ClientInfo != nil {
		logger.Info().Str("client", params.ClientInfo.Name).Str("client_version", params.ClientInfo.Version).Msg("initializing server")
	} else {
		logger.Info().Msg("initializing server")
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.Incremental,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: TriggerCharacters,
				ResolveProvider:   true,
			},
			HoverProvider:                   true,
			DefinitionProvider:              true,
			ReferencesProvider:              true,
			RenameProvider:                  true,
			DocumentFormattingProvider:      true,
			DocumentRangeFormattingProvider: true,
			ColorProvider:                   true,
			DiagnosticProvider: &protocol.DiagnosticOptions{
				Identifier: LanguageID,
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     semtok.TokenTypes,
					TokenModifiers: semtok.TokenModifiers,
				},
				Full:  true,
				Range: true,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "ussls",
			Version: s.version,
		},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	s.initialized.Store(true)
	zerolog.Ctx(ctx).Debug().Msg("server initialized")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdown.Swap(true) {
		return protocol.NewInvalidRequestError("shutdown already requested")
	}
	zerolog.Ctx(ctx).Info().Msg("shutdown requested")
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	if s.exited.Swap(true) {
		return nil
	}
	zerolog.Ctx(ctx).Info().Int("exit_code", s.ExitCode()).Msg("exit requested")
	if s.onExit != nil {
		go s.onExit()
	}
	return nil
}

func (s *Server) SetTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	zerolog.Ctx(ctx).Debug().Str("trace", params.Value).Msg("trace level changed")
	return nil
}

// checkShutdown rejects requests that arrive after shutdown.
func (s *Server) checkShutdown() error {
	if s.shutdown.Load() {
		return protocol.NewInvalidRequestError("server is shut down")
	}
	return nil
}

func (s *Server) publishDiagnostics(ctx context.Context, uri protocol.DocumentURI) error {
	if s.callbackClient == nil {
		zerolog.Ctx(ctx).Warn().Msg("no callback client, skipping publish diagnostics")
		return nil
	}

	params := &protocol.PublishDiagnosticsParams{URI: uri}
	if doc, ok := s.workspace.Document(string(uri)); ok {
		params.Version = doc.Version()
		params.Diagnostics = toProtocolDiagnostics(s.workspace.Diagnostics(ctx, string(uri)))
	}

	zerolog.Ctx(ctx).Debug().Str("uri", string(uri)).Int("count", len(params.Diagnostics)).Msg("publishing diagnostics")

	if err := s.callbackClient.PublishDiagnostics(ctx, params); err != nil {
		return errors.Errorf("publishing diagnostics for %s: %w", uri, err)
	}
	return nil
}
