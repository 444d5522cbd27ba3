package protocol_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ussls/pkg/lsp/protocol"
)

// stubServer answers every method with an empty result.
type stubServer struct{}

var _ protocol.Server = stubServer{}

func (stubServer) Initialize(context.Context, *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	return &protocol.InitializeResult{}, nil
}
func (stubServer) Initialized(context.Context, *protocol.InitializedParams) error { return nil }
func (stubServer) Shutdown(context.Context) error                                 { return nil }
func (stubServer) Exit(context.Context) error                                     { return nil }
func (stubServer) SetTrace(context.Context, *protocol.SetTraceParams) error       { return nil }
func (stubServer) DidOpen(context.Context, *protocol.DidOpenTextDocumentParams) error {
	return nil
}
func (stubServer) DidChange(context.Context, *protocol.DidChangeTextDocumentParams) error {
	return nil
}
func (stubServer) DidSave(context.Context, *protocol.DidSaveTextDocumentParams) error {
	return nil
}
func (stubServer) DidClose(context.Context, *protocol.DidCloseTextDocumentParams) error {
	return nil
}
func (stubServer) Completion(context.Context, *protocol.CompletionParams) (*protocol.CompletionList, error) {
	return nil, nil
}
func (stubServer) ResolveCompletionItem(_ context.Context, item *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	return item, nil
}
func (stubServer) Hover(context.Context, *protocol.HoverParams) (*protocol.Hover, error) {
	return nil, nil
}
func (stubServer) Definition(context.Context, *protocol.DefinitionParams) ([]protocol.Location, error) {
	return nil, nil
}
func (stubServer) References(context.Context, *protocol.ReferenceParams) ([]protocol.Location, error) {
	return nil, nil
}
func (stubServer) Rename(context.Context, *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	return nil, nil
}
func (stubServer) Formatting(context.Context, *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	return nil, nil
}
func (stubServer) RangeFormatting(context.Context, *protocol.DocumentRangeFormattingParams) ([]protocol.TextEdit, error) {
	return nil, nil
}
func (stubServer) DocumentColor(context.Context, *protocol.DocumentColorParams) ([]protocol.ColorInformation, error) {
	return nil, nil
}
func (stubServer) ColorPresentation(context.Context, *protocol.ColorPresentationParams) ([]protocol.ColorPresentation, error) {
	return nil, nil
}
func (stubServer) Diagnostic(context.Context, *protocol.DocumentDiagnosticParams) (*protocol.DocumentDiagnosticReport, error) {
	return nil, nil
}
func (stubServer) SemanticTokensFull(context.Context, *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	return nil, nil
}
func (stubServer) SemanticTokensRange(context.Context, *protocol.SemanticTokensRangeParams) (*protocol.SemanticTokens, error) {
	return nil, nil
}

// echoServer publishes an empty diagnostic set on open.
type echoServer struct {
	stubServer
	client *protocol.CallbackClient
}

func (s *echoServer) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{OpenClose: true, Change: protocol.Incremental},
			HoverProvider:    true,
		},
		ServerInfo: &protocol.ServerInfo{Name: params.ClientInfo.Name + "-echo"},
	}, nil
}

func (s *echoServer) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	return s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:     params.TextDocument.URI,
		Version: params.TextDocument.Version,
	})
}

func startServer(t *testing.T, server protocol.Server, tracker *protocol.RPCTracker) (*jrpc2.Client, chan *jrpc2.Request) {
	t.Helper()

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	opts := &jrpc2.ServerOptions{
		RPCLog:      protocol.NewMultiRPCLogger(protocol.NewTestLogger(t, nil), tracker),
		Concurrency: 1,
	}

	srv, callback := protocol.NewServerServer(ctx, server, opts)
	if es, ok := server.(*echoServer); ok {
		es.client = callback
	}

	notifications := make(chan *jrpc2.Request, 16)
	cch, sch := channel.Direct()
	srv.Start(sch)
	cli := jrpc2.NewClient(cch, &jrpc2.ClientOptions{
		OnNotify: func(req *jrpc2.Request) { notifications <- req },
	})

	t.Cleanup(func() {
		cli.Close()
		srv.Stop()
	})

	return cli, notifications
}

func TestInitializeRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tracker := protocol.NewRPCTracker()
	cli, _ := startServer(t, &echoServer{}, tracker)
	caller := protocol.NewServerCaller(cli)

	result, err := caller.Initialize(ctx, &protocol.ParamInitialize{
		ProcessID:  1,
		ClientInfo: &protocol.ClientInfo{Name: "test"},
	})
	require.NoError(t, err)
	assert.Equal(t, "test-echo", result.ServerInfo.Name)
	assert.Equal(t, protocol.Incremental, result.Capabilities.TextDocumentSync.Change)
	assert.True(t, result.Capabilities.HoverProvider)

	require.NoError(t, caller.Initialized(ctx, &protocol.InitializedParams{}))
	require.NoError(t, caller.Shutdown(ctx))

	msgs, ok := tracker.WaitForMessages(1, time.Second, func(m protocol.RPCMessage) bool {
		return m.Direction == protocol.DirectionOutgoing && m.Method == "initialize"
	})
	require.True(t, ok)
	assert.Contains(t, string(msgs[0].Result), "test-echo")
}

func TestPublishDiagnosticsReachesClient(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tracker := protocol.NewRPCTracker()
	cli, notifications := startServer(t, &echoServer{}, tracker)
	caller := protocol.NewServerCaller(cli)

	require.NoError(t, caller.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///a.uss", LanguageID: "uss", Version: 3, Text: ""},
	}))

	select {
	case req := <-notifications:
		assert.Equal(t, "textDocument/publishDiagnostics", req.Method())
		var params protocol.PublishDiagnosticsParams
		require.NoError(t, req.UnmarshalParams(&params))
		assert.Equal(t, protocol.DocumentURI("file:///a.uss"), params.URI)
		assert.Equal(t, int32(3), params.Version)
		assert.NotNil(t, params.Diagnostics, "an empty set must be sent as []")
	case <-ctx.Done():
		t.Fatal("no diagnostics notification")
	}

	msgs, ok := tracker.WaitForMessages(1, time.Second, protocol.IsCallback("textDocument/publishDiagnostics"))
	require.True(t, ok)
	var params protocol.PublishDiagnosticsParams
	require.NoError(t, msgs[0].Decode(&params))
	assert.Equal(t, protocol.DocumentURI("file:///a.uss"), params.URI)
}

func TestParseError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cli, _ := startServer(t, stubServer{}, protocol.NewRPCTracker())

	_, err := cli.Call(ctx, "textDocument/hover", []int{1, 2})
	require.Error(t, err)

	var jerr *jrpc2.Error
	require.True(t, errors.As(err, &jerr))
	assert.EqualValues(t, -32700, jerr.Code)
}

func TestCancelRequestAccepted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tracker := protocol.NewRPCTracker()
	cli, _ := startServer(t, stubServer{}, tracker)

	require.NoError(t, cli.Notify(ctx, "$/cancelRequest", &protocol.CancelParams{ID: 7}))

	require.NoError(t, protocol.NewServerCaller(cli).Shutdown(ctx))

	_, ok := tracker.WaitForMessages(1, time.Second, func(m protocol.RPCMessage) bool {
		return m.Direction == protocol.DirectionIncoming && m.Method == "$/cancelRequest"
	})
	assert.True(t, ok)
}

type recordingClient struct {
	mu   sync.Mutex
	logs []protocol.LogMessageParams
}

func (c *recordingClient) PublishDiagnostics(context.Context, *protocol.PublishDiagnosticsParams) error {
	return nil
}

func (c *recordingClient) LogMessage(_ context.Context, params *protocol.LogMessageParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, *params)
	return nil
}

func (c *recordingClient) ShowMessage(context.Context, *protocol.ShowMessageParams) error {
	return nil
}

func TestApplyServerInstanceToZerolog(t *testing.T) {
	client := &recordingClient{}
	base := zerolog.New(io.Discard).Level(zerolog.InfoLevel).WithContext(context.Background())
	ctx := protocol.ApplyServerInstanceToZerolog(base, client)

	zerolog.Ctx(ctx).Debug().Msg("hidden")
	zerolog.Ctx(ctx).Warn().Str("uri", "a.uss").Int("count", 2).Msg("document opened")

	require.Len(t, client.logs, 1)
	assert.Equal(t, protocol.Warning, client.logs[0].Type)
	assert.Contains(t, client.logs[0].Message, "document opened count=2 uri=a.uss")
	assert.NotContains(t, client.logs[0].Message, "lsp_role")
}

func TestParseMessageTypeFromZerolog(t *testing.T) {
	tests := []struct {
		level string
		want  protocol.MessageType
	}{
		{"error", protocol.Error},
		{"fatal", protocol.Error},
		{"warn", protocol.Warning},
		{"info", protocol.Info},
		{"debug", protocol.Debug},
		{"trace", protocol.Log},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, protocol.ParseMessageTypeFromZerolog(tt.level))
		})
	}
}

func TestNonNilSlice(t *testing.T) {
	assert.Equal(t, []protocol.Diagnostic{}, protocol.NonNilSlice[protocol.Diagnostic](nil))
	one := []protocol.Diagnostic{{Message: "x"}}
	assert.Equal(t, one, protocol.NonNilSlice(one))
}
