package protocol

import (
	"context"
)

// Client is the set of server-to-client notifications ussls sends.
type Client interface {
	PublishDiagnostics(context.Context, *PublishDiagnosticsParams) error
	LogMessage(context.Context, *LogMessageParams) error
	ShowMessage(context.Context, *ShowMessageParams) error
}

var _ Client = (*CallbackClient)(nil)

func (s *CallbackClient) PublishDiagnostics(ctx context.Context, params *PublishDiagnosticsParams) error {
	params.Diagnostics = NonNilSlice(params.Diagnostics)
	return createNotify(ctx, s, "textDocument/publishDiagnostics", params)
}

func (s *CallbackClient) LogMessage(ctx context.Context, params *LogMessageParams) error {
	return createNotify(ctx, s, "window/logMessage", params)
}

func (s *CallbackClient) ShowMessage(ctx context.Context, params *ShowMessageParams) error {
	return createNotify(ctx, s, "window/showMessage", params)
}
