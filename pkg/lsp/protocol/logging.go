package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/debug"
)

type MultiRPCLogger struct {
	mu      sync.Mutex
	loggers []jrpc2.RPCLogger
}

func NewMultiRPCLogger(loggers ...jrpc2.RPCLogger) *MultiRPCLogger {
	return &MultiRPCLogger{loggers: loggers}
}

var _ jrpc2.RPCLogger = (*MultiRPCLogger)(nil)

func (m *MultiRPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		logger.LogRequest(ctx, req)
	}
}

func (m *MultiRPCLogger) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		logger.LogResponse(ctx, resp)
	}
}

func (m *MultiRPCLogger) AddLogger(logger jrpc2.RPCLogger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggers = append(m.loggers, logger)
}

var myLoggerId = xid.New().String()

// ApplyServerInstanceToZerolog routes the context logger to the editor. stdout
// belongs to the protocol, so a server that wants its logs visible in the
// editor sends them as window/logMessage notifications.
func ApplyServerInstanceToZerolog(ctx context.Context, client Client) context.Context {
	writer := &logWriter{
		client: client,
		ctx:    ctx,
	}

	level := zerolog.Ctx(ctx).GetLevel()

	return zerolog.New(writer).With().
		Str("id", myLoggerId).
		Str("lsp_role", "server").
		Logger().
		Level(level).
		Hook(debug.CustomTimeHook{WithColor: false}).
		Hook(debug.CustomCallerHook{WithColor: false}).
		WithContext(ctx)
}

func ApplyRequestToZerolog(ctx context.Context, req *jrpc2.Request) context.Context {
	return zerolog.Ctx(ctx).With().Str("rpc_method", req.Method()).Str("rpc_id", req.ID()).Logger().WithContext(ctx)
}

type logWriter struct {
	client Client
	mu     sync.Mutex
	ctx    context.Context
}

// Write implements io.Writer
func (w *logWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		return len(p), nil
	}

	params := &LogMessageParams{
		Type:    ParseMessageTypeFromZerolog(extractField(entry, "level", "info")),
		Message: formatLogEntry(entry),
	}

	if w.client != nil {
		err = w.client.LogMessage(w.ctx, params)
	}

	return len(p), err
}

// formatLogEntry renders "caller: message key=value ..." with the remaining
// fields sorted by key.
func formatLogEntry(entry map[string]any) string {
	msg := extractField(entry, "message", "")
	caller := extractField(entry, "caller", "")
	delete(entry, "time")
	delete(entry, "id")
	delete(entry, "lsp_role")

	var sb strings.Builder
	if caller != "" {
		sb.WriteString(caller)
		sb.WriteString(": ")
	}
	sb.WriteString(msg)

	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry[k])
	}
	return sb.String()
}

func extractField(entry map[string]any, key, defaultValue string) string {
	if v, ok := entry[key].(string); ok {
		delete(entry, key)
		return v
	}
	return defaultValue
}

// ParseMessageTypeFromZerolog converts zerolog level to LSP MessageType
func ParseMessageTypeFromZerolog(level string) MessageType {
	switch level {
	case "error", "fatal", "panic":
		return Error
	case "warn":
		return Warning
	case "info":
		return Info
	case "debug":
		return Debug
	default:
		return Log
	}
}

var _ CallbackRPCLogger = (*MultiRPCLogger)(nil)

func (m *MultiRPCLogger) LogCallbackRequestRaw(ctx context.Context, method string, params any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		if cl, ok := logger.(CallbackRPCLogger); ok {
			cl.LogCallbackRequestRaw(ctx, method, params)
		}
	}
}

func (m *MultiRPCLogger) LogCallbackRequest(ctx context.Context, req *jrpc2.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		if cl, ok := logger.(CallbackRPCLogger); ok {
			cl.LogCallbackRequest(ctx, req)
		}
	}
}

func (m *MultiRPCLogger) LogCallbackResponse(ctx context.Context, res *jrpc2.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logger := range m.loggers {
		if cl, ok := logger.(CallbackRPCLogger); ok {
			cl.LogCallbackResponse(ctx, res)
		}
	}
}
