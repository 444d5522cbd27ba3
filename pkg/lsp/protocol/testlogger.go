package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
)

// CallbackRPCLogger is implemented by RPC loggers that also want the
// messages a server pushes to the editor.
type CallbackRPCLogger interface {
	LogCallbackRequestRaw(ctx context.Context, method string, params any)
	LogCallbackRequest(ctx context.Context, req *jrpc2.Request)
	LogCallbackResponse(ctx context.Context, res *jrpc2.Response)
}

type rpcTestLogger struct {
	logger             zerolog.TestingLog
	rewrites           map[string]string
	enableBigRequests  bool
	enableBigResponses bool
	enableRPCLogs      bool
	isHuman            bool
}

func DebugAll() bool {
	return os.Getenv("DEBUG_LSP_ALL") == "1" || os.Getenv("DEBUG") == "1"
}

func DebugIsHuman() bool {
	return os.Getenv("HUMAN") == "1"
}

// NewTestLogger logs RPC traffic to a test. rewrites replaces substrings,
// such as temporary directories, in every logged line.
func NewTestLogger(t zerolog.TestingLog, rewrites map[string]string) jrpc2.RPCLogger {
	if rewrites == nil {
		rewrites = make(map[string]string)
	}

	lgr := &rpcTestLogger{
		logger:             t,
		rewrites:           rewrites,
		isHuman:            DebugIsHuman(),
		enableRPCLogs:      DebugAll(),
		enableBigRequests:  os.Getenv("DEBUG_LSP_BIG_REQUESTS") == "1",
		enableBigResponses: os.Getenv("DEBUG_LSP_BIG_RESPONSES") == "1",
	}

	for k, v := range rewrites {
		lgr.logger.Logf("FYI: '%s' will be rewritten to '%s' in logs for this test", k, v)
	}

	if !lgr.enableRPCLogs {
		lgr.logger.Logf("FYI: rpc logs will be suppressed. Set DEBUG=1 to see them")
		return lgr
	}

	if !lgr.enableBigRequests {
		lgr.logger.Logf("FYI: big client request logs will be suppressed. Set DEBUG_LSP_BIG_REQUESTS=1 to see them")
	}

	if !lgr.enableBigResponses {
		lgr.logger.Logf("FYI: big server response logs will be suppressed. Set DEBUG_LSP_BIG_RESPONSES=1 to see them")
	}

	if lgr.isHuman {
		lgr.logger.Logf("FYI: json logs will be indented - set HUMAN=0 to make them more compact")
	}

	return lgr
}

var (
	_ jrpc2.RPCLogger   = (*rpcTestLogger)(nil)
	_ CallbackRPCLogger = (*rpcTestLogger)(nil)
)

type fancyRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type fancyResponse struct {
	ID     string `json:"id"`
	Result any    `json:"result"`
	Error  any    `json:"error"`
}

const maxResultLength = 1000

func (l *rpcTestLogger) namedResponseLog(name string, res *jrpc2.Response) {
	if !l.enableRPCLogs {
		return
	}

	lenRes := len(res.ResultString())
	var v any
	if lenRes > maxResultLength && !l.enableBigResponses {
		v = fmt.Sprintf("suppressed %d chars: set DEBUG_LSP_BIG_RESPONSES=1 to see", lenRes)
	} else if lenRes > 0 {
		if err := res.UnmarshalResult(&v); err != nil {
			l.logger.Logf("lsp %s response: %s", name, res.ResultString())
			return
		}
	}

	parsed := fancyResponse{
		ID:     res.ID(),
		Result: v,
		Error:  res.Error(),
	}

	l.logger.Logf("lsp %s response:%s", name, l.formatJSON(parsed))
}

func (l *rpcTestLogger) namedRequestLog(name string, method, id, params string) {
	if !l.enableRPCLogs {
		return
	}

	var v any
	if len(params) > maxResultLength && !l.enableBigRequests {
		v = fmt.Sprintf("suppressed %d chars: set DEBUG_LSP_BIG_REQUESTS=1 to see", len(params))
	} else if params != "" {
		if err := json.Unmarshal([]byte(params), &v); err != nil {
			v = params
		}
	}

	if id == "" {
		id = "notification"
	}

	l.logger.Logf("lsp %s request:%s", name, l.formatJSON(fancyRequest{ID: id, Method: method, Params: v}))
}

func (l *rpcTestLogger) formatJSON(s any) string {
	prefix := " "
	suffix := ""
	if l.isHuman {
		prefix = "\n\n"
		suffix = "\n\n"
	}
	buf := bytes.NewBuffer(nil)
	enc := json.NewEncoder(buf)
	if l.isHuman {
		enc.SetIndent("", "\t")
	}
	if err := enc.Encode(s); err != nil {
		return prefix + fmt.Sprintf("%+v", s) + suffix
	}

	str := strings.TrimSuffix(buf.String(), "\n")
	for k, v := range l.rewrites {
		str = strings.ReplaceAll(str, k, v)
	}

	return prefix + str + suffix
}

func (l *rpcTestLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	l.namedRequestLog("client", req.Method(), req.ID(), req.ParamString())
}

func (l *rpcTestLogger) LogResponse(ctx context.Context, res *jrpc2.Response) {
	l.namedResponseLog("server", res)
}

func (l *rpcTestLogger) LogCallbackRequest(ctx context.Context, req *jrpc2.Request) {
	l.namedRequestLog("server (callback)", req.Method(), req.ID(), req.ParamString())
}

func (l *rpcTestLogger) LogCallbackResponse(ctx context.Context, res *jrpc2.Response) {
	l.namedResponseLog("client (callback)", res)
}

func (l *rpcTestLogger) LogCallbackRequestRaw(ctx context.Context, method string, params any) {
	raw, err := json.Marshal(params)
	if err != nil {
		l.logger.Logf("failed to marshal params for %s: %v", method, err)
		return
	}
	l.namedRequestLog("server (callback)", method, "", string(raw))
}
