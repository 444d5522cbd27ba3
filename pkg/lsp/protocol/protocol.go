package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
)

var (
	RequestCancelledError = &jrpc2.Error{Code: -32800, Message: "JSON RPC cancelled"}
)

// NewInvalidRequestError reports a request the server refuses in its current
// state, such as anything but exit after shutdown.
func NewInvalidRequestError(msg string) *jrpc2.Error {
	return &jrpc2.Error{Code: -32600, Message: msg}
}

// CallbackClient sends notifications from the server to the editor. Each
// message is reported to the server's RPCLog when it implements
// CallbackRPCLogger.
type CallbackClient struct {
	serverOpts *jrpc2.ServerOptions
	client     *jrpc2.Server
}

func (c *CallbackClient) Notify(ctx context.Context, method string, params any) error {
	if rl, ok := c.serverOpts.RPCLog.(CallbackRPCLogger); ok {
		rl.LogCallbackRequestRaw(ctx, method, params)
	}

	if err := c.client.Notify(ctx, method, params); err != nil {
		return err
	}

	return nil
}

func (c *CallbackClient) Callback(ctx context.Context, method string, params any) (*jrpc2.Response, error) {
	if rl, ok := c.serverOpts.RPCLog.(CallbackRPCLogger); ok {
		rl.LogCallbackRequestRaw(ctx, method, params)
	}

	res, err := c.client.Callback(ctx, method, params)
	if err != nil {
		return nil, err
	}

	if rl, ok := c.serverOpts.RPCLog.(CallbackRPCLogger); ok {
		rl.LogCallbackResponse(ctx, res)
	}

	return res, nil
}

func NewCallbackClient(server *jrpc2.Server, serverOpts *jrpc2.ServerOptions) *CallbackClient {
	return &CallbackClient{client: server, serverOpts: serverOpts}
}

type serveConfig struct {
	forwardLogs bool
}

type ServeOption func(*serveConfig)

// WithLogForwarding sends each request's log entries to the editor as
// window/logMessage notifications instead of the process logger.
func WithLogForwarding(enabled bool) ServeOption {
	return func(c *serveConfig) { c.forwardLogs = enabled }
}

// NewServerServer builds a jrpc2 server dispatching to server. The returned
// CallbackClient is usable once the server has been started.
func NewServerServer(ctx context.Context, server Server, opts *jrpc2.ServerOptions, serveOpts ...ServeOption) (*jrpc2.Server, *CallbackClient) {
	cfg := &serveConfig{}
	for _, opt := range serveOpts {
		opt(cfg)
	}

	methods := buildServerDispatchMap(server)
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}

	opts.AllowPush = true

	var callbackClient *CallbackClient

	opts.NewContext = func() context.Context {
		if callbackClient == nil || !cfg.forwardLogs {
			return ctx
		}
		return ApplyServerInstanceToZerolog(ctx, callbackClient)
	}

	result := jrpc2.NewServer(methods, opts)

	callbackClient = NewCallbackClient(result, opts)

	return result, callbackClient
}
