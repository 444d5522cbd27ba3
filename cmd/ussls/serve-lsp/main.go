package serve_lsp

import (
	"context"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ussls/pkg/config"
	"github.com/walteh/ussls/pkg/debug"
	"github.com/walteh/ussls/pkg/lsp"
	"github.com/walteh/ussls/pkg/lsp/protocol"
	"github.com/walteh/ussls/pkg/workspace"
)

type Handler struct {
	debug       bool
	forwardLogs bool
	configPath  string
	version     string
	fs          afero.Fs
}

func NewServeLSPCommand(version string) *cobra.Command {
	me := &Handler{version: version, fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "start the language server on stdio",
	}

	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&me.forwardLogs, "forward-logs", false, "send server logs to the client as window/logMessage")
	cmd.Flags().StringVar(&me.configPath, "config", "", "path to a .ussls.yaml file (default: discovered from the working directory)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context())
	}

	return cmd
}

type RPCLogger struct {
}

func (me *RPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	zerolog.Ctx(ctx).Debug().Str("rpc_params", req.ParamString()).Str("rpc_id", req.ID()).Str("rpc_method", req.Method()).Msg("client request")
}

func (me *RPCLogger) LogResponse(ctx context.Context, res *jrpc2.Response) {
	zerolog.Ctx(ctx).Debug().Str("rpc_result", res.ResultString()).Str("rpc_id", res.ID()).Msg("server response")
}

func (me *Handler) Run(ctx context.Context) error {
	cfg, err := config.Resolve(me.fs, me.configPath, ".")
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	if me.debug {
		cfg.Debug = true
	}

	// stdout carries protocol frames
	logger := zerolog.New(os.Stderr).
		Level(cfg.Level()).
		Hook(debug.CustomCallerHook{}).
		With().Timestamp().Str("component", "ussls").Logger()
	ctx = logger.WithContext(ctx)

	ws := workspace.New(cfg.Tables(), workspace.WithFormatting(cfg.Formatting))
	server := lsp.NewServer(ws, lsp.WithVersion(me.version))

	opts := &jrpc2.ServerOptions{
		RPCLog:      &RPCLogger{},
		Concurrency: cfg.Concurrency,
	}

	if err := server.StartAndWait(ctx, os.Stdin, os.Stdout, opts, protocol.WithLogForwarding(cfg.ForwardLogs || me.forwardLogs)); err != nil {
		return errors.Errorf("error running language server: %w", err)
	}

	if code := server.ExitCode(); code != 0 {
		return errors.Errorf("language server exited without shutdown (code %d)", code)
	}
	return nil
}
