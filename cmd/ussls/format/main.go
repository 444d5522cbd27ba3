package format_cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/walteh/ussls/pkg/config"
	"github.com/walteh/ussls/pkg/debug"
	"github.com/walteh/ussls/pkg/finder"
	"github.com/walteh/ussls/pkg/format"
)

type Handler struct {
	configPath string
	write      bool
	list       bool
	debug      bool
	colorize   bool

	fs  afero.Fs
	out io.Writer
	log io.Writer
}

func NewFormatCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs(), colorize: !color.NoColor}

	cmd := &cobra.Command{
		Use:   "format <glob>...",
		Short: "format stylesheets",
		Long:  "format prints the formatted form of every matched stylesheet, or rewrites the files with --write. Indentation comes from the config file and the nearest .editorconfig.",
	}

	cmd.Flags().StringVar(&me.configPath, "config", "", "path to a .ussls.yaml file (default: discovered from the working directory)")
	cmd.Flags().BoolVarP(&me.write, "write", "w", false, "rewrite files in place")
	cmd.Flags().BoolVarP(&me.list, "list", "l", false, "only list files whose formatting differs, failing if there are any")
	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Args = cobra.MinimumNArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.out = cmd.OutOrStdout()
		me.log = cmd.ErrOrStderr()
		return me.Run(cmd.Context(), args)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, args []string) error {
	base, err := config.Resolve(me.fs, me.configPath, ".")
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	if me.debug {
		base.Debug = true
	}
	logger := debug.NewLogger(me.log, base.Level(), me.colorize)
	ctx = logger.WithContext(ctx)

	paths, err := finder.NewDefaultFinder(me.fs).Find(ctx, args)
	if err != nil {
		return err
	}

	var errs error
	var unformatted []string
	for _, path := range paths {
		changed, err := me.formatFile(ctx, base, path, len(paths) > 1)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if changed {
			unformatted = append(unformatted, path)
		}
	}

	zerolog.Ctx(ctx).Debug().Int("files", len(paths)).Int("changed", len(unformatted)).Msg("format finished")

	if errs != nil {
		return errors.Errorf("formatting files: %w", errs)
	}
	if me.list && len(unformatted) > 0 {
		return errors.Errorf("%d file(s) are not formatted", len(unformatted))
	}
	return nil
}

// formatFile reports whether the formatted text differs from the file.
func (me *Handler) formatFile(ctx context.Context, cfg config.Config, path string, header bool) (bool, error) {
	if err := cfg.ApplyEditorConfig(me.fs, path); err != nil {
		return false, err
	}

	content, err := afero.ReadFile(me.fs, path)
	if err != nil {
		return false, errors.Errorf("reading %s: %w", path, err)
	}
	formatted := format.Text(string(content), cfg.Formatting)
	changed := formatted != string(content)

	zerolog.Ctx(ctx).Debug().Str("path", path).Bool("changed", changed).Bool("spaces", cfg.Formatting.UseSpaces).Int("indent", cfg.Formatting.IndentWidth).Msg("formatted")

	switch {
	case me.list:
		if changed {
			fmt.Fprintln(me.out, path)
		}
	case me.write:
		if !changed {
			return false, nil
		}
		info, err := me.fs.Stat(path)
		if err != nil {
			return false, errors.Errorf("stat %s: %w", path, err)
		}
		if err := afero.WriteFile(me.fs, path, []byte(formatted), info.Mode().Perm()); err != nil {
			return false, errors.Errorf("writing %s: %w", path, err)
		}
		zerolog.Ctx(ctx).Info().Str("path", path).Msg("rewrote file")
	default:
		if header {
			title := "==> " + path + " <=="
			if me.colorize {
				title = color.New(color.Bold).Sprint(title)
			}
			fmt.Fprintln(me.out, title)
		}
		io.WriteString(me.out, formatted)
	}
	return changed, nil
}
