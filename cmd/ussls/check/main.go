package check

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/ussls/pkg/config"
	"github.com/walteh/ussls/pkg/debug"
	"github.com/walteh/ussls/pkg/diagnostic"
	"github.com/walteh/ussls/pkg/finder"
)

type Handler struct {
	configPath string
	format     string // text, json
	debug      bool
	colorize   bool

	fs  afero.Fs
	out io.Writer
	log io.Writer
}

func NewCheckCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs(), colorize: !color.NoColor}

	cmd := &cobra.Command{
		Use:   "check <glob>...",
		Short: "report diagnostics for stylesheets",
		Long:  "check runs the stylesheet diagnostics over every file matched by the given globs or directories and fails when any error is found.",
	}

	cmd.Flags().StringVar(&me.configPath, "config", "", "path to a .ussls.yaml file (default: discovered from the working directory)")
	cmd.Flags().StringVar(&me.format, "format", "text", "output format: text or json")
	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")
	cmd.Args = cobra.MinimumNArgs(1)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.out = cmd.OutOrStdout()
		me.log = cmd.ErrOrStderr()
		return me.Run(cmd.Context(), args)
	}

	return cmd
}

// FileReport is the json form of one checked file.
type FileReport struct {
	Path        string             `json:"path"`
	Diagnostics []DiagnosticReport `json:"diagnostics"`
}

// DiagnosticReport positions are 1-based.
type DiagnosticReport struct {
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"endLine"`
	EndColumn int    `json:"endColumn"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Source    string `json:"source"`
}

func (me *Handler) Run(ctx context.Context, args []string) error {
	if me.format != "text" && me.format != "json" {
		return errors.Errorf("unknown format %q, expected text or json", me.format)
	}

	cfg, err := config.Resolve(me.fs, me.configPath, ".")
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	if me.debug {
		cfg.Debug = true
	}
	logger := debug.NewLogger(me.log, cfg.Level(), me.colorize)
	ctx = logger.WithContext(ctx)

	paths, err := finder.NewDefaultFinder(me.fs).Find(ctx, args)
	if err != nil {
		return err
	}

	reports, readErr := me.check(ctx, diagnostic.NewScanner(cfg.Tables()), paths)

	errorCount := 0
	for _, r := range reports {
		for _, d := range r.Diagnostics {
			if d.Severity == diagnostic.SeverityError.String() {
				errorCount++
			}
		}
	}

	switch me.format {
	case "json":
		enc := json.NewEncoder(me.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return errors.Errorf("encoding reports: %w", err)
		}
	default:
		me.printText(reports)
	}

	zerolog.Ctx(ctx).Debug().Int("files", len(paths)).Int("errors", errorCount).Msg("check finished")

	if readErr != nil {
		return errors.Errorf("checking files: %w", readErr)
	}
	if errorCount > 0 {
		return errors.Errorf("found %d error(s)", errorCount)
	}
	return nil
}

// check scans paths in parallel. Reports come back in path order; files that
// cannot be read are left out and their errors combined.
func (me *Handler) check(ctx context.Context, gen diagnostic.Generator, paths []string) ([]FileReport, error) {
	results := make([]*FileReport, len(paths))
	var mu sync.Mutex
	var errs error

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			content, err := afero.ReadFile(me.fs, path)
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, errors.Errorf("reading %s: %w", path, err))
				mu.Unlock()
				return nil
			}
			diags := gen.Generate(ctx, string(content))
			zerolog.Ctx(ctx).Debug().Str("path", path).Int("diagnostics", len(diags)).Msg("checked")
			results[i] = newFileReport(path, diags)
			return nil
		})
	}
	_ = g.Wait()

	reports := make([]FileReport, 0, len(results))
	for _, r := range results {
		if r != nil {
			reports = append(reports, *r)
		}
	}
	return reports, errs
}

func newFileReport(path string, diags []diagnostic.Diagnostic) *FileReport {
	r := &FileReport{Path: path, Diagnostics: make([]DiagnosticReport, len(diags))}
	for i, d := range diags {
		r.Diagnostics[i] = DiagnosticReport{
			Line:      d.Range.Start.Line + 1,
			Column:    d.Range.Start.Character + 1,
			EndLine:   d.Range.End.Line + 1,
			EndColumn: d.Range.End.Character + 1,
			Severity:  d.Severity.String(),
			Message:   d.Message,
			Source:    d.Source,
		}
	}
	return r
}

var severityColors = map[string]*color.Color{
	diagnostic.SeverityError.String():       color.New(color.FgRed, color.Bold),
	diagnostic.SeverityWarning.String():     color.New(color.FgYellow),
	diagnostic.SeverityInformation.String(): color.New(color.FgCyan),
	diagnostic.SeverityHint.String():        color.New(color.Faint),
}

func (me *Handler) printText(reports []FileReport) {
	for _, r := range reports {
		for _, d := range r.Diagnostics {
			sev := d.Severity
			if c, ok := severityColors[sev]; ok && me.colorize {
				sev = c.Sprint(sev)
			}
			fmt.Fprintf(me.out, "%s:%d:%d: %s: %s\n", r.Path, d.Line, d.Column, sev, d.Message)
		}
	}
}
