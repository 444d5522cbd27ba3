// Package debug holds zerolog hooks and the console writer used by the
// command line.
package debug

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

const TimeFormat = "2006-01-02T15:04:05.0000Z"

// skipFrames reads the event's unexported skipFrame so the caller hook
// honours CallerSkipFrame.
func skipFrames(e *zerolog.Event) int {
	field := reflect.ValueOf(e).Elem().FieldByName("skipFrame")
	if field.IsValid() {
		return int(field.Int())
	}
	return 0
}

// CustomTimeHook stamps a millisecond "time" field. Format overrides
// TimeFormat.
type CustomTimeHook struct {
	WithColor bool
	Format    string
}

func (t CustomTimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	f := t.Format
	if f == "" {
		f = TimeFormat
	}
	e.Str("time", time.Now().Format(f))
}

// CustomCallerHook adds a short "caller" field: package, file and line.
type CustomCallerHook struct {
	WithColor bool
}

func (c CustomCallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(skipFrames(e) + 3)
	if !ok {
		return
	}
	pkg, _ := GetPackageAndFuncFromFuncName(runtime.FuncForPC(pc).Name())
	e.Str("caller", FormatCaller(pkg, file, line, c.WithColor))
}

// GetPackageAndFuncFromFuncName splits a runtime function name such as
// "github.com/walteh/ussls/pkg/lsp.(*Server).Hover".
func GetPackageAndFuncFromFuncName(name string) (pkg, function string) {
	lastSlash := max(strings.LastIndexByte(name, '/'), 0)
	firstDot := strings.IndexByte(name[lastSlash:], '.') + lastSlash

	pkg = name[:firstDot]
	function = name[firstDot+1:]

	if strings.Contains(pkg, ".(") {
		parts := strings.SplitN(pkg, ".(", 2)
		pkg = parts[0]
		function = "(" + parts[1] + "." + function
	}
	return pkg, function
}

func FormatCaller(pkg, path string, number int, colorize bool) string {
	file := FileNameOfPath(path)
	if !colorize {
		return fmt.Sprintf("%s:%s:%d", pkg, file, number)
	}
	sep := color.New(color.Faint).Sprint(":")
	return pkg + sep + color.New(color.Bold).Sprint(file) + sep + color.New(color.FgHiRed, color.Bold).Sprintf("%d", number)
}

func FileNameOfPath(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 && i < len(path)-1 {
		return path[i+1:]
	}
	return path
}

var levelColors = map[string]*color.Color{
	zerolog.LevelTraceValue: color.New(color.Faint),
	zerolog.LevelDebugValue: color.New(color.FgMagenta),
	zerolog.LevelInfoValue:  color.New(color.FgGreen),
	zerolog.LevelWarnValue:  color.New(color.FgYellow),
	zerolog.LevelErrorValue: color.New(color.FgRed, color.Bold),
	zerolog.LevelFatalValue: color.New(color.FgRed, color.Bold),
	zerolog.LevelPanicValue: color.New(color.FgRed, color.Bold),
}

// NewConsoleWriter is a human readable zerolog writer with fatih/color
// level labels.
func NewConsoleWriter(w io.Writer, colorize bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !colorize,
		TimeFormat: "15:04:05.000",
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.CallerFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i any) string {
			lvl, _ := i.(string)
			label := fmt.Sprintf("%-5s", strings.ToUpper(lvl))
			if c, ok := levelColors[lvl]; ok && colorize {
				return c.Sprint(label)
			}
			return label
		},
		FormatCaller: func(i any) string {
			if s, ok := i.(string); ok && s != "" {
				return "[" + s + "]"
			}
			return ""
		},
	}
}

// NewLogger builds the process logger for the command line.
func NewLogger(w io.Writer, level zerolog.Level, colorize bool) zerolog.Logger {
	return zerolog.New(NewConsoleWriter(w, colorize)).
		Level(level).
		Hook(CustomCallerHook{WithColor: colorize}).
		With().Timestamp().Logger()
}
