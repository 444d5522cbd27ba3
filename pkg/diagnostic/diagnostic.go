package diagnostic

import (
	"context"

	"github.com/walteh/ussls/pkg/position"
)

// Source tags every diagnostic produced by this package.
const Source = "uss"

// Severity uses the numeric values of the LSP DiagnosticSeverity enum.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

// Diagnostic represents a single diagnostic message
type Diagnostic struct {
	Range    position.Range
	Severity Severity
	Message  string
	Source   string
}

// Generator produces the complete diagnostic set for a document's text. The
// result replaces any previous set for the document.
type Generator interface {
	Generate(ctx context.Context, text string) []Diagnostic
}

// Count returns how many diagnostics have the given severity.
func Count(diags []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

func lineRange(line, start, end int) position.Range {
	return position.Range{
		Start: position.Place{Line: line, Character: start},
		End:   position.Place{Line: line, Character: end},
	}
}
