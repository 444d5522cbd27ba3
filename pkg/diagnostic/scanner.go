package diagnostic

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/knowledge"
	"github.com/walteh/ussls/pkg/position"
)

var (
	declarationPattern = regexp.MustCompile(`^\s*([\w-]+)\s*:\s*([^;]*);?\s*$`)
	hexPattern         = regexp.MustCompile(`#([0-9A-Fa-f]+)\b`)
)

// Scanner is a line-oriented Generator. It tracks brace depth across lines
// and checks each line in isolation: unknown or empty declarations, hex
// color length, parenthesis balance and missing semicolons.
type Scanner struct {
	tables            *knowledge.Tables
	validateSelectors bool
}

var _ Generator = (*Scanner)(nil)

type ScannerOption func(*Scanner)

// WithSelectorValidation enables parsing of rule selectors.
func WithSelectorValidation(enabled bool) ScannerOption {
	return func(s *Scanner) { s.validateSelectors = enabled }
}

func NewScanner(tables *knowledge.Tables, opts ...ScannerOption) *Scanner {
	s := &Scanner{tables: tables, validateSelectors: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate implements Generator
func (s *Scanner) Generate(ctx context.Context, text string) []Diagnostic {
	var diags []Diagnostic
	depth := 0

	lines := strings.Split(text, "\n")
	for num, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "//") {
			continue
		}

		depthBefore := depth
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		inBlock := depth > 0
		ruleOpener := strings.HasSuffix(trimmed, "{")

		if inBlock && !ruleOpener {
			diags = append(diags, s.checkDeclaration(num, line)...)
		}
		if s.validateSelectors && depthBefore == 0 && ruleOpener {
			diags = append(diags, checkSelector(num, line)...)
		}
		diags = append(diags, checkHexColors(num, line)...)
		if d, ok := checkParens(num, line); ok {
			diags = append(diags, d)
		}
		if inBlock {
			if d, ok := checkSemicolon(num, line, trimmed); ok {
				diags = append(diags, d)
			}
		}
	}

	last := len(lines) - 1
	switch {
	case depth > 0:
		diags = append(diags, Diagnostic{
			Range:    lineRange(last, 0, 0),
			Severity: SeverityError,
			Message:  fmt.Sprintf("Unclosed brace(s): %d opening brace(s) without closing", depth),
			Source:   Source,
		})
	case depth < 0:
		diags = append(diags, Diagnostic{
			Range:    lineRange(last, 0, 0),
			Severity: SeverityError,
			Message:  fmt.Sprintf("Extra closing brace(s): %d more closing than opening", -depth),
			Source:   Source,
		})
	}

	zerolog.Ctx(ctx).Debug().Int("lines", len(lines)).Int("diagnostics", len(diags)).Msg("scanned document")

	return diags
}

func (s *Scanner) checkDeclaration(num int, line string) []Diagnostic {
	m := declarationPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return nil
	}
	var diags []Diagnostic

	name := line[m[2]:m[3]]
	if !strings.HasPrefix(name, "--") && !s.tables.IsKnownProperty(name) {
		diags = append(diags, Diagnostic{
			Range:    lineRange(num, position.ByteToUTF16(line, m[2]), position.ByteToUTF16(line, m[3])),
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Unknown USS property: '%s'", name),
			Source:   Source,
		})
	}

	if strings.TrimSpace(line[m[4]:m[5]]) == "" {
		colon := strings.IndexByte(line, ':')
		diags = append(diags, Diagnostic{
			Range:    lineRange(num, position.ByteToUTF16(line, colon), position.UTF16Len(line)),
			Severity: SeverityError,
			Message:  "Property value is empty",
			Source:   Source,
		})
	}

	return diags
}

func checkHexColors(num int, line string) []Diagnostic {
	var diags []Diagnostic
	for _, m := range hexPattern.FindAllStringSubmatchIndex(line, -1) {
		switch n := m[3] - m[2]; n {
		case 3, 4, 6, 8:
		default:
			diags = append(diags, Diagnostic{
				Range:    lineRange(num, position.ByteToUTF16(line, m[0]), position.ByteToUTF16(line, m[1])),
				Severity: SeverityError,
				Message:  fmt.Sprintf("Invalid hex color length: %d. Expected 3, 4, 6, or 8 characters.", n),
				Source:   Source,
			})
		}
	}
	return diags
}

// checkParens reports at most one problem per line: the first closer that
// drives the running depth negative, otherwise the first opener left open.
func checkParens(num int, line string) (Diagnostic, bool) {
	if strings.Count(line, "(") == strings.Count(line, ")") {
		return Diagnostic{}, false
	}

	var open []int
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '(':
			open = append(open, i)
		case ')':
			if len(open) == 0 {
				col := position.ByteToUTF16(line, i)
				return Diagnostic{
					Range:    lineRange(num, col, col+1),
					Severity: SeverityError,
					Message:  "Unmatched closing parenthesis",
					Source:   Source,
				}, true
			}
			open = open[:len(open)-1]
		}
	}

	if len(open) == 0 {
		return Diagnostic{}, false
	}
	col := position.ByteToUTF16(line, open[0])
	return Diagnostic{
		Range:    lineRange(num, col, col+1),
		Severity: SeverityError,
		Message:  "Unclosed parenthesis",
		Source:   Source,
	}, true
}

func checkSemicolon(num int, line, trimmed string) (Diagnostic, bool) {
	if strings.Count(trimmed, ":") != 1 ||
		strings.HasSuffix(trimmed, ";") || strings.HasSuffix(trimmed, "{") || strings.HasSuffix(trimmed, "}") ||
		strings.Contains(trimmed, "url(") || strings.Contains(trimmed, "var(") {
		return Diagnostic{}, false
	}

	end := position.UTF16Len(strings.TrimRight(line, " \t"))
	return Diagnostic{
		Range:    lineRange(num, end-1, end),
		Severity: SeverityWarning,
		Message:  "Missing semicolon at end of declaration",
		Source:   Source,
	}, true
}
