// Package diff renders readable structural diffs for test failures.
package diff

import (
	"strings"
	"testing"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"
)

func printer() *pp.PrettyPrinter {
	p := pp.New()
	p.SetExportedOnly(true)
	p.SetColoringEnabled(false)
	return p
}

// DiffExportedOnly pretty prints want and got, exported fields only, and
// returns a line diff from got to want. It is empty when both print the same.
func DiffExportedOnly[T any](want T, got T) string {
	p := printer()
	lines := diff.Diff(p.Sprint(got), p.Sprint(want))
	if lines == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\nto convert ACTUAL ⏩️ EXPECTED:\n\n")
	sb.WriteString("add:    ➕\n")
	sb.WriteString("remove: ➖\n\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(lines, "\n-", "\n➖"), "\n+", "\n➕"))
	return sb.String()
}

// RequireKnownValueEqual fails the test immediately when want and got differ.
func RequireKnownValueEqual[T any](t testing.TB, want T, got T) {
	t.Helper()
	if d := DiffExportedOnly(want, got); d != "" {
		t.Fatalf("unexpected value:%s", d)
	}
}
