package check

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, files map[string]string) (*Handler, *bytes.Buffer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	out := &bytes.Buffer{}
	return &Handler{format: "text", fs: fs, out: out, log: io.Discard}, out
}

var stylesheets = map[string]string{
	"/proj/broken.uss": "Button {\n    color: #1234567;\n}\n",
	"/proj/typo.uss":   "Button {\n    colour: red;\n}\n",
	"/proj/clean.uss":  ".card {\n    width: 100px;\n}\n",
}

func TestCheckText(t *testing.T) {
	me, out := newHandler(t, stylesheets)

	err := me.Run(context.Background(), []string{"/proj/*.uss"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 1 error(s)")

	assert.Equal(t,
		"/proj/broken.uss:2:12: error: Invalid hex color length: 7. Expected 3, 4, 6, or 8 characters.\n"+
			"/proj/typo.uss:2:5: warning: Unknown USS property: 'colour'\n",
		out.String())
}

func TestCheckWarningsOnly(t *testing.T) {
	me, out := newHandler(t, stylesheets)

	require.NoError(t, me.Run(context.Background(), []string{"/proj/typo.uss", "/proj/clean.uss"}))
	assert.Contains(t, out.String(), "warning")
}

func TestCheckJSON(t *testing.T) {
	me, out := newHandler(t, stylesheets)
	me.format = "json"

	err := me.Run(context.Background(), []string{"/proj"})
	require.Error(t, err)

	var reports []FileReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &reports))
	require.Len(t, reports, 3)

	assert.Equal(t, "/proj/broken.uss", reports[0].Path)
	require.Len(t, reports[0].Diagnostics, 1)
	assert.Equal(t, DiagnosticReport{
		Line: 2, Column: 12, EndLine: 2, EndColumn: 20,
		Severity: "error",
		Message:  "Invalid hex color length: 7. Expected 3, 4, 6, or 8 characters.",
		Source:   "uss",
	}, reports[0].Diagnostics[0])

	assert.Equal(t, "/proj/clean.uss", reports[1].Path)
	assert.NotNil(t, reports[1].Diagnostics)
	assert.Empty(t, reports[1].Diagnostics)
}

func TestCheckConfig(t *testing.T) {
	files := map[string]string{
		"/proj/typo.uss":   stylesheets["/proj/typo.uss"],
		"/proj/ussls.yaml": "known_properties: [colour]\n",
	}
	me, out := newHandler(t, files)
	me.configPath = "/proj/ussls.yaml"

	require.NoError(t, me.Run(context.Background(), []string{"/proj/typo.uss"}))
	assert.Empty(t, out.String())
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []string
		want   string
	}{
		{name: "unknown format", format: "yaml", args: []string{"/proj"}, want: "unknown format"},
		{name: "nothing matched", format: "text", args: []string{"/proj/*.css"}, want: "no stylesheets match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			me, _ := newHandler(t, stylesheets)
			me.format = tt.format
			err := me.Run(context.Background(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
