package finder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/Assets/UI/main.uss":         "Button { color: red; }",
		"/proj/Assets/UI/theme/dark.uss":   ":root { --bg: #000; }",
		"/proj/Assets/UI/readme.txt":       "not a stylesheet",
		"/proj/Packages/vendor/vendor.uss": ".v { }",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestDefaultFinder_Find(t *testing.T) {
	fs := newFs(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{
			name: "recursive glob",
			args: []string{"/proj/Assets/**/*.uss"},
			want: []string{"/proj/Assets/UI/main.uss", "/proj/Assets/UI/theme/dark.uss"},
		},
		{
			name: "directory means every stylesheet below it",
			args: []string{"/proj"},
			want: []string{"/proj/Assets/UI/main.uss", "/proj/Assets/UI/theme/dark.uss", "/proj/Packages/vendor/vendor.uss"},
		},
		{
			name: "plain file",
			args: []string{"/proj/Assets/UI/readme.txt"},
			want: []string{"/proj/Assets/UI/readme.txt"},
		},
		{
			name: "overlapping arguments are deduplicated",
			args: []string{"/proj/Assets/UI/*.uss", "/proj/Assets/**/*.uss"},
			want: []string{"/proj/Assets/UI/main.uss", "/proj/Assets/UI/theme/dark.uss"},
		},
		{
			name:    "no match",
			args:    []string{"/proj/**/*.css"},
			wantErr: true,
		},
		{
			name:    "missing directory",
			args:    []string{"/nope/*.uss"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDefaultFinder(fs).Find(context.Background(), tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.FromSlash(w)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestDefaultFinder_Read(t *testing.T) {
	f := NewDefaultFinder(newFs(t))

	files, err := f.Read(context.Background(), []string{"/proj/Assets/UI/main.uss"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Button { color: red; }", string(files[0].Content))

	_, err = f.Read(context.Background(), []string{"/proj/missing.uss"})
	assert.Error(t, err)
}

func TestDefaultFinder_Context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDefaultFinder(newFs(t)).Find(ctx, []string{"/proj"})
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
