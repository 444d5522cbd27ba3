package config_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/ussls/pkg/config"
	"github.com/walteh/ussls/pkg/format"
)

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, format.Options{UseSpaces: true, IndentWidth: 4}, cfg.Formatting)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/proj/.ussls.yaml", `
log_level: warn
concurrency: 4
formatting:
  use_spaces: false
  indent_width: 2
known_properties:
  - -my-custom-thing
forward_logs: true
`)

	cfg, err := config.Load(fs, "/proj/.ussls.yaml")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, cfg.Level())
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, format.Options{UseSpaces: false, IndentWidth: 2}, cfg.Formatting)
	assert.True(t, cfg.Tables().IsKnownProperty("-my-custom-thing"))
	assert.True(t, cfg.Tables().IsKnownProperty("color"))
	assert.True(t, cfg.ForwardLogs)

	cfg.Debug = true
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/bad.yaml", "concurency: 3\n")
	write(t, fs, "/empty.yaml", "")

	_, err := config.Load(fs, "/bad.yaml")
	assert.Error(t, err, "unknown keys are rejected")

	_, err = config.Load(fs, "/missing.yaml")
	assert.Error(t, err)

	cfg, err := config.Load(fs, "/empty.yaml")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestDiscover(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/.ussls.yaml", "debug: true\n")
	require.NoError(t, fs.MkdirAll("/repo/Assets/UI", 0o755))

	path, ok := config.Find(fs, "/repo/Assets/UI")
	require.True(t, ok)
	assert.Equal(t, "/repo/.ussls.yaml", path)

	cfg, err := config.Discover(fs, "/repo/Assets/UI")
	require.NoError(t, err)
	assert.True(t, cfg.Debug)

	cfg, err = config.Discover(fs, "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestApplyEditorConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/.editorconfig", `root = true

[*]
indent_style = space
indent_size = 4

[*.uss]
indent_style = tab
indent_size = 2
`)

	tests := []struct {
		name string
		file string
		want format.Options
	}{
		{name: "uss section wins", file: "/repo/Assets/UI/main.uss", want: format.Options{UseSpaces: false, IndentWidth: 2}},
		{name: "fallback section", file: "/repo/Assets/UI/main.txt", want: format.Options{UseSpaces: true, IndentWidth: 4}},
		{name: "no editorconfig", file: "/other/main.uss", want: format.DefaultOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			require.NoError(t, cfg.ApplyEditorConfig(fs, tt.file))
			assert.Equal(t, tt.want, cfg.Formatting)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Concurrency = 0
	cfg.Formatting.IndentWidth = -1
	cfg.LogLevel = "loud"
	cfg.KnownProperties = []string{""}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"indent_width", "concurrency", "log_level", "known_properties"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestResolve(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/repo/.ussls.yaml", "concurrency: 2\n")
	write(t, fs, "/other/custom.yaml", "concurrency: 3\n")
	write(t, fs, "/bad/.ussls.yaml", "concurrency: 0\n")

	cfg, err := config.Resolve(fs, "", "/repo")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Concurrency)

	cfg, err = config.Resolve(fs, "/other/custom.yaml", "/repo")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Concurrency)

	_, err = config.Resolve(fs, "", "/bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency must be positive")
}
