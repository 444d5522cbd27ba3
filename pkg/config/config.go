// Package config loads ussls settings from a YAML file, the nearest
// .editorconfig and command line flags, in that order of precedence.
package config

import (
	"bytes"
	"io"
	"path/filepath"
	"strconv"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/ussls/pkg/format"
	"github.com/walteh/ussls/pkg/knowledge"
)

const FileName = ".ussls.yaml"

type Config struct {
	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`
	// Concurrency bounds how many requests the server handles at once. One
	// keeps edits and queries in arrival order.
	Concurrency     int            `yaml:"concurrency"`
	Formatting      format.Options `yaml:"formatting"`
	KnownProperties []string       `yaml:"known_properties"`
	// ForwardLogs mirrors server logs to the client as window/logMessage.
	ForwardLogs bool `yaml:"forward_logs"`
}

func Default() Config {
	return Config{
		LogLevel:    zerolog.InfoLevel.String(),
		Concurrency: 1,
		Formatting:  format.DefaultOptions(),
	}
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, errors.Errorf("reading %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}

// Find looks for FileName in dir and its parents.
func Find(fs afero.Fs, dir string) (string, bool) {
	return findUp(fs, dir, FileName)
}

// Discover loads the config file found from dir, or the defaults when there
// is none.
func Discover(fs afero.Fs, dir string) (Config, error) {
	path, ok := Find(fs, dir)
	if !ok {
		return Default(), nil
	}
	return Load(fs, path)
}

// Resolve loads path when it is set and otherwise discovers a config file
// from dir. The result is validated.
func Resolve(fs afero.Fs, path, dir string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		cfg, err = Load(fs, path)
	} else {
		cfg, err = Discover(fs, dir)
	}
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEditorConfig overrides the formatting options with the indent_style
// and indent_size (or tab_width) that the nearest .editorconfig assigns to
// filename. Nothing changes when there is no .editorconfig.
func (c *Config) ApplyEditorConfig(fs afero.Fs, filename string) error {
	path, ok := findUp(fs, filepath.Dir(filename), ".editorconfig")
	if !ok {
		return nil
	}
	f, err := fs.Open(path)
	if err != nil {
		return errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	ec, err := editorconfig.Parse(f)
	if err != nil {
		return errors.Errorf("parsing %s: %w", path, err)
	}
	rel, err := filepath.Rel(filepath.Dir(path), filename)
	if err != nil {
		return errors.Errorf("relating %s to %s: %w", filename, path, err)
	}
	def, err := ec.GetDefinitionForFilename(filepath.ToSlash(rel))
	if err != nil {
		return errors.Errorf("matching %s in %s: %w", rel, path, err)
	}

	switch def.IndentStyle {
	case editorconfig.IndentStyleSpaces:
		c.Formatting.UseSpaces = true
	case editorconfig.IndentStyleTab:
		c.Formatting.UseSpaces = false
	}
	if n, err := strconv.Atoi(def.IndentSize); err == nil {
		c.Formatting.IndentWidth = n
	} else if def.TabWidth > 0 {
		c.Formatting.IndentWidth = def.TabWidth
	}
	return nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.Formatting.IndentWidth <= 0 {
		result = multierror.Append(result, errors.Errorf("formatting.indent_width must be positive, got %d", c.Formatting.IndentWidth))
	}
	if c.Concurrency <= 0 {
		result = multierror.Append(result, errors.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, errors.Errorf("log_level: %w", err))
	}
	for _, p := range c.KnownProperties {
		if p == "" {
			result = multierror.Append(result, errors.New("known_properties contains an empty name"))
			break
		}
	}
	return result.ErrorOrNil()
}

// Level is the zerolog level to run at. Debug forces DebugLevel.
func (c Config) Level() zerolog.Level {
	if c.Debug {
		return zerolog.DebugLevel
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Tables are the built-in knowledge tables plus KnownProperties.
func (c Config) Tables() *knowledge.Tables {
	if len(c.KnownProperties) == 0 {
		return knowledge.Default()
	}
	return knowledge.Default().WithProperties(c.KnownProperties...)
}

func findUp(fs afero.Fs, dir, name string) (string, bool) {
	dir = filepath.Clean(dir)
	for {
		path := filepath.Join(dir, name)
		if ok, err := afero.Exists(fs, path); err == nil && ok {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
