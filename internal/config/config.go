package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/jasmine-go/jasmine/internal/logging"
	"github.com/jasmine-go/jasmine/pkg/types"
)

// Environment variables read by the loader.
const (
	EnvConfigFile = "JASMINE_CONFIG"
	EnvCoverage   = "JASMINE_COVERAGE_ENABLED"
	EnvLogLevel   = "JASMINE_LOG_LEVEL"
)

// LoadOptions controls where the configuration is read from.
type LoadOptions struct {
	// ProjectRoot anchors the default config path and relative directories.
	ProjectRoot string
	// File overrides the config file path. Relative paths are joined with
	// ProjectRoot.
	File string
	// Fs is the filesystem to read from. Defaults to the host filesystem.
	Fs afero.Fs
}

// Load reads the configuration (priority order):
// 1. Built-in defaults
// 2. The templated YAML file (LoadOptions.File, JASMINE_CONFIG, or the default path)
// 3. JASMINE_COVERAGE_ENABLED, whose presence forces coverage on
//
// A missing or unreadable file is not an error; the defaults apply.
func Load(opts LoadOptions) (*types.Config, error) {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	path := ResolveFile(opts)

	cfg := &types.Config{}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		logging.Debug().Err(err).Str("path", path).Msg("config file not loaded, using defaults")
	} else if err := loadConfigFile(fsys, path, data, opts.ProjectRoot, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	cfg.ApplyDefaults()

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile renders, interpolates and parses a single config file.
func loadConfigFile(fsys afero.Fs, path string, data []byte, projectRoot string, cfg *types.Config) error {
	baseDir := filepath.Dir(path)

	rendered, err := Render(data, NewTemplateData(projectRoot, baseDir))
	if err != nil {
		return fmt.Errorf("config: render %s: %w", path, err)
	}

	rendered = interpolate(fsys, rendered, baseDir)

	if err := parse(rendered, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	logging.Debug().Str("path", path).Msg("config file loaded")
	return nil
}

// parse decodes YAML into cfg. An empty document, null or false leaves cfg
// untouched.
func parse(data []byte, cfg *types.Config) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode {
		switch root.ShortTag() {
		case "!!null":
			return nil
		case "!!bool":
			var b bool
			if err := root.Decode(&b); err == nil && !b {
				return nil
			}
		}
		return errors.New("top level must be a mapping")
	}

	return root.Decode(cfg)
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *types.Config) {
	if _, ok := os.LookupEnv(EnvCoverage); ok {
		cfg.CoverageForced = true
	}
}

// ResolveFile returns the config file path Load would read.
func ResolveFile(opts LoadOptions) string {
	file := opts.File
	if file == "" {
		file = os.Getenv(EnvConfigFile)
	}
	if file == "" {
		return DefaultFile(opts.ProjectRoot)
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(opts.ProjectRoot, file)
	}
	return file
}
