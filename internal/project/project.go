// Package project composes the resolved file set of a jasmine project:
// sources, helpers, specs and stylesheets, rewritten to the paths the
// browser runner requests them under.
package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/jasmine-go/jasmine/internal/config"
	"github.com/jasmine-go/jasmine/internal/coverage"
	"github.com/jasmine-go/jasmine/internal/event"
	"github.com/jasmine-go/jasmine/internal/logging"
	"github.com/jasmine-go/jasmine/internal/pattern"
	"github.com/jasmine-go/jasmine/pkg/types"
)

// Server paths the browser runner loads files from.
const (
	SpecPath        = "/__spec__"
	RootPath        = "/__root__"
	JasmineRootPath = "/__JASMINE_ROOT__"
)

// Options configures a Project. Zero values select the working directory,
// the default config file and the host filesystem.
type Options struct {
	ProjectRoot string
	ConfigFile  string
	Fs          afero.Fs

	// Runner and LookPath replace the instrumenter subprocess and its PATH
	// lookup.
	Runner   coverage.Runner
	LookPath func(file string) (string, error)
	Bus      *event.Bus
}

// Project is one logical run over a jasmine project. The loaded config is
// read-only; the coverage pipeline holds the only mutable state.
type Project struct {
	root       string
	configFile string
	cfg        *types.Config
	fs         afero.Fs
	resolver   *pattern.Resolver
	pipeline   *coverage.Pipeline
	log        *zerolog.Logger
}

// New loads the project's config and prepares its resolver and pipeline.
func New(opts Options) (*Project, error) {
	root, err := projectRoot(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	loadOpts := config.LoadOptions{ProjectRoot: root, File: opts.ConfigFile, Fs: opts.Fs}
	cfg, err := config.Load(loadOpts)
	if err != nil {
		return nil, err
	}

	opts.ProjectRoot = root
	p := FromConfig(cfg, opts)
	p.configFile = config.ResolveFile(loadOpts)
	return p, nil
}

// FromConfig builds a project around an already loaded config. Defaults are
// applied to cfg.
func FromConfig(cfg *types.Config, opts Options) *Project {
	cfg.ApplyDefaults()
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Project{
		root:       opts.ProjectRoot,
		configFile: config.DefaultFile(opts.ProjectRoot),
		cfg:        cfg,
		fs:         fsys,
		resolver:   pattern.NewResolver(fsys),
		pipeline: coverage.New(cfg, coverage.Options{
			ProjectRoot: opts.ProjectRoot,
			Fs:          fsys,
			Runner:      opts.Runner,
			LookPath:    opts.LookPath,
			Bus:         opts.Bus,
		}),
		log: logging.Component("project"),
	}
}

func projectRoot(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("project: working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("project: resolve root %s: %w", dir, err)
	}
	return abs, nil
}

// Config returns the loaded configuration.
func (p *Project) Config() *types.Config { return p.cfg }

// Pipeline returns the coverage pipeline.
func (p *Project) Pipeline() *coverage.Pipeline { return p.pipeline }

// Fs returns the filesystem the project reads from.
func (p *Project) Fs() afero.Fs { return p.fs }

// ProjectRoot returns the absolute project root.
func (p *Project) ProjectRoot() string { return p.root }

// ConfigFile returns the path of the config file, whether or not it exists.
func (p *Project) ConfigFile() string { return p.configFile }

// RawSrcDir returns the configured source dir, ignoring coverage.
func (p *Project) RawSrcDir() string {
	return config.ResolveDir(p.root, p.cfg.SrcDir, ".")
}

// SrcDir returns the directory sources are served from: the instrumented
// dir when coverage is enabled, the raw source dir otherwise.
func (p *Project) SrcDir() string {
	if p.CoverageEnabled() {
		return p.pipeline.Resolve(p.pipeline.InstrumentedDir())
	}
	return p.RawSrcDir()
}

// SpecDir returns the spec directory.
func (p *Project) SpecDir() string {
	return config.ResolveDir(p.root, p.cfg.SpecDir, config.DefaultSpecDir)
}

// Helpers returns helper files relative to the spec dir.
func (p *Project) Helpers() []string {
	return p.resolver.MatchFiles(p.SpecDir(), p.cfg.Helpers)
}

// SrcFiles returns source files relative to the source dir. With coverage
// enabled the first call instruments them; the list itself is the same
// either way.
func (p *Project) SrcFiles(ctx context.Context) ([]string, error) {
	rawDir := p.RawSrcDir()
	files := p.resolver.MatchFiles(rawDir, p.cfg.SrcFiles)
	if p.CoverageEnabled() {
		if err := p.pipeline.Instrument(ctx, rawDir, files); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// SpecFiles returns spec files relative to the spec dir.
func (p *Project) SpecFiles() []string {
	return p.resolver.MatchFiles(p.SpecDir(), p.cfg.SpecFiles)
}

// Stylesheets returns stylesheets relative to the source dir.
func (p *Project) Stylesheets() []string {
	return p.resolver.MatchFiles(p.SrcDir(), p.cfg.Stylesheets)
}

// JSFiles returns, in order, the source files, the helpers and the specs as
// server paths. A non-empty filter replaces the configured spec patterns.
func (p *Project) JSFiles(ctx context.Context, filter string) ([]string, error) {
	src, err := p.SrcFiles(ctx)
	if err != nil {
		return nil, err
	}

	specs := p.SpecFiles()
	if filter != "" {
		specs = p.resolver.MatchFiles(p.SpecDir(), []string{filter})
	}

	files := make([]string, 0, len(src)+len(specs))
	files = append(files, rooted("/", src)...)
	files = append(files, rooted(SpecPath, p.Helpers())...)
	files = append(files, rooted(SpecPath, specs)...)
	return files, nil
}

// SpecFilesFullPaths returns spec files as host paths.
func (p *Project) SpecFilesFullPaths() []string {
	dir := p.SpecDir()
	specs := p.SpecFiles()
	out := make([]string, len(specs))
	for i, f := range specs {
		out[i] = filepath.Join(dir, f)
	}
	return out
}

// UserStylesheets returns the project's stylesheets as server paths.
func (p *Project) UserStylesheets() []string {
	return rooted("/", p.Stylesheets())
}

// JasmineStylesheets maps framework stylesheets under JasmineRootPath.
func (p *Project) JasmineStylesheets(css []string) []string {
	return rooted(JasmineRootPath, css)
}

// JasmineJavascripts maps framework scripts under JasmineRootPath.
func (p *Project) JasmineJavascripts(js []string) []string {
	return rooted(JasmineRootPath, js)
}

// Manifest resolves everything a runner page needs.
func (p *Project) Manifest(ctx context.Context, filter string) (*types.Manifest, error) {
	js, err := p.JSFiles(ctx, filter)
	if err != nil {
		return nil, err
	}
	m := &types.Manifest{
		JSFiles:         js,
		Stylesheets:     p.UserStylesheets(),
		CoverageEnabled: p.CoverageEnabled(),
	}
	p.log.Debug().Int("js", len(m.JSFiles)).Int("css", len(m.Stylesheets)).Msg("manifest resolved")
	return m, nil
}

// CoverageEnabled reports whether sources are instrumented.
func (p *Project) CoverageEnabled() bool { return p.pipeline.Enabled() }

func (p *Project) CoverageEncoding() string       { return p.pipeline.Encoding() }
func (p *Project) CoverageSkippedPaths() []string { return p.pipeline.SkippedPaths() }
func (p *Project) CoverageTempDir() string        { return p.pipeline.TempDir() }
func (p *Project) CoverageReportDir() string      { return p.pipeline.ReportDir() }

func (p *Project) CoverageInstrumentedDir() string   { return p.pipeline.InstrumentedDir() }
func (p *Project) CoverageUninstrumentedDir() string { return p.pipeline.UninstrumentedDir() }

// ReportDir is the coverage report dir; with SrcDir it lets a Project locate
// reports for coverage.Reporter.
func (p *Project) ReportDir() string { return p.CoverageReportDir() }

// Reporter returns a report sink writing next to this project.
func (p *Project) Reporter(bus *event.Bus) *coverage.Reporter {
	return coverage.NewReporter(p.root, p, p.fs, bus)
}

// rooted prefixes each relative path with prefix using forward slashes. The
// paths are kept as given, ".." segments included.
func rooted(prefix string, files []string) []string {
	prefix = strings.TrimSuffix(prefix, "/")
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = prefix + "/" + filepath.ToSlash(f)
	}
	return out
}
