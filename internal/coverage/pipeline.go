package coverage

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/jasmine-go/jasmine/internal/event"
	"github.com/jasmine-go/jasmine/internal/logging"
	"github.com/jasmine-go/jasmine/pkg/types"
)

// ToolName is the instrumenter looked up on PATH.
const ToolName = "jscoverage"

// State is the instrumentation state of a Pipeline.
type State int

const (
	Uninstrumented State = iota
	Instrumenting
	Instrumented
)

func (s State) String() string {
	switch s {
	case Uninstrumented:
		return "uninstrumented"
	case Instrumenting:
		return "instrumenting"
	case Instrumented:
		return "instrumented"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Pipeline. Zero values select the host filesystem,
// ExecRunner, exec.LookPath and ToolName.
type Options struct {
	ProjectRoot string
	Fs          afero.Fs
	Runner      Runner
	LookPath    func(file string) (string, error)
	Tool        string
	Bus         *event.Bus
}

// Pipeline instruments a project's source files at most once.
type Pipeline struct {
	root      string
	cfg       types.CoverageConfig
	requested bool

	fs       afero.Fs
	runner   Runner
	lookPath func(string) (string, error)
	tool     string
	bus      *event.Bus
	log      *zerolog.Logger

	toolOnce  sync.Once
	toolFound bool
	warnOnce  sync.Once

	mu    sync.Mutex
	state State
}

// New creates a pipeline for cfg. cfg must have had defaults applied.
func New(cfg *types.Config, opts Options) *Pipeline {
	p := &Pipeline{
		root:      opts.ProjectRoot,
		cfg:       cfg.Coverage,
		requested: cfg.CoverageRequested(),
		fs:        opts.Fs,
		runner:    opts.Runner,
		lookPath:  opts.LookPath,
		tool:      opts.Tool,
		bus:       opts.Bus,
		log:       logging.Component("coverage"),
	}
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}
	if p.runner == nil {
		p.runner = ExecRunner{}
	}
	if p.lookPath == nil {
		p.lookPath = exec.LookPath
	}
	if p.tool == "" {
		p.tool = ToolName
	}
	if p.bus == nil {
		p.bus = event.Default()
	}
	return p
}

// Enabled reports whether coverage was requested and the instrumenter is on
// PATH. When it was requested but the tool is missing, a warning is logged
// once and Enabled returns false.
func (p *Pipeline) Enabled() bool {
	if !p.requested {
		return false
	}
	if !p.toolAvailable() {
		p.warnOnce.Do(func() {
			p.log.Warn().
				Str("tool", p.tool).
				Msgf("Warning: jasmine.yml has coverage enabled, but %s was not found in PATH", p.tool)
		})
		return false
	}
	return true
}

func (p *Pipeline) toolAvailable() bool {
	p.toolOnce.Do(func() {
		_, err := p.lookPath(p.tool)
		p.toolFound = err == nil
	})
	return p.toolFound
}

// Encoding returns the source encoding passed to the instrumenter.
func (p *Pipeline) Encoding() string { return p.cfg.Encoding }

// SkippedPaths returns the paths copied without instrumentation.
func (p *Pipeline) SkippedPaths() []string { return p.cfg.SkipPaths }

// TempDir returns the configured temp dir.
func (p *Pipeline) TempDir() string { return p.cfg.TempDir }

// ReportDir returns the configured report dir.
func (p *Pipeline) ReportDir() string { return p.cfg.ReportDir }

// InstrumentedDir returns <temp_dir>/javascripts/instrumented.
func (p *Pipeline) InstrumentedDir() string {
	return filepath.Join(p.cfg.TempDir, "javascripts", "instrumented")
}

// UninstrumentedDir returns <temp_dir>/javascripts/uninstrumented.
func (p *Pipeline) UninstrumentedDir() string {
	return filepath.Join(p.cfg.TempDir, "javascripts", "uninstrumented")
}

// Resolve joins a pipeline path with the project root unless it is absolute.
func (p *Pipeline) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.root, path)
}

// Args returns the instrumenter arguments, one token per argument.
func (p *Pipeline) Args() []string {
	args := []string{"--encoding=" + p.cfg.Encoding}
	for _, path := range p.cfg.SkipPaths {
		args = append(args, "--no-instrument="+path)
	}
	return append(args, p.UninstrumentedDir(), p.InstrumentedDir())
}

// State returns the current instrumentation state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Instrument copies files (relative to srcDir) into the staging dir and runs
// the instrumenter once. Later calls return nil without doing anything.
//
// The instrumenter's exit status does not fail the call: it is logged and
// the pipeline is still marked instrumented. A failed copy or a cancelled ctx
// is returned and leaves the pipeline uninstrumented so a later call retries.
func (p *Pipeline) Instrument(ctx context.Context, srcDir string, files []string) error {
	data, err := p.instrument(ctx, srcDir, files)
	if err != nil || data == nil {
		return err
	}
	p.bus.Publish(event.Event{Type: event.CoverageInstrumented, Data: *data})
	return nil
}

// instrument does the work of Instrument under p.mu. It returns nil data when
// the pipeline was already instrumented.
func (p *Pipeline) instrument(ctx context.Context, srcDir string, files []string) (*event.CoverageInstrumentedData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Instrumented {
		return nil, nil
	}
	p.state = Instrumenting

	if err := p.stage(srcDir, files); err != nil {
		p.state = Uninstrumented
		return nil, err
	}

	args := p.Args()
	p.log.Debug().Str("tool", p.tool).Strs("args", args).Msg("instrumenting sources")

	runErr := p.runner.Run(ctx, p.root, p.tool, args...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		p.state = Uninstrumented
		return nil, fmt.Errorf("coverage: instrument: %w", ctxErr)
	}

	data := &event.CoverageInstrumentedData{
		Files:           len(files),
		InstrumentedDir: p.InstrumentedDir(),
	}
	if runErr != nil {
		p.log.Error().Err(runErr).Msg("instrumentation failed")
		data.ToolError = runErr.Error()
	}

	p.state = Instrumented
	return data, nil
}

func (p *Pipeline) stage(srcDir string, files []string) error {
	staging := p.Resolve(p.UninstrumentedDir())
	if err := p.fs.MkdirAll(staging, 0755); err != nil {
		return fmt.Errorf("coverage: create staging dir: %w", err)
	}

	for _, file := range files {
		destDir := filepath.Join(staging, filepath.Dir(file))
		if err := p.fs.MkdirAll(destDir, 0755); err != nil {
			return fmt.Errorf("coverage: create staging dir: %w", err)
		}
		src := filepath.Join(srcDir, file)
		dst := filepath.Join(destDir, filepath.Base(file))
		if err := copyFile(p.fs, src, dst); err != nil {
			return fmt.Errorf("coverage: stage %s: %w", file, err)
		}
	}
	return nil
}

// copyFile copies src to dst, replacing dst.
func copyFile(fsys afero.Fs, src, dst string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
