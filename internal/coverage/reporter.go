package coverage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/jasmine-go/jasmine/internal/event"
	"github.com/jasmine-go/jasmine/internal/logging"
	"github.com/jasmine-go/jasmine/pkg/types"
)

// ReportFile is the name of the persisted coverage data.
const ReportFile = "jscoverage.json"

// ViewerAssets are the report viewer files the instrumenter writes next to
// the instrumented sources.
var ViewerAssets = []string{
	"jscoverage.css",
	"jscoverage-highlight.css",
	"jscoverage.html",
	"jscoverage-ie.css",
	"jscoverage.js",
	"jscoverage-throbber.gif",
}

// reportModeStatement switches the copied viewer script into report mode.
const reportModeStatement = "\njscoverage_isReport = true;\n"

// ErrInvalidPayload is returned for a payload that is not valid JSON.
var ErrInvalidPayload = errors.New("coverage: report payload is not valid JSON")

// Locator tells the reporter where assets come from and where reports go.
type Locator interface {
	// SrcDir is the directory holding the viewer assets, usually the
	// instrumented dir.
	SrcDir() string
	// ReportDir is the report directory, absolute or relative to the
	// project root.
	ReportDir() string
}

// Reporter persists coverage payloads submitted by the browser runner.
type Reporter struct {
	root    string
	locator Locator
	fs      afero.Fs
	bus     *event.Bus
	log     *zerolog.Logger
}

// NewReporter creates a reporter. A nil fsys means the host filesystem and a
// nil bus the default bus.
func NewReporter(projectRoot string, locator Locator, fsys afero.Fs, bus *event.Bus) *Reporter {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if bus == nil {
		bus = event.Default()
	}
	return &Reporter{
		root:    projectRoot,
		locator: locator,
		fs:      fsys,
		bus:     bus,
		log:     logging.Component("reporter"),
	}
}

// Save writes payload, pretty-printed, to <report_dir>/jscoverage.json, copies
// the viewer assets beside it and switches the viewer into report mode.
func (r *Reporter) Save(payload []byte) (*types.Report, error) {
	if !json.Valid(payload) {
		return nil, ErrInvalidPayload
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	pretty.WriteByte('\n')

	dir := r.reportDir()
	if err := r.fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("coverage: create report dir: %w", err)
	}

	file := filepath.Join(dir, ReportFile)
	if err := afero.WriteFile(r.fs, file, pretty.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("coverage: write report: %w", err)
	}

	srcDir := r.locator.SrcDir()
	for _, asset := range ViewerAssets {
		if err := copyFile(r.fs, filepath.Join(srcDir, asset), filepath.Join(dir, asset)); err != nil {
			return nil, fmt.Errorf("coverage: copy viewer asset %s: %w", asset, err)
		}
	}

	if err := r.enableReportMode(filepath.Join(dir, "jscoverage.js")); err != nil {
		return nil, fmt.Errorf("coverage: enable report mode: %w", err)
	}

	report := &types.Report{
		ID:    ulid.Make().String(),
		Dir:   dir,
		File:  file,
		Bytes: pretty.Len(),
	}
	r.log.Info().Str("id", report.ID).Str("dir", dir).Msg("Finished writing coverage report")
	r.bus.Publish(event.Event{Type: event.CoverageReported, Data: event.CoverageReportedData{Report: report}})
	return report, nil
}

func (r *Reporter) reportDir() string {
	dir := r.locator.ReportDir()
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(r.root, dir)
}

func (r *Reporter) enableReportMode(script string) error {
	f, err := r.fs.OpenFile(script, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(reportModeStatement); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
