package event

import "github.com/jasmine-go/jasmine/pkg/types"

// FilesChangedData is the data for files.changed events.
type FilesChangedData struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}

// CoverageInstrumentedData is the data for coverage.instrumented events.
type CoverageInstrumentedData struct {
	Files           int    `json:"files"`
	InstrumentedDir string `json:"instrumentedDir"`
	// ToolError is set when the instrumenter exited unsuccessfully.
	ToolError string `json:"toolError,omitempty"`
}

// CoverageReportedData is the data for coverage.reported events.
type CoverageReportedData struct {
	Report *types.Report `json:"report"`
}
