// Package types holds the data model shared by the config loader, the file
// resolver and the coverage pipeline.
package types

// Default values applied when an option is absent from jasmine.yml.
const (
	DefaultSpecDir           = "spec/javascripts"
	DefaultConfigFile        = "spec/javascripts/support/jasmine.yml"
	DefaultCoverageEncoding  = "utf-8"
	DefaultCoverageTempDir   = "tmp"
	DefaultCoverageReportDir = "public/coverage"
)

// DefaultHelpers is the helper pattern used when the config names none.
var DefaultHelpers = []string{"helpers/**/*.js"}

// DefaultSpecFiles is the spec pattern used when the config names none.
var DefaultSpecFiles = []string{"**/*[sS]pec.js"}

// Config is the parsed form of jasmine.yml.
//
// A nil pattern list means the key was absent (or null) and the fallback
// applies; an empty non-nil list was written explicitly as [] and resolves to
// nothing.
type Config struct {
	SrcDir      string         `yaml:"src_dir,omitempty" json:"src_dir,omitempty"`
	SpecDir     string         `yaml:"spec_dir,omitempty" json:"spec_dir,omitempty"`
	SrcFiles    []string       `yaml:"src_files" json:"src_files"`
	SpecFiles   []string       `yaml:"spec_files" json:"spec_files"`
	Helpers     []string       `yaml:"helpers" json:"helpers"`
	Stylesheets []string       `yaml:"stylesheets" json:"stylesheets"`
	Coverage    CoverageConfig `yaml:"coverage" json:"coverage"`

	// CoverageForced is set from the environment, never from the file.
	CoverageForced bool `yaml:"-" json:"coverage_forced,omitempty"`
}

// CoverageConfig is the nested coverage section of jasmine.yml.
type CoverageConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Encoding  string   `yaml:"encoding" json:"encoding"`
	SkipPaths []string `yaml:"skip_paths" json:"skip_paths"`
	TempDir   string   `yaml:"temp_dir" json:"temp_dir"`
	ReportDir string   `yaml:"report_dir" json:"report_dir"`
}

// ApplyDefaults fills every absent option with its default. It is idempotent.
func (c *Config) ApplyDefaults() {
	if c.SrcFiles == nil {
		c.SrcFiles = []string{}
	}
	if c.Stylesheets == nil {
		c.Stylesheets = []string{}
	}
	if c.Helpers == nil {
		c.Helpers = append([]string(nil), DefaultHelpers...)
	}
	if c.SpecFiles == nil {
		c.SpecFiles = append([]string(nil), DefaultSpecFiles...)
	}
	c.Coverage.ApplyDefaults()
}

// ApplyDefaults fills the coverage defaults.
func (c *CoverageConfig) ApplyDefaults() {
	if c.Encoding == "" {
		c.Encoding = DefaultCoverageEncoding
	}
	if c.SkipPaths == nil {
		c.SkipPaths = []string{}
	}
	if c.TempDir == "" {
		c.TempDir = DefaultCoverageTempDir
	}
	if c.ReportDir == "" {
		c.ReportDir = DefaultCoverageReportDir
	}
}

// CoverageRequested reports whether coverage was asked for, either by the
// environment override or by the config file.
func (c *Config) CoverageRequested() bool {
	return c.CoverageForced || c.Coverage.Enabled
}
