// Package coverage routes a project's source files through the jscoverage
// instrumenter and persists the coverage reports a browser run submits.
//
// A Pipeline moves through three states, uninstrumented, instrumenting and
// instrumented. The last is terminal: the instrumenter runs at most once per
// Pipeline no matter how often the source list is read. Instrumentation
// copies every resolved source file into <temp_dir>/javascripts/uninstrumented,
// then runs
//
//	jscoverage --encoding=<enc> [--no-instrument=<path> ...] <uninstrumented> <instrumented>
//
// from the project root. Arguments are passed as discrete tokens; no shell is
// involved.
//
// Coverage is enabled when JASMINE_COVERAGE_ENABLED is set or jasmine.yml
// says coverage.enabled, and jscoverage is on PATH. A missing tool produces a
// single warning and disables coverage.
//
// Reporter writes <report_dir>/jscoverage.json plus the viewer assets.
package coverage
