// Package config loads jasmine.yml, the file that describes a JavaScript test
// project's layout.
//
// # Loading
//
// Load reads the file named by LoadOptions.File, the JASMINE_CONFIG
// environment variable, or spec/javascripts/support/jasmine.yml under the
// project root, in that order. A missing or unreadable file yields the
// defaults from pkg/types and no error.
//
// Before parsing, the file is rendered as a text/template. Templates see only
// TemplateData (ProjectRoot, ConfigDir, SpecDir) and the functions env, seq
// and join:
//
//	src_files:
//	{{- range $i := seq 3 }}
//	  - lib/part{{ $i }}.js
//	{{- end }}
//	spec_dir: {{ .ProjectRoot }}/test/js
//
// After rendering, {env:VAR} and {file:path} placeholders are expanded. File
// paths are relative to the config file's directory unless absolute or
// starting with ~/.
//
// A document that is empty, null or false is treated as an empty mapping.
//
// # Environment Variable Overrides
//
//   - JASMINE_CONFIG - Path to the config file
//   - JASMINE_COVERAGE_ENABLED - Presence forces coverage on
//   - JASMINE_LOG_LEVEL - Default log level for the CLI
//
// # Validation
//
// Defaults are applied once at load time, then Validate rejects empty
// patterns, empty coverage skip paths and malformed encodings with a
// *ValidationError.
package config
