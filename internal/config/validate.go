package config

import (
	"fmt"
	"strings"

	"github.com/jasmine-go/jasmine/pkg/types"
)

// ValidationError reports an option that cannot be used.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Message)
}

// Validate checks a config after defaults have been applied.
func Validate(cfg *types.Config) error {
	lists := []struct {
		field    string
		patterns []string
	}{
		{"src_files", cfg.SrcFiles},
		{"spec_files", cfg.SpecFiles},
		{"helpers", cfg.Helpers},
		{"stylesheets", cfg.Stylesheets},
	}
	for _, l := range lists {
		for i, p := range l.patterns {
			if strings.TrimSpace(strings.TrimPrefix(p, "!")) == "" {
				return &ValidationError{
					Field:   fmt.Sprintf("%s[%d]", l.field, i),
					Message: "empty pattern",
				}
			}
		}
	}

	for i, p := range cfg.Coverage.SkipPaths {
		if strings.TrimSpace(p) == "" {
			return &ValidationError{Field: fmt.Sprintf("coverage.skip_paths[%d]", i), Message: "empty path"}
		}
	}
	if strings.ContainsAny(cfg.Coverage.Encoding, " \t\n") {
		return &ValidationError{Field: "coverage.encoding", Message: fmt.Sprintf("%q is not an encoding name", cfg.Coverage.Encoding)}
	}
	return nil
}
