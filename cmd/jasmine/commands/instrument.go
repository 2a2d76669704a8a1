package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jasmine-go/jasmine/internal/config"
	"github.com/jasmine-go/jasmine/internal/coverage"
	"github.com/jasmine-go/jasmine/internal/event"
)

var instrumentCmd = &cobra.Command{
	Use:   "instrument",
	Short: "Instrument the source files with jscoverage",
	Long: `Copy the resolved source files to the coverage temp dir and run
jscoverage over them, as the first request of a coverage run would.

Coverage is forced on for this command.`,
	RunE: runInstrument,
}

func runInstrument(cmd *cobra.Command, args []string) error {
	if err := os.Setenv(config.EnvCoverage, "1"); err != nil {
		return err
	}
	p, err := openProject()
	if err != nil {
		return err
	}
	if !p.CoverageEnabled() {
		return fmt.Errorf("%s was not found in PATH", coverage.ToolName)
	}

	var toolErr string
	unsub := event.Subscribe(event.CoverageInstrumented, func(e event.Event) {
		toolErr = e.Data.(event.CoverageInstrumentedData).ToolError
	})
	defer unsub()

	files, err := p.SrcFiles(cmd.Context())
	if err != nil {
		return err
	}
	if toolErr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", toolErr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "instrumented %d files into %s\n", len(files), p.SrcDir())
	return nil
}
