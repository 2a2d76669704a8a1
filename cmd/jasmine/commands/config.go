package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print jasmine.yml after templating and defaults, followed by the
directories derived from it.`,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", p.ConfigFile())
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(p.Config()); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	fmt.Fprintf(out, "# src_dir: %s\n", p.SrcDir())
	fmt.Fprintf(out, "# spec_dir: %s\n", p.SpecDir())
	fmt.Fprintf(out, "# coverage: %t\n", p.CoverageEnabled())
	if p.CoverageEnabled() {
		fmt.Fprintf(out, "# instrumented_dir: %s\n", p.CoverageInstrumentedDir())
		fmt.Fprintf(out, "# uninstrumented_dir: %s\n", p.CoverageUninstrumentedDir())
	}
	return nil
}
