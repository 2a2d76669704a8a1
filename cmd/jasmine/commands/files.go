package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	filesFilter    string
	filesJSON      bool
	filesFullPaths bool
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Print the resolved files",
	Long: `Print the files a runner page loads, in order: sources, helpers, specs.

With coverage enabled in jasmine.yml, the sources are instrumented first.`,
	RunE: runFiles,
}

func init() {
	filesCmd.Flags().StringVarP(&filesFilter, "filter", "f", "", "Spec pattern replacing spec_files")
	filesCmd.Flags().BoolVar(&filesJSON, "json", false, "Print the manifest as JSON")
	filesCmd.Flags().BoolVar(&filesFullPaths, "full-paths", false, "Print spec files as host paths")
}

func runFiles(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if filesFullPaths {
		for _, f := range p.SpecFilesFullPaths() {
			fmt.Fprintln(out, f)
		}
		return nil
	}

	manifest, err := p.Manifest(cmd.Context(), filesFilter)
	if err != nil {
		return err
	}

	if filesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	}

	for _, f := range manifest.Stylesheets {
		fmt.Fprintln(out, f)
	}
	for _, f := range manifest.JSFiles {
		fmt.Fprintln(out, f)
	}
	if len(manifest.JSFiles) == 0 {
		fmt.Fprintln(os.Stderr, "no files matched")
	}
	return nil
}
