package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report [payload.json]",
	Short: "Write a coverage report from a saved payload",
	Long: `Write a coverage payload, as a browser runner would post it, to the
coverage report dir. The payload is read from the file argument or stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	payload, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	p, err := openProject()
	if err != nil {
		return err
	}
	report, err := p.Reporter(nil).Save(payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "report %s written to %s\n", report.ID, report.File)
	return nil
}
