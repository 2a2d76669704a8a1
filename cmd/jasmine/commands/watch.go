package commands

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jasmine-go/jasmine/internal/event"
	"github.com/jasmine-go/jasmine/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes to source, spec and config files",
	Long: `Watch the source dir, the spec dir and the config file's dir and print
one line per change until interrupted.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := event.Default()
	changes, err := bus.Stream(ctx, event.FilesChanged)
	if err != nil {
		return err
	}

	w, err := watch.ForProject(p, bus)
	if err != nil {
		return err
	}
	w.Start()
	defer w.Stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "watching %d dirs\n", len(w.Dirs()))
	for e := range changes {
		var data event.FilesChangedData
		raw, _ := e.Data.(json.RawMessage)
		if err := json.Unmarshal(raw, &data); err != nil {
			continue
		}
		fmt.Fprintf(out, "%s %s\n", data.Op, data.Path)
	}
	return nil
}
