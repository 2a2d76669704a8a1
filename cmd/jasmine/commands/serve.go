package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jasmine-go/jasmine/internal/logging"
	"github.com/jasmine-go/jasmine/internal/server"
	"github.com/jasmine-go/jasmine/internal/watch"
)

var (
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolved files and the coverage report endpoint",
	Long: `Start an HTTP server exposing the file manifest (/__files__), the
coverage report sink (/__coverage__), spec files (/__spec__/) and an event
stream (/__events__).

With --watch, changes below the source and spec dirs are streamed as
events and an edited jasmine.yml is reloaded.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", server.DefaultConfig().Port, "Port to listen on")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Watch project files and reload jasmine.yml")
}

func runServe(cmd *cobra.Command, args []string) error {
	opts, err := projectOptions()
	if err != nil {
		return err
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Port = servePort

	srv, err := server.New(serverConfig, opts)
	if err != nil {
		return err
	}

	if serveWatch {
		w, err := watch.ForProject(srv.Project(), nil)
		if err != nil {
			return err
		}
		w.Start()
		defer w.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}
	return nil
}
