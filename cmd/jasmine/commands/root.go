// Package commands provides the CLI commands for jasmine.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jasmine-go/jasmine/internal/config"
	"github.com/jasmine-go/jasmine/internal/logging"
	"github.com/jasmine-go/jasmine/internal/project"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	projectRoot string
	configFile  string
	printLogs   bool
	prettyLogs  bool
	logToFile   bool
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "jasmine",
	Short: "Resolve and serve jasmine spec suites",
	Long: `jasmine resolves a project's jasmine.yml into the ordered list of
source, helper and spec files a browser runner loads, optionally routing
the sources through the jscoverage instrumenter.

Run 'jasmine files' to print the resolved files, or 'jasmine serve' to
serve them together with the coverage report endpoint.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectRoot, "project-root", "C", "", "Project root (default: working directory)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file, relative to the project root (default: "+config.DefaultFile("")+")")
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print all logs to stderr, not only warnings")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty-logs", false, "Human-readable log output")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-file", false, "Also write logs to a file in the temp dir")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR), default $"+config.EnvLogLevel+" or INFO")

	rootCmd.SetVersionTemplate(fmt.Sprintf("jasmine %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(instrumentCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads <project root>/.env and configures logging.
func setup(cmd *cobra.Command, args []string) error {
	root, err := GetWorkDir(projectRoot)
	if err != nil {
		return err
	}
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	level := logLevel
	if level == "" {
		level = os.Getenv(config.EnvLogLevel)
	}
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(level)
	if !printLogs && cfg.Level < logging.WarnLevel {
		cfg.Level = logging.WarnLevel
	}
	cfg.Pretty = prettyLogs
	cfg.LogToFile = logToFile
	cfg.LogDir = os.TempDir()
	logging.Init(cfg)
	return nil
}

// GetWorkDir returns the directory from flag or current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}
	return os.Getwd()
}

// projectOptions returns the project options selected by the global flags.
func projectOptions() (project.Options, error) {
	root, err := GetWorkDir(projectRoot)
	if err != nil {
		return project.Options{}, err
	}
	return project.Options{ProjectRoot: root, ConfigFile: configFile}, nil
}

func openProject() (*project.Project, error) {
	opts, err := projectOptions()
	if err != nil {
		return nil, err
	}
	return project.New(opts)
}
