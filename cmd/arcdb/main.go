// Command arcdb is the command-line entrypoint: an interactive REPL, a
// TCP server, and a one-shot statement runner, all sharing the same
// engine bootstrap.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chocapikk/arcdb/internal/dblog"
)

// Version information, set via ldflags during build.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "arcdb",
	Short:   "arcdb - a small relational database engine",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("arcdb version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("config", "arcdb.yaml", "Path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error), overrides config")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs as JSON")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(execCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	cfg := dblog.Config{JSONOutput: jsonOut}
	if level != "" {
		cfg.Level = dblog.Level(level)
	} else {
		cfg.Level = dblog.InfoLevel
	}
	dblog.Init(cfg)
}
