// Command taskcurve is a single-binary, local-only task manager: priority
// curves instead of manual ranking, dependency-aware status, recurrence, and
// a greedy daily planner, all backed by one SQLite file.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskcurve/taskcurve/internal/cli"
	"github.com/taskcurve/taskcurve/internal/config"
	"github.com/taskcurve/taskcurve/internal/dependency"
	"github.com/taskcurve/taskcurve/internal/lifecycle"
	"github.com/taskcurve/taskcurve/internal/store/sqlite"
	"github.com/taskcurve/taskcurve/pkg/logger"
)

var (
	dbPath     string
	configPath string
	verbose    bool
	noColor    bool

	db   *sqlite.DB
	orch *lifecycle.Orchestrator
	idx  *dependency.GraphIndex
)

var rootCmd = &cobra.Command{
	Use:   "taskcurve",
	Short: "A priority-curve task manager",
	Long: `taskcurve tracks tasks whose urgency is computed from a priority curve
rather than set by hand, applies dependency-aware blocking, handles
recurring tasks, and can pack a day's candidates into a schedule.`,
	Example:           "  taskcurve task create \"Renew passport\" --deadline 2026-09-01\n  taskcurve plan --blocks",
	SilenceUsage:      true,
	PersistentPreRunE: openStore,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
		if idx != nil {
			idx.Close()
		}
	},
}

func init() {
	home, err := os.UserHomeDir()
	defaultPath := "taskcurve.db"
	if err == nil {
		defaultPath = filepath.Join(home, ".taskcurve", "tasks.db")
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultPath, "path to the SQLite database file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to an optional JSON defaults override file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(initCmd, taskCmd, bucketCmd, priorityCmd, timelineCmd, planCmd, exportCmd, importCmd, versionCmd)
}

// openStore wires up the SQLite store, orchestrator, and optional Kuzu
// accelerator before any subcommand's RunE runs.
func openStore(cmd *cobra.Command, args []string) error {
	cli.InitColor(noColor)

	level := "info"
	if verbose {
		level = "debug"
	}
	log := logger.NewDefaultLogger("taskcurve", level)

	// sqlite.Open creates the database directory when it is missing, for
	// `init` and every other command alike.
	opened, err := sqlite.Open(sqlite.DefaultConfig(dbPath), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	db = opened

	ctx := cmd.Context()
	if cmd == initCmd {
		if err := config.LoadFileDefaults(ctx, db.Config, configPath); err != nil {
			return fmt.Errorf("load config overrides: %w", err)
		}
	}

	graphPath := dbPath + ".kuzu"
	if dbPath != ":memory:" {
		if gi, err := dependency.OpenIndex(graphPath); err == nil {
			idx = gi
			if all, err := db.Tasks.All(ctx); err == nil {
				_ = idx.Rebuild(all)
			}
		} else {
			log.Debug("dependency graph accelerator unavailable, falling back to linear scan", "error", err)
		}
	}

	orch = lifecycle.New(db, idx)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the taskcurve version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli.Info.Println("taskcurve", config.CurrentVersion)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
