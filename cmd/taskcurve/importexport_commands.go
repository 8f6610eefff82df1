package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskcurve/taskcurve/internal/cli"
	"github.com/taskcurve/taskcurve/internal/importexport"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every task, bucket, and completion to a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := importexport.Export(cmd.Context(), db)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		if exportOut == "" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(exportOut, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", exportOut, err)
		}
		cli.Success.Printf("exported %d tasks, %d buckets, %d completions to %s\n",
			len(snap.Tasks), len(snap.Buckets), len(snap.Completions), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path, defaults to stdout")
}

var importMode string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore tasks, buckets, and completions from an export file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		var snap importexport.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		mode := importexport.Mode(importMode)
		if mode != importexport.ModeReplace && mode != importexport.ModeMerge {
			return fmt.Errorf("invalid --mode %q, must be replace or merge", importMode)
		}

		result, err := importexport.Import(cmd.Context(), db, &snap, mode)
		if err != nil {
			return err
		}
		cli.Success.Printf("imported %d/%d tasks, %d/%d buckets, %d/%d completions\n",
			result.Tasks.Imported, result.Tasks.Imported+result.Tasks.Skipped,
			result.Buckets.Imported, result.Buckets.Imported+result.Buckets.Skipped,
			result.Completions.Imported, result.Completions.Imported+result.Completions.Skipped)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importMode, "mode", string(importexport.ModeMerge), "replace or merge")
}
