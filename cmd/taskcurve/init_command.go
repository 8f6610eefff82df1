package main

import (
	"github.com/spf13/cobra"

	"github.com/taskcurve/taskcurve/internal/cli"
	"github.com/taskcurve/taskcurve/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and seed its reserved configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		defaults, err := config.LoadDefaults(ctx, db.Config)
		if err != nil {
			return err
		}
		if err := config.SaveDefaults(ctx, db.Config, defaults); err != nil {
			return err
		}
		cli.Success.Println("initialized", dbPath)
		cli.Dim.Printf("default curve: %s  work hours: %s-%s\n", defaults.CurveType, defaults.WorkHoursStart, defaults.WorkHoursEnd)
		return nil
	},
}
