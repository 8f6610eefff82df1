package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskcurve/taskcurve/internal/cli"
	"github.com/taskcurve/taskcurve/internal/config"
	"github.com/taskcurve/taskcurve/internal/planner"
)

var priorityCmd = &cobra.Command{
	Use:   "priority <id>",
	Short: "Print a task's current priority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id: %w", err)
		}
		p, err := orch.Priority(cmd.Context(), id, time.Now())
		if err != nil {
			return err
		}
		cli.Info.Printf("%s\n", cli.FormatFloat(p))
		return nil
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <id>",
	Short: "Show a task's completion history and upcoming occurrences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id: %w", err)
		}
		tl, err := orch.Timeline(cmd.Context(), id, time.Now())
		if err != nil {
			return err
		}

		printTask(tl.Task)
		cli.Info.Printf("current priority: %s\n", cli.FormatFloat(tl.CurrentPriority))

		if len(tl.Completions) > 0 {
			cli.Header.Println("\ncompletion history:")
			rows := make([][]string, 0, len(tl.Completions))
			for _, c := range tl.Completions {
				rows = append(rows, []string{c.CompletedAt.Format(time.RFC3339), cli.OrEmptyInt(c.ActualMinutes)})
			}
			cli.Table([]string{"Completed at", "Minutes"}, rows)
		}
		if len(tl.ProjectedNextDue) > 0 {
			cli.Header.Println("\nupcoming occurrences:")
			for _, next := range tl.ProjectedNextDue {
				fmt.Println(" ", next.Format(time.RFC3339))
			}
		}
		return nil
	},
}

var (
	planDate          string
	planLimit         int
	planBlocks        bool
	planDefaultEstMin int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build a day's schedule from the highest-priority candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		date := time.Now()
		if planDate != "" {
			d, err := parseDate(planDate)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			date = d
		}

		defaults, err := config.LoadDefaults(ctx, db.Config)
		if err != nil {
			return err
		}
		opts := planner.Options{
			Limit:                  planLimit,
			IncludeTimeBlocks:      planBlocks,
			WorkHoursStart:         defaults.WorkHoursStart,
			WorkHoursEnd:           defaults.WorkHoursEnd,
			DefaultEstimateMinutes: planDefaultEstMin,
		}

		all, err := db.Tasks.All(ctx)
		if err != nil {
			return err
		}
		plan, err := planner.Build(all, date, opts, statusLookupFromAll(all))
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(plan.Scheduled))
		for _, item := range plan.Scheduled {
			slot := ""
			if planBlocks {
				slot = fmt.Sprintf("%s-%s", item.Slot.Start.Format("15:04"), item.Slot.End.Format("15:04"))
			}
			rows = append(rows, []string{strconv.FormatInt(item.Task.ID, 10), item.Task.Title, slot})
		}
		cli.Table([]string{"ID", "Title", "Slot"}, rows)

		if len(plan.Unscheduled) > 0 {
			cli.Warning.Println("\nunscheduled:")
			for _, u := range plan.Unscheduled {
				fmt.Printf("  #%d %s: %s\n", u.Task.ID, u.Task.Title, u.Reason)
			}
		}
		if planBlocks {
			cli.Dim.Printf("\nscheduled %dm, %dm remaining in the working day\n", plan.TotalScheduledMinutes, plan.RemainingMinutes)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planDate, "date", "", "day to plan for, YYYY-MM-DD, defaults to today")
	planCmd.Flags().IntVar(&planLimit, "limit", 0, "maximum number of candidates, 0 means unlimited")
	planCmd.Flags().BoolVar(&planBlocks, "blocks", false, "pack candidates into concrete time blocks")
	planCmd.Flags().IntVar(&planDefaultEstMin, "default-estimate", 30, "fallback estimate in minutes for tasks without one")
}
