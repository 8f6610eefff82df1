package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskcurve/taskcurve/internal/cli"
	"github.com/taskcurve/taskcurve/internal/curve"
	"github.com/taskcurve/taskcurve/internal/domain"
	"github.com/taskcurve/taskcurve/internal/lifecycle"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create, inspect, and manage tasks",
}

// task create flags
var (
	createProject     string
	createBucket      string
	createDeadline    string
	createEstimate    string
	createTags        []string
	createDeps        string
	createWindowStart string
	createWindowEnd   string

	recurMode      string
	recurType      string
	recurInterval  int
	recurUnit      string
	recurDayOfWeek int
	recurTimeOfDay string
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		parsed := &domain.ParsedTask{
			Title:       args[0],
			Project:     createProject,
			BucketName:  createBucket,
			Tags:        createTags,
			WindowStart: createWindowStart,
			WindowEnd:   createWindowEnd,
		}
		if createDeadline != "" {
			deadline, err := parseDate(createDeadline)
			if err != nil {
				return fmt.Errorf("invalid deadline: %w", err)
			}
			parsed.Deadline = &deadline
		}
		if createEstimate != "" {
			d, err := time.ParseDuration(createEstimate)
			if err != nil {
				return fmt.Errorf("invalid estimate: %w", err)
			}
			parsed.Duration = &d
		}
		if createDeps != "" {
			deps, err := parseIDList(createDeps)
			if err != nil {
				return fmt.Errorf("invalid deps: %w", err)
			}
			parsed.Dependencies = deps
		}
		if recurType != "" {
			pattern, err := buildRecurrence()
			if err != nil {
				return err
			}
			parsed.Recurrence = pattern
		}

		task, warning, err := lifecycle.ResolveParsedTask(ctx, db.Buckets, parsed)
		if err != nil {
			return err
		}
		created, err := orch.CreateTask(ctx, task)
		if err != nil {
			return err
		}
		if warning != "" {
			cli.Warning.Println(warning)
		}
		cli.Success.Printf("created task #%d: %s (%s)\n", created.ID, created.Title, created.Status)
		return nil
	},
}

func buildRecurrence() (*domain.RecurrencePattern, error) {
	pattern := &domain.RecurrencePattern{
		Mode:      domain.RecurrenceMode(recurMode),
		Type:      domain.RecurrenceType(recurType),
		TimeOfDay: recurTimeOfDay,
	}
	if pattern.Mode == "" {
		pattern.Mode = domain.ModeCalendar
	}
	switch pattern.Type {
	case domain.TypeDaily, domain.TypeMonthly:
	case domain.TypeWeekly:
		if cmdFlagChanged("day-of-week") {
			pattern.DayOfWeek = &recurDayOfWeek
		}
	case domain.TypeInterval:
		n := recurInterval
		if n <= 0 {
			n = 1
		}
		pattern.Interval = &n
		pattern.Unit = domain.IntervalUnit(recurUnit)
		if pattern.Unit == "" {
			pattern.Unit = domain.UnitDays
		}
	default:
		return nil, fmt.Errorf("unknown recurrence type %q", recurType)
	}
	return pattern, nil
}

// cmdFlagChanged is a narrow indirection so buildRecurrence doesn't need the
// cobra.Command just to check one flag; set by taskCreateCmd's PreRunE
// before its RunE calls buildRecurrence.
var changedFlags map[string]bool

func cmdFlagChanged(name string) bool {
	return changedFlags[name]
}

func registerRecurrenceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&recurMode, "recur-mode", "", "recurrence mode: calendar|completion")
	cmd.Flags().StringVar(&recurType, "recur", "", "recurrence type: daily|weekly|monthly|interval")
	cmd.Flags().IntVar(&recurInterval, "recur-every", 1, "interval count, used with --recur interval")
	cmd.Flags().StringVar(&recurUnit, "recur-unit", "days", "interval unit: days|weeks|months")
	cmd.Flags().IntVar(&recurDayOfWeek, "day-of-week", 0, "0=Sunday..6=Saturday, used with --recur weekly")
	cmd.Flags().StringVar(&recurTimeOfDay, "recur-time", "", "HH:MM time of day for the next occurrence")
}

func init() {
	taskCreateCmd.Flags().StringVar(&createProject, "project", "", "project name")
	taskCreateCmd.Flags().StringVar(&createBucket, "bucket", "", "bucket name")
	taskCreateCmd.Flags().StringVar(&createDeadline, "deadline", "", "deadline, YYYY-MM-DD or RFC3339")
	taskCreateCmd.Flags().StringVar(&createEstimate, "estimate", "", "estimated duration, e.g. 45m, 2h")
	taskCreateCmd.Flags().StringSliceVar(&createTags, "tag", nil, "tag, repeatable")
	taskCreateCmd.Flags().StringVar(&createDeps, "deps", "", "comma-separated dependency task ids")
	taskCreateCmd.Flags().StringVar(&createWindowStart, "window-start", "", "HH:MM time-of-day window start")
	taskCreateCmd.Flags().StringVar(&createWindowEnd, "window-end", "", "HH:MM time-of-day window end")
	registerRecurrenceFlags(taskCreateCmd)

	taskCreateCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		changedFlags = map[string]bool{"day-of-week": cmd.Flags().Changed("day-of-week")}
		return nil
	}

	taskCmd.AddCommand(taskCreateCmd, taskListCmd, taskShowCmd, taskUpdateCmd, taskCompleteCmd, taskDeleteCmd, taskReopenCmd, taskSearchCmd)
}

var (
	listStatus        string
	listProject       string
	listBucket        string
	listTag           string
	listHasDeadline   bool
	listHasRecurrence bool
	listOverdue       bool
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, ordered by current priority",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		filter := domain.ListFilter{}
		if listStatus != "" {
			s := domain.Status(listStatus)
			filter.Status = &s
		}
		if listProject != "" {
			filter.Project = &listProject
		}
		if listBucket != "" {
			b, err := db.Buckets.GetByName(ctx, listBucket)
			if err != nil {
				return fmt.Errorf("resolve bucket: %w", err)
			}
			filter.BucketID = &b.ID
		}
		if listTag != "" {
			filter.Tags = []string{listTag}
		}
		if listHasDeadline {
			t := true
			filter.HasDeadline = &t
		}
		if listHasRecurrence {
			t := true
			filter.HasRecurrence = &t
		}
		if listOverdue {
			t := true
			filter.Overdue = &t
		}

		tasks, err := db.Tasks.List(ctx, filter)
		if err != nil {
			return err
		}
		all, err := db.Tasks.All(ctx)
		if err != nil {
			return err
		}
		lookup := statusLookupFromAll(all)
		now := time.Now()
		scored := make([]curve.Scored, 0, len(tasks))
		for _, t := range tasks {
			scored = append(scored, curve.Scored{Task: t, Priority: curve.Priority(t, now, lookup)})
		}
		// tasks arrive in id order, so the stable sort keeps ascending id among equal priorities.
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].Priority > scored[j].Priority })

		rows := make([][]string, 0, len(scored))
		for _, s := range scored {
			rows = append(rows, []string{
				strconv.FormatInt(s.Task.ID, 10),
				s.Task.Title,
				string(s.Task.Status),
				cli.FormatFloat(s.Priority),
				cli.OrEmptyID(s.Task.BucketID),
			})
		}
		cli.Table([]string{"ID", "Title", "Status", "Priority", "Bucket"}, rows)
		return nil
	},
}

func init() {
	taskListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	taskListCmd.Flags().StringVar(&listProject, "project", "", "filter by project")
	taskListCmd.Flags().StringVar(&listBucket, "bucket", "", "filter by bucket name")
	taskListCmd.Flags().StringVar(&listTag, "tag", "", "filter by tag")
	taskListCmd.Flags().BoolVar(&listHasDeadline, "has-deadline", false, "only tasks with a deadline")
	taskListCmd.Flags().BoolVar(&listHasRecurrence, "has-recurrence", false, "only recurring tasks")
	taskListCmd.Flags().BoolVar(&listOverdue, "overdue", false, "only overdue tasks")
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id: %w", err)
		}
		task, err := db.Tasks.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		printTask(task)
		return nil
	},
}

func printTask(t *domain.Task) {
	cli.Header.Printf("#%d %s\n", t.ID, t.Title)
	fmt.Printf("status:      %s\n", t.Status)
	fmt.Printf("curve:       %s\n", t.CurveConfig.Variant)
	if t.Project != "" {
		fmt.Printf("project:     %s\n", t.Project)
	}
	if len(t.Tags) > 0 {
		fmt.Printf("tags:        %s\n", strings.Join(t.Tags, ", "))
	}
	if t.Deadline != nil {
		fmt.Printf("deadline:    %s\n", t.Deadline.Format(time.RFC3339))
	}
	if t.EstimateMinutes != nil {
		fmt.Printf("estimate:    %dm\n", *t.EstimateMinutes)
	}
	if t.HasWindow() {
		fmt.Printf("window:      %s-%s\n", t.WindowStart, t.WindowEnd)
	}
	if len(t.Dependencies) > 0 {
		deps := make([]string, len(t.Dependencies))
		for i, d := range t.Dependencies {
			deps[i] = strconv.FormatInt(d, 10)
		}
		fmt.Printf("depends on:  %s\n", strings.Join(deps, ", "))
	}
	if t.RecurrencePattern != nil {
		fmt.Printf("recurrence:  %s %s\n", t.RecurrencePattern.Mode, t.RecurrencePattern.Type)
	}
	if t.NextDueAt != nil {
		fmt.Printf("next due:    %s\n", t.NextDueAt.Format(time.RFC3339))
	}
	if t.LastCompletedAt != nil {
		fmt.Printf("last done:   %s\n", t.LastCompletedAt.Format(time.RFC3339))
	}
}

var (
	updateTitle    string
	updateProject  string
	updateDeadline string
	updateEstimate string
	updateDeps     string
)

var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a task's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id: %w", err)
		}

		if cmd.Flags().Changed("deps") {
			deps, err := parseIDList(updateDeps)
			if err != nil {
				return fmt.Errorf("invalid deps: %w", err)
			}
			if err := orch.UpdateDependencies(ctx, id, deps); err != nil {
				return err
			}
		}

		task, err := db.Tasks.Get(ctx, id)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("title") {
			task.Title = updateTitle
		}
		if cmd.Flags().Changed("project") {
			task.Project = updateProject
		}
		if cmd.Flags().Changed("deadline") {
			deadline, err := parseDate(updateDeadline)
			if err != nil {
				return fmt.Errorf("invalid deadline: %w", err)
			}
			task.Deadline = &deadline
		}
		if cmd.Flags().Changed("estimate") {
			d, err := time.ParseDuration(updateEstimate)
			if err != nil {
				return fmt.Errorf("invalid estimate: %w", err)
			}
			minutes := int(d.Minutes())
			task.EstimateMinutes = &minutes
		}
		if err := db.Tasks.Update(ctx, task); err != nil {
			return err
		}
		cli.Success.Printf("updated task #%d\n", task.ID)
		return nil
	},
}

func init() {
	taskUpdateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	taskUpdateCmd.Flags().StringVar(&updateProject, "project", "", "new project")
	taskUpdateCmd.Flags().StringVar(&updateDeadline, "deadline", "", "new deadline, YYYY-MM-DD or RFC3339")
	taskUpdateCmd.Flags().StringVar(&updateEstimate, "estimate", "", "new estimated duration")
	taskUpdateCmd.Flags().StringVar(&updateDeps, "deps", "", "comma-separated dependency task ids, replaces the existing list")
}

var completeAt string

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a task complete, rescheduling it if it recurs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id: %w", err)
		}
		var at *time.Time
		if completeAt != "" {
			t, err := parseDate(completeAt)
			if err != nil {
				return fmt.Errorf("invalid --at: %w", err)
			}
			at = &t
		}
		if err := orch.Complete(cmd.Context(), id, at); err != nil {
			return err
		}
		cli.Success.Printf("completed task #%d\n", id)
		return nil
	},
}

func init() {
	taskCompleteCmd.Flags().StringVar(&completeAt, "at", "", "completion instant, RFC3339, defaults to now")
}

var deleteForce bool

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id: %w", err)
		}
		if err := orch.DeleteTask(cmd.Context(), id, deleteForce); err != nil {
			if kind, ok := domain.KindOf(err); ok && kind == domain.KindHasDependents {
				cli.Warning.Println(err.Error())
				cli.Dim.Println("pass --force to delete anyway and unblock its dependents")
				return err
			}
			return err
		}
		cli.Success.Printf("deleted task #%d\n", id)
		return nil
	},
}

func init() {
	taskDeleteCmd.Flags().BoolVar(&deleteForce, "force", false, "delete even if other tasks depend on this one")
}

var taskReopenCmd = &cobra.Command{
	Use:   "reopen <id>",
	Short: "Reopen a completed or blocked task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id: %w", err)
		}
		if err := orch.Reopen(cmd.Context(), id); err != nil {
			return err
		}
		cli.Success.Printf("reopened task #%d\n", id)
		return nil
	},
}

var taskSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over task title, project, and tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ids, err := db.Search.Search(ctx, args[0])
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(ids))
		for _, id := range ids {
			task, err := db.Tasks.Get(ctx, id)
			if err != nil {
				continue
			}
			rows = append(rows, []string{strconv.FormatInt(task.ID, 10), task.Title, string(task.Status)})
		}
		cli.Table([]string{"ID", "Title", "Status"}, rows)
		return nil
	},
}

func statusLookupFromAll(all []*domain.Task) curve.DependencyStatus {
	byID := make(map[int64]domain.Status, len(all))
	for _, t := range all {
		byID[t.ID] = t.Status
	}
	return func(id int64) domain.Status { return byID[id] }
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func parseIDList(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
