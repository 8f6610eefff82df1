package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskcurve/taskcurve/internal/cli"
	"github.com/taskcurve/taskcurve/internal/domain"
)

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Create, list, and delete buckets",
}

var bucketType string

var bucketCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b := &domain.Bucket{Name: args[0], Type: domain.BucketType(bucketType)}
		if b.Type == "" {
			b.Type = domain.BucketCategory
		}
		id, err := db.Buckets.Create(cmd.Context(), b)
		if err != nil {
			return err
		}
		cli.Success.Printf("created bucket #%d: %s (%s)\n", id, b.Name, b.Type)
		return nil
	},
}

func init() {
	bucketCreateCmd.Flags().StringVar(&bucketType, "type", "", "bucket type: project|category|context")
	bucketCmd.AddCommand(bucketCreateCmd, bucketListCmd, bucketShowCmd, bucketDeleteCmd)
}

var bucketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List buckets",
	RunE: func(cmd *cobra.Command, args []string) error {
		buckets, err := db.Buckets.List(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, []string{strconv.FormatInt(b.ID, 10), b.Name, string(b.Type)})
		}
		cli.Table([]string{"ID", "Name", "Type"}, rows)
		return nil
	},
}

var bucketShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a bucket and its tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := db.Buckets.GetByName(ctx, args[0])
		if err != nil {
			return err
		}
		cli.Header.Printf("bucket #%d: %s (%s)\n", b.ID, b.Name, b.Type)

		tasks, err := db.Tasks.List(ctx, domain.ListFilter{BucketID: &b.ID})
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(tasks))
		for _, t := range tasks {
			rows = append(rows, []string{strconv.FormatInt(t.ID, 10), t.Title, string(t.Status)})
		}
		cli.Table([]string{"ID", "Title", "Status"}, rows)
		return nil
	},
}

var bucketDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a bucket, clearing it from any tasks that reference it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := db.Buckets.GetByName(ctx, args[0])
		if err != nil {
			return err
		}
		if err := db.Buckets.ClearBucketID(ctx, b.ID); err != nil {
			return fmt.Errorf("clear bucket references: %w", err)
		}
		if err := db.Buckets.Delete(ctx, b.ID); err != nil {
			return err
		}
		cli.Success.Printf("deleted bucket %q\n", b.Name)
		return nil
	},
}
