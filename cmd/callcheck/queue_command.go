package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"callcheck/internal/taskqueue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the task queue",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatsCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks currently in the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := openQueue(ctx)
			if err != nil {
				return err
			}
			defer queue.Close()

			tasks, err := queue.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}

			rows := make([][]string, 0, len(tasks))
			for _, task := range tasks {
				rows = append(rows, []string{
					strconv.FormatInt(task.ID, 10),
					task.Kind,
					task.RequestID,
					strconv.Itoa(task.Attempts),
					task.Created.Format(time.RFC3339),
					leaseLabel(task.LeaseExpires),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Kind", "Request", "Attempts", "Created", "Lease"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts by kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := openQueue(ctx)
			if err != nil {
				return err
			}
			defer queue.Close()

			stats, err := queue.Stats(cmd.Context())
			if err != nil {
				return err
			}

			kinds := make([]string, 0, len(stats))
			for kind := range stats {
				kinds = append(kinds, kind)
			}
			sort.Strings(kinds)

			rows := make([][]string, 0, len(kinds))
			for _, kind := range kinds {
				rows = append(rows, []string{kind, strconv.Itoa(stats[kind])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Kind", "Tasks"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func openQueue(ctx *commandContext) (*taskqueue.Queue, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return taskqueue.Open(cfg)
}

func leaseLabel(expires time.Time) string {
	if expires.IsZero() || expires.Unix() <= 0 {
		return "-"
	}
	return expires.Format(time.RFC3339)
}
