package main

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

type statusView struct {
	Running   bool           `json:"running"`
	Processed int            `json:"processed"`
	Failed    int            `json:"failed"`
	LastError string         `json:"last_error"`
	Queue     map[string]int `json:"queue"`
	Records   map[string]int `json:"records"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon health and workload counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var view statusView
			status, err := ctx.getJSON("/api/status", &view)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("daemon returned status %d", status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workflow:  %s\n", statusLine(view.Running))
			fmt.Fprintf(out, "Processed: %d\n", view.Processed)
			fmt.Fprintf(out, "Failed:    %d\n", view.Failed)
			if view.LastError != "" {
				fmt.Fprintf(out, "Last error: %s\n", view.LastError)
			}

			if rows := countRows(view.Queue); len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Queued Kind", "Tasks"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
			}
			if rows := countRows(view.Records); len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Record Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
			}
			return nil
		},
	}
}

func statusLine(running bool) string {
	label := "stopped"
	if running {
		label = "running"
	}
	if !stdoutIsTerminal() {
		return label
	}
	if running {
		return "\x1b[32m" + label + "\x1b[0m"
	}
	return "\x1b[31m" + label + "\x1b[0m"
}

func countRows(counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, strconv.Itoa(counts[key])})
	}
	return rows
}
