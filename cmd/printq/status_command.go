package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"printq/internal/config"
	"printq/internal/daemon"
	"printq/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show request counts and daemon state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if client := newDaemonClient(cfg); client != nil {
				var status daemon.Status
				if err := client.call("GET", "/api/status", &status); err == nil {
					fmt.Fprintln(out, "Daemon:  running (pid "+strconv.Itoa(status.PID)+")")
					printSummary(out, status.Requests)
					if status.DroppedEvents > 0 {
						fmt.Fprintf(out, "Dropped notification events: %d\n", status.DroppedEvents)
					}
					return nil
				}
			}

			fmt.Fprintln(out, "Daemon:  not running")
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				printSummary(out, st.Stats())
				return nil
			})
		},
	}
}

func printSummary(out io.Writer, summary store.Summary) {
	rows := [][]string{
		{"Queued", strconv.Itoa(summary.Queued)},
		{"In progress", strconv.Itoa(summary.InProgress)},
		{"Ready for pickup", strconv.Itoa(summary.Done)},
		{"Active total", strconv.Itoa(summary.Active)},
		{"Archived", strconv.Itoa(summary.Archived)},
	}
	fmt.Fprintln(out, renderTable([]string{"Requests", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}
