package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"printq/internal/config"
	"printq/internal/export"
	"printq/internal/store"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a CSV snapshot of all requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				snapshot := append(st.ListActive(), st.ListArchived()...)

				path := outPath
				if path == "" {
					written, err := export.WriteBackup(cfg.Paths.ExportDir, snapshot, time.Now().UTC())
					if err != nil {
						return err
					}
					path = written
				} else if err := export.WriteCSV(path, snapshot); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d requests to %s\n", len(snapshot), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination file (defaults to a timestamped file in the export directory)")
	return cmd
}
