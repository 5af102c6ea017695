package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"printq/internal/artifacts"
	"printq/internal/config"
	"printq/internal/logging"
	"printq/internal/retention"
	"printq/internal/store"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Run a retention pass now",
		Long: "Run a retention pass now: archive completed requests and purge " +
			"archive entries past the retention horizon. Asks a running daemon " +
			"first and falls back to running the pass in-process.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !local {
				if client := newDaemonClient(cfg); client != nil {
					var result retention.Result
					if err := client.call("POST", "/api/cleanup", &result); err == nil {
						fmt.Fprintf(out, "Cleanup complete: %d archived, %d purged\n", result.Archived, result.Purged)
						return nil
					}
				}
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				files, err := artifacts.NewStore(cfg.Paths.UploadDir)
				if err != nil {
					return err
				}
				engine := retention.NewEngine(cfg, st, files, logging.NewNop())
				result, err := engine.Cleanup(cmd.Context())
				if err != nil {
					return err
				}
				expired, err := engine.ExpireArtifacts(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleanup complete: %d archived, %d purged, %d artifacts expired\n",
					result.Archived, result.Purged, expired)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Run the pass in-process even if a daemon is reachable")
	return cmd
}
