package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"printq/internal/config"
	"printq/internal/request"
	"printq/internal/store"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		archived   bool
		statusFlag string
		pageFlag   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests page by page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				var requests []*request.Request
				if archived {
					requests = st.ListArchived()
				} else {
					requests = st.ListActive()
				}

				if raw := strings.TrimSpace(statusFlag); raw != "" {
					status, ok := request.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %s", strconv.Quote(raw))
					}
					filtered := requests[:0]
					for _, req := range requests {
						if req.Status == status {
							filtered = append(filtered, req)
						}
					}
					requests = filtered
				}

				if len(requests) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No requests")
					return nil
				}

				page := store.PageOf(requests, cfg.Store.PageSize, pageFlag-1)
				if len(page.Requests) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No requests on page %d (%d pages)\n",
						pageFlag, store.PageCount(page.Total, page.Size))
					return nil
				}
				rows := make([][]string, 0, len(page.Requests))
				for _, req := range page.Requests {
					rows = append(rows, requestRow(req))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(requestHeaders, rows, nil))
				fmt.Fprintf(out, "Page %d of %d (%d requests)\n",
					page.Index+1, store.PageCount(page.Total, page.Size), page.Total)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&archived, "archive", "a", false, "List archived requests instead of active ones")
	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Filter by status (queued, in_progress, done)")
	cmd.Flags().IntVarP(&pageFlag, "page", "p", 1, "Page number to display")

	return cmd
}
