package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"printq/internal/config"
	"printq/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show full details of a request",
		Long:  "Show full details of a request. The id may be a unique prefix of the full identifier.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				id, err := st.ResolveID(args[0])
				if err != nil {
					return err
				}
				req, err := st.Get(id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:        %s\n", req.ID)
				fmt.Fprintf(out, "Submitted: %s\n", formatTime(req.SubmittedAt))
				fmt.Fprintf(out, "Requester: %s\n", req.Requester.DisplayName())
				fmt.Fprintf(out, "Group:     %s\n", req.Group)
				fmt.Fprintf(out, "Purpose:   %s\n", req.Purpose)
				fmt.Fprintf(out, "Payload:   %s\n", req.Payload.Name)
				if req.Payload.Path != "" {
					fmt.Fprintf(out, "File:      %s\n", req.Payload.Path)
				}
				fmt.Fprintf(out, "Status:    %s\n", req.Status.Label())
				if req.Comment != "" {
					fmt.Fprintf(out, "Comment:   %s\n", req.Comment)
				}
				if req.ArchivedAt != nil {
					fmt.Fprintf(out, "Archived:  %s\n", formatTime(*req.ArchivedAt))
				}
				return nil
			})
		},
	}
}
