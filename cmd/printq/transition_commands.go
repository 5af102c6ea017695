package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"printq/internal/config"
	"printq/internal/request"
	"printq/internal/store"
)

func newAcceptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <id>",
		Short: "Move a queued request into progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transition(ctx, cmd, args[0], request.StatusInProgress)
		},
	}
}

func newDoneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark an in-progress request ready for pickup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transition(ctx, cmd, args[0], request.StatusDone)
		},
	}
}

func transition(ctx *commandContext, cmd *cobra.Command, idArg string, target request.Status) error {
	return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
		id, err := st.ResolveID(idArg)
		if err != nil {
			return err
		}
		req, err := st.Transition(id, target)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Request %s is now %s\n", req.ShortID(), req.Status.Label())
		return nil
	})
}

func newCommentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Attach a comment to a request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				id, err := st.ResolveID(args[0])
				if err != nil {
					return err
				}
				req, err := st.AddComment(id, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Comment saved on %s\n", req.ShortID())
				return nil
			})
		},
	}
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Move a completed request into the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				id, err := st.ResolveID(args[0])
				if err != nil {
					return err
				}
				req, err := st.Archive(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Request %s archived\n", req.ShortID())
				return nil
			})
		},
	}
}
