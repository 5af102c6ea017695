package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"printq/internal/artifacts"
	"printq/internal/config"
	"printq/internal/request"
	"printq/internal/store"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		userID    string
		username  string
		firstName string
		lastName  string
		group     string
		purpose   string
		name      string
	)

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Submit a new print request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if err := checkLabel("group", group, cfg.Labels.Groups); err != nil {
					return err
				}
				if err := checkLabel("purpose", purpose, cfg.Labels.Purposes); err != nil {
					return err
				}

				files, err := artifacts.NewStore(cfg.Paths.UploadDir)
				if err != nil {
					return err
				}
				stored, err := files.Import(args[0])
				if err != nil {
					return fmt.Errorf("store artifact: %w", err)
				}

				displayName := strings.TrimSpace(name)
				if displayName == "" {
					displayName = args[0]
				}
				req, err := st.Create(request.Requester{
					UserID:    userID,
					Username:  username,
					FirstName: firstName,
					LastName:  lastName,
				}, group, purpose, request.Payload{
					Name: displayName,
					Path: stored,
				})
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Created request %s (%s)\n", req.ShortID(), req.Status.Label())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Requester notification identity")
	cmd.Flags().StringVar(&username, "username", "", "Requester username")
	cmd.Flags().StringVar(&firstName, "first-name", "", "Requester first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Requester last name")
	cmd.Flags().StringVarP(&group, "group", "g", "", "Requesting group")
	cmd.Flags().StringVarP(&purpose, "purpose", "p", "", "Purpose of the request")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name for the payload (defaults to the file name)")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("purpose")

	return cmd
}

func checkLabel(kind, value string, allowed []string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s is required", kind)
	}
	if len(allowed) == 0 || slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("unknown %s %q (configured: %s)", kind, value, strings.Join(allowed, ", "))
}
