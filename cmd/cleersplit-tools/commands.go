package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/cleersplit-backend/internal/groups"
	"github.com/AnshRaj112/cleersplit-backend/internal/profile"
	"github.com/AnshRaj112/cleersplit-backend/internal/theme"
)

var jsonOutput bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cleersplit-tools",
		Short:         "Helpers for CleerSplit profile, group and theme data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")

	root.AddCommand(newFirstNameCmd(), newColorCmd(), newInviteCmd())
	return root
}

func newFirstNameCmd() *cobra.Command {
	var displayName, email string

	cmd := &cobra.Command{
		Use:   "first-name",
		Short: "Resolve the greeting name from a display name and/or email",
		Example: `  cleersplit-tools first-name --display-name "Ruth Okolo"
  cleersplit-tools first-name --email ruth.okolo@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// an unset flag is a missing value, which differs from an empty one
			var id profile.Identity
			if cmd.Flags().Changed("display-name") {
				id.DisplayName = &displayName
			}
			if cmd.Flags().Changed("email") {
				id.Email = &email
			}

			name := id.FirstName()
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"first_name": name})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), name)
			return err
		},
	}
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name reported by the auth provider")
	cmd.Flags().StringVar(&email, "email", "", "email reported by the auth provider")
	return cmd
}

func newColorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "color <hex>...",
		Short: "Parse hex color strings the way the client does",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if jsonOutput {
				results := make([]map[string]any, 0, len(args))
				for _, in := range args {
					c := theme.ParseHex(in)
					results = append(results, map[string]any{"input": in, "hex": c.Hex(), "color": c})
				}
				return writeJSON(out, results)
			}
			for _, in := range args {
				c := theme.ParseHex(in)
				if _, err := fmt.Fprintf(out, "%s\t%s\trgba(%d, %d, %d, %.2f)\n", in, c.Hex(), c.R, c.G, c.B, float64(c.A)/255); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newInviteCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "invite <group name>",
		Short: "Generate an invite link and share message for a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invite, err := groups.NewInvite(baseURL)
			if err != nil {
				return err
			}
			invite.Message = groups.InviteMessage(args[0], invite.URL)

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), struct {
					groups.Invite
					Slug string `json:"slug"`
				}{invite, groups.Slug(args[0])})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), invite.Message)
			return err
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", groups.DefaultInviteBaseURL, "invite link base URL")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
