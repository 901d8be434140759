package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/loopmode/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage treatment profiles",
	}
	cmd.AddCommand(
		newProfileAddCmd(app),
		newProfileUseCmd(app),
		newProfileListCmd(app),
	)
	return cmd
}

func newProfileAddCmd(app *App) *cobra.Command {
	var activate bool
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Profiles.Add(context.Background(), args[0], activate)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("Created profile %s", formatter.Bold(p.Name))
			if p.Active {
				msg += " " + formatter.StyleGreen.Render("(active)")
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().BoolVar(&activate, "activate", false, "Make the new profile the active one")
	return cmd
}

func newProfileUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Activate a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Profiles.Use(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active profile: %s\n", formatter.Bold(p.Name))
			return nil
		},
	}
}

func newProfileListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := app.Profiles.List(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProfiles(profiles))
			return nil
		},
	}
}
