package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/loopmode/internal/cli/formatter"
	"github.com/alexanderramin/loopmode/internal/contract"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current running mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rec := app.Loop.RunningModeRecord(ctx)
			view := contract.NewStatusView(rec, app.Loop.AllowedNextModes(ctx), app.now())
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStatus(view, app.now()))
			return nil
		},
	}
}

func newMenuCmd(app *App) *cobra.Command {
	var selected int
	var yes bool

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List the mode changes available right now",
		Long: `List the mode changes available right now, numbered.
Pass --select N to apply option N.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			menu := app.Loop.Menu(context.Background())
			if selected == 0 {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMenu(menu))
				return nil
			}
			opt, ok := menu.Option(selected)
			if !ok {
				return fmt.Errorf("no menu option %d (have %d)", selected, len(menu.Options()))
			}
			return submit(cmd, app, opt.Command, yes)
		},
	}

	cmd.Flags().IntVarP(&selected, "select", "s", 0, "Apply the numbered option")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
