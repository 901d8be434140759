package cli

import (
	"fmt"

	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/spf13/cobra"
)

func newSetCmd(app *App) *cobra.Command {
	var duration minutesValue
	var yes bool

	cmd := &cobra.Command{
		Use:   "set <mode>",
		Short: "Change the running mode",
		Long: `Change the running mode.

Modes: closed, lgs, open, disable, suspend, disconnect (or the full mode
name, e.g. CLOSED_LOOP). Suspend and disconnect need --duration and revert
to the default mode when it runs out. Disable is always indefinite.`,
		Example: `  loopmode set closed
  loopmode set suspend --duration 2h
  loopmode set disconnect --duration 30 --yes`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"closed", "lgs", "open", "disable", "suspend", "disconnect"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := domain.ParseMode(args[0])
			if err != nil {
				return err
			}
			minutes := int(duration)
			if mode == domain.ModeDisabledLoop {
				minutes = domain.IndefiniteDuration
			}
			if mode.TimeBounded() && minutes == 0 {
				return fmt.Errorf("%s needs --duration", mode.Label())
			}
			return submit(cmd, app, domain.SetMode(mode, minutes), yes)
		},
	}

	cmd.Flags().Var(&duration, "duration", "How long to stay in the mode (90, 1h30m, indefinite)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newResumeCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Leave a suspend or pump disconnect and return to the default mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, app, domain.Resume(), yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newReconnectCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reconnect",
		Short: "Record that the pump is reconnected and resume the loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, app, domain.Reconnect(), yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
