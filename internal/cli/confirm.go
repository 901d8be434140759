package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/loopmode/internal/cli/formatter"
	"github.com/alexanderramin/loopmode/internal/contract"
	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var errConfirmationRequired = errors.New("mode changes need confirmation: run in a terminal or pass --yes")

// loopHuhTheme returns the huh theme used for prompts.
func loopHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	return t
}

// confirmForm is the OK/Cancel dialog shown before a mode change.
func confirmForm(title, description string, value *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("OK").
				Negative("Cancel").
				Value(value),
		),
	).WithTheme(loopHuhTheme()).WithShowHelp(false)
}

func huhConfirm(title, description string) (bool, error) {
	ok := true
	if err := confirmForm(title, description, &ok).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (a *App) confirm(title, description string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if a.IsInteractive == nil || !a.IsInteractive() {
		return false, errConfirmationRequired
	}
	if a.Confirm != nil {
		return a.Confirm(title, description)
	}
	return huhConfirm(title, description)
}

// describeCommand is the confirmation question for cmd.
func describeCommand(cmd domain.Command) string {
	switch {
	case cmd.Action == domain.ActionReconnect:
		return "Reconnect the pump?"
	case cmd.IsResume():
		return "Resume the loop?"
	case cmd.Mode == domain.ModeDisabledLoop:
		return "Disable the loop?"
	case cmd.Mode.TimeBounded():
		return fmt.Sprintf("Switch to %s for %s?", cmd.Mode.Label(), contract.FormatMinutes(cmd.DurationMinutes))
	default:
		return fmt.Sprintf("Switch to %s?", cmd.Mode.Label())
	}
}

// submit confirms and requests a transition, printing the new record.
func submit(c *cobra.Command, app *App, cmd domain.Command, yes bool) error {
	current := app.Loop.RunningModeRecord(context.Background())
	ok, err := app.confirm(describeCommand(cmd), "Currently: "+current.Mode.Label(), yes)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.OutOrStdout(), formatter.Dim("Cancelled."))
		return nil
	}

	rec, err := app.Loop.RequestTransition(context.Background(), cmd, domain.SourceCLI)
	if err != nil {
		return err
	}
	fmt.Fprint(c.OutOrStdout(), formatter.FormatTransition(rec, app.now()))
	return nil
}
