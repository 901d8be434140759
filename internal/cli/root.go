package cli

import (
	"time"

	"github.com/alexanderramin/loopmode/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// App holds the services and terminal hooks used by CLI commands.
type App struct {
	Loop     service.LoopService
	Profiles service.ProfileService
	History  service.HistoryService

	// Metrics is served by "watch --metrics-addr" when set.
	Metrics prometheus.Gatherer

	// IsInteractive reports whether stdin is a terminal. Mode changes are only
	// confirmed interactively; otherwise --yes is required.
	IsInteractive func() bool

	// Confirm asks the operator to approve a mode change. Defaults to a huh
	// confirm prompt.
	Confirm func(title, description string) (bool, error)

	// RunProgram runs the watch view. Defaults to a full-screen tea.Program.
	RunProgram func(m tea.Model) error

	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "loopmode" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "loopmode",
		Short:         "Inspect and change the running mode of the dosing loop",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newStatusCmd(app),
		newMenuCmd(app),
		newSetCmd(app),
		newResumeCmd(app),
		newReconnectCmd(app),
		newHistoryCmd(app),
		newFlagsCmd(app),
		newProfileCmd(app),
		newWatchCmd(app),
	)

	return root
}
