package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/loopmode/internal/cli/formatter"
	"github.com/alexanderramin/loopmode/internal/contract"
	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/alexanderramin/loopmode/internal/service"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const watchTickInterval = time.Second

type watchKeyMap struct {
	Resume  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newWatchKeyMap() watchKeyMap {
	return watchKeyMap{
		Resume:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
		Refresh: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "refresh")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Resume, k.Help, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Resume, k.Refresh},
		{k.Help, k.Quit},
	}
}

type modeChangedMsg domain.ModeChange

type subscriptionClosedMsg struct{}

type tickMsg time.Time

// watchModel shows the running mode live. It redraws on every published
// ModeChange and once a second for the countdown.
type watchModel struct {
	loop   service.LoopService
	events <-chan domain.ModeChange
	now    func() time.Time

	keys watchKeyMap
	help help.Model

	status contract.StatusView
	last   *domain.ModeChange
	err    error
	closed bool
}

func newWatchModel(loop service.LoopService, events <-chan domain.ModeChange, now func() time.Time) watchModel {
	m := watchModel{
		loop:   loop,
		events: events,
		now:    now,
		keys:   newWatchKeyMap(),
		help:   help.New(),
	}
	m.refresh()
	return m
}

func (m *watchModel) refresh() {
	ctx := context.Background()
	m.status = contract.NewStatusView(m.loop.RunningModeRecord(ctx), m.loop.AllowedNextModes(ctx), m.now())
}

func waitForChange(events <-chan domain.ModeChange) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return subscriptionClosedMsg{}
		}
		return modeChangedMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(watchTickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.events), tick())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Refresh):
			m.err = nil
			m.refresh()
		case key.Matches(msg, m.keys.Resume):
			_, m.err = m.loop.RequestTransition(context.Background(), domain.Resume(), domain.SourceLoopDialog)
			m.refresh()
		}
		return m, nil

	case modeChangedMsg:
		ev := domain.ModeChange(msg)
		m.last = &ev
		m.refresh()
		return m, waitForChange(m.events)

	case subscriptionClosedMsg:
		m.closed = true
		return m, tea.Quit

	case tickMsg:
		m.refresh()
		return m, tick()
	}
	return m, nil
}

func (m watchModel) View() string {
	now := m.now()
	var b strings.Builder
	b.WriteString(formatter.FormatStatus(m.status, now))

	if m.last != nil {
		fmt.Fprintf(&b, "\n%s %s → %s (%s, %s)\n",
			formatter.Dim("Last change:"),
			m.last.Previous.Mode.Label(),
			formatter.ModeStyle(m.last.Current.Mode).Render(m.last.Current.Mode.Label()),
			m.last.Action,
			m.last.Source,
		)
	}
	if m.err != nil {
		b.WriteString("\n" + formatter.StyleRed.Render(m.err.Error()) + "\n")
	}
	if m.closed {
		b.WriteString("\n" + formatter.Dim("Controller stopped.") + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}
