package contract

import (
	"fmt"

	"github.com/alexanderramin/loopmode/internal/domain"
	"github.com/alexanderramin/loopmode/internal/transition"
)

// MenuOption is one selectable entry of the mode menu. Selecting it means
// submitting Command.
type MenuOption struct {
	Label   string
	Command domain.Command
}

// MenuSection groups related options under a heading.
type MenuSection struct {
	Title   string
	Options []MenuOption
}

// ModeMenu is everything a presenter needs to offer mode changes: the current
// record and the sections derived from the allowed set.
type ModeMenu struct {
	Current  domain.RunningModeRecord
	Sections []MenuSection
}

const (
	SectionLoop    = "Loop"
	SectionSuspend = "Suspend"
	SectionPump    = "Pump"
)

// BuildModeMenu turns the allowed set into menu sections. Sections without
// options are omitted.
func BuildModeMenu(current domain.RunningModeRecord, allowed transition.Allowed, caps domain.PumpCapabilities) ModeMenu {
	menu := ModeMenu{Current: current}

	var loop []MenuOption
	for _, m := range allowed.Modes {
		if m.TimeBounded() {
			continue
		}
		minutes := 0
		if m == domain.ModeDisabledLoop {
			minutes = domain.IndefiniteDuration
		}
		loop = append(loop, MenuOption{Label: loopLabel(m), Command: domain.SetMode(m, minutes)})
	}
	menu.add(SectionLoop, loop)

	var suspend []MenuOption
	if allowed.Resume && current.Mode == domain.ModeSuspendedByUser {
		suspend = append(suspend, MenuOption{Label: "Resume", Command: domain.Resume()})
	}
	if allowed.Contains(domain.ModeSuspendedByUser) {
		for _, d := range transition.DurationOptions(domain.ModeSuspendedByUser, caps) {
			suspend = append(suspend, MenuOption{
				Label:   fmt.Sprintf("Suspend for %s", FormatMinutes(d)),
				Command: domain.SetMode(domain.ModeSuspendedByUser, d),
			})
		}
	}
	menu.add(SectionSuspend, suspend)

	var pump []MenuOption
	if allowed.Resume && current.Mode == domain.ModeDisconnectedPump {
		pump = append(pump, MenuOption{Label: "Reconnect pump", Command: domain.Reconnect()})
	}
	if allowed.Contains(domain.ModeDisconnectedPump) {
		for _, d := range transition.DurationOptions(domain.ModeDisconnectedPump, caps) {
			pump = append(pump, MenuOption{
				Label:   fmt.Sprintf("Disconnect pump for %s", FormatMinutes(d)),
				Command: domain.SetMode(domain.ModeDisconnectedPump, d),
			})
		}
	}
	menu.add(SectionPump, pump)

	return menu
}

func loopLabel(m domain.Mode) string {
	if m == domain.ModeDisabledLoop {
		return "Disable loop"
	}
	return m.Label()
}

func (m *ModeMenu) add(title string, opts []MenuOption) {
	if len(opts) == 0 {
		return
	}
	m.Sections = append(m.Sections, MenuSection{Title: title, Options: opts})
}

// Options flattens the sections in display order.
func (m ModeMenu) Options() []MenuOption {
	var out []MenuOption
	for _, s := range m.Sections {
		out = append(out, s.Options...)
	}
	return out
}

// Option returns the n-th option, counting from 1 as the menu is displayed.
func (m ModeMenu) Option(n int) (MenuOption, bool) {
	opts := m.Options()
	if n < 1 || n > len(opts) {
		return MenuOption{}, false
	}
	return opts[n-1], true
}

// FormatMinutes renders a duration in minutes as "45m", "2h" or "1h 30m".
func FormatMinutes(minutes int) string {
	if minutes == domain.IndefiniteDuration {
		return "indefinitely"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
