package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/loopmode/internal/contract"
	"github.com/alexanderramin/loopmode/internal/domain"
)

// FormatStatus renders the current running mode.
func FormatStatus(v contract.StatusView, now time.Time) string {
	var b strings.Builder
	b.WriteString(Header("Running mode"))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  %s\n", ModeIndicator(v.Mode))
	fmt.Fprintf(&b, "  %s %s\n", Dim("since    "), TimestampFrom(v.StartedAt, now))
	if v.ExpiresAt != nil {
		fmt.Fprintf(&b, "  %s %s %s\n", Dim("reverts  "),
			StyleYellow.Render("in "+Countdown(v.Remaining)),
			Dim("at "+v.ExpiresAt.Local().Format("15:04")))
	}
	if v.Action != "" {
		fmt.Fprintf(&b, "  %s %s %s\n", Dim("set by   "), string(v.Action), Dim("("+string(v.Source)+")"))
	}

	if len(v.Reasons) > 0 {
		b.WriteString("\n")
		for _, r := range v.Reasons {
			fmt.Fprintf(&b, "  %s %s\n", StyleRed.Render("!"), r)
		}
	}

	b.WriteString("\n")
	next := make([]string, 0, len(v.Allowed)+1)
	for _, m := range v.Allowed {
		next = append(next, ModeStyle(m).Render(m.Label()))
	}
	if v.CanResume {
		next = append(next, StyleGreen.Render("Resume"))
	}
	if len(next) == 0 {
		next = append(next, Dim("none"))
	}
	fmt.Fprintf(&b, "  %s %s\n", Dim("next     "), strings.Join(next, Dim(" · ")))
	return b.String()
}

// FormatMenu renders the mode menu with one-based option numbers.
func FormatMenu(menu contract.ModeMenu) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", ModeIndicator(menu.Current.Mode))
	if menu.Current.Reasons != "" {
		for _, r := range strings.Split(menu.Current.Reasons, "\n") {
			fmt.Fprintf(&b, "%s %s\n", StyleRed.Render("!"), Dim(r))
		}
	}

	n := 1
	for _, s := range menu.Sections {
		b.WriteString("\n")
		b.WriteString(Header(s.Title))
		b.WriteString("\n")
		for _, o := range s.Options {
			fmt.Fprintf(&b, "  %s %s\n", StyleBlue.Render(fmt.Sprintf("%2d", n)), o.Label)
			n++
		}
	}
	if n == 1 {
		b.WriteString("\n" + Dim("No mode changes are available.") + "\n")
	}
	return b.String()
}

// FormatTransition renders the outcome of a successful mode change.
func FormatTransition(rec domain.RunningModeRecord, now time.Time) string {
	line := fmt.Sprintf("%s %s", StyleGreen.Render("✔"), ModeIndicator(rec.Mode))
	if rec.ExpiresAt != nil {
		line += Dim(fmt.Sprintf(" until %s (%s)", rec.ExpiresAt.Local().Format("15:04"), Countdown(rec.Remaining(now))))
	}
	return line + "\n"
}

// FormatHistory renders audit entries, newest first.
func FormatHistory(entries []*domain.AuditEntry, now time.Time) string {
	if len(entries) == 0 {
		return Dim("No mode changes recorded yet.") + "\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		duration := ""
		if e.DurationMinutes > 0 {
			duration = contract.FormatMinutes(e.DurationMinutes)
		}
		rows = append(rows, []string{
			TimestampFrom(e.Timestamp, now),
			string(e.Action),
			e.PreviousMode.Label() + " → " + ModeStyle(e.Mode).Render(e.Mode.Label()),
			duration,
			Dim(string(e.Source)),
		})
	}
	return RenderTable([]string{"WHEN", "ACTION", "CHANGE", "DURATION", "SOURCE"}, rows)
}

// FormatFlags renders the onboarding flags that have been set.
func FormatFlags(flags []domain.FeatureFlagState) string {
	if len(flags) == 0 {
		return Dim("No objectives completed yet.") + "\n"
	}
	rows := make([][]string, 0, len(flags))
	for _, f := range flags {
		rows = append(rows, []string{string(f.Flag), f.SetAt.Local().Format("2006-01-02 15:04")})
	}
	return RenderTable([]string{"FLAG", "SET AT"}, rows)
}

// FormatProfiles renders profiles, marking the active one.
func FormatProfiles(profiles []*domain.Profile) string {
	if len(profiles) == 0 {
		return Dim("No profiles. Create one with: loopmode profile add <name> --activate") + "\n"
	}
	rows := make([][]string, 0, len(profiles))
	for i, p := range profiles {
		active := ""
		if p.Active {
			active = StyleGreen.Render("active")
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), p.Name, active, Dim(TruncID(p.ID))})
	}
	return RenderTable([]string{"#", "NAME", "STATUS", "ID"}, rows)
}
