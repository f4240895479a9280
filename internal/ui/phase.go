package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// PhaseDisplay renders the status lines for multi-step operations like
// launching an instance: request, wait for running, wait for status checks.
type PhaseDisplay struct {
	w io.Writer
}

// NewPhaseDisplay creates a phase display writing to w.
func NewPhaseDisplay(w io.Writer) *PhaseDisplay {
	return &PhaseDisplay{w: w}
}

// RenderProgress renders a phase in progress.
// Shows: ◐ Waiting for instance to run...
func (pd *PhaseDisplay) RenderProgress(name string) {
	style := lipgloss.NewStyle().Foreground(ColorSecondary)
	fmt.Fprintf(pd.w, "\r%s %s...", style.Render(SymbolProgress), name)
}

// RenderSuccess renders a completed phase.
// Shows: ● Instance running (42.3s)
func (pd *PhaseDisplay) RenderSuccess(name string, duration time.Duration) {
	pd.clearLine()

	symbolStyle := lipgloss.NewStyle().Foreground(ColorSuccess)
	timingStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	fmt.Fprintf(pd.w, "%s %s %s\n",
		symbolStyle.Render(SymbolComplete),
		name,
		timingStyle.Render(FormatDuration(duration)),
	)
}

// RenderFailed renders a failed phase.
// Shows: ✗ Status checks failed (61.0s)
func (pd *PhaseDisplay) RenderFailed(name string, duration time.Duration) {
	pd.clearLine()

	symbolStyle := lipgloss.NewStyle().Foreground(ColorError)
	timingStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	fmt.Fprintf(pd.w, "%s %s %s\n",
		symbolStyle.Render(SymbolFail),
		name,
		timingStyle.Render(FormatDuration(duration)),
	)
}

// RenderSkipped renders a skipped phase.
// Shows: ⊘ Status checks (spot request pending)
func (pd *PhaseDisplay) RenderSkipped(name string, reason string) {
	pd.clearLine()

	symbolStyle := lipgloss.NewStyle().Foreground(ColorWarning)
	reasonStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	if reason != "" {
		fmt.Fprintf(pd.w, "%s %s %s\n",
			symbolStyle.Render(SymbolSkipped),
			name,
			reasonStyle.Render("("+reason+")"),
		)
		return
	}
	fmt.Fprintf(pd.w, "%s %s\n", symbolStyle.Render(SymbolSkipped), name)
}

// clearLine clears the current line (for overwriting progress output).
func (pd *PhaseDisplay) clearLine() {
	fmt.Fprint(pd.w, "\r"+strings.Repeat(" ", 80)+"\r")
}

// FormatDuration renders a duration with one decimal of seconds,
// e.g. "(0.3s)" or "(1m 12.5s)".
func FormatDuration(d time.Duration) string {
	if d >= time.Minute {
		m := int(d.Minutes())
		s := d.Seconds() - float64(m)*60
		return fmt.Sprintf("(%dm %.1fs)", m, s)
	}
	return fmt.Sprintf("(%.1fs)", d.Seconds())
}
