package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tutu-network/focusera/internal/app/progression"
	"github.com/tutu-network/focusera/internal/daemon"
)

// currentUser resolves the acting user id.
func currentUser() string {
	if userFlag != "" {
		return userFlag
	}
	if env := os.Getenv("FOCUSERA_USER"); env != "" {
		return env
	}
	return "local"
}

// openDaemon loads config and wires the services without serving HTTP.
func openDaemon() (*daemon.Daemon, error) {
	return daemon.New()
}

// parseSessionLength accepts a Go duration ("25m", "1h30m") or plain seconds.
func parseSessionLength(s string) (int64, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return secs, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("session length %q: use seconds or a duration like 25m", s)
	}
	return int64(d / time.Second), nil
}

// ─── Styles ─────────────────────────────────────────────────────────────────

var (
	colorGold   = lipgloss.Color("#f9e2af")
	colorSky    = lipgloss.Color("#89dceb")
	colorGreen  = lipgloss.Color("#a6e3a1")
	colorMuted  = lipgloss.Color("#7f849c")
	colorBorder = lipgloss.Color("#45475a")

	titleStyle  = lipgloss.NewStyle().Foreground(colorSky).Bold(true)
	goldStyle   = lipgloss.NewStyle().Foreground(colorGold).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	paneStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

const barWidth = 30 // Characters for the progress bar

// progressBar renders a fraction in [0, 1] as a fixed-width bar.
func progressBar(fraction float64) string {
	fraction = max(0, min(fraction, 1))
	filled := int(fraction * barWidth)
	return okStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

// sparkline renders the weekly trend as one block per day.
func sparkline(minutes [7]float64) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	peak := 0.0
	for _, m := range minutes {
		peak = max(peak, m)
	}
	var b strings.Builder
	for _, m := range minutes {
		if peak == 0 || m == 0 {
			b.WriteRune(' ')
			continue
		}
		idx := int(m / peak * float64(len(blocks)-1))
		b.WriteRune(blocks[idx])
	}
	return b.String()
}

// hours renders seconds for tables.
func hours(seconds int64) string {
	return progression.FormatDuration(seconds, false)
}
