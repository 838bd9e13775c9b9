package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tutu-network/focusera/internal/app/focus"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show era progress, streak and badges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		dash, err := d.Focus.Dashboard(cmd.Context(), currentUser(), focus.LiveSession{})
		if err != nil {
			return err
		}
		fmt.Println(renderDashboard(dash))
		return nil
	},
}

func renderDashboard(d *focus.Dashboard) string {
	st := d.State

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(st.EraName+" Era"), mutedStyle.Render(st.Label))
	fmt.Fprintf(&b, "%s %s / %s\n", progressBar(d.Fraction), d.CurrentLabel, d.MaxLabel)
	fmt.Fprintf(&b, "\nTotal focus  %s\n", goldStyle.Render(d.TotalLabel))
	fmt.Fprintf(&b, "Streak       %d day(s)\n", d.Streak)
	fmt.Fprintf(&b, "Badges       %d of %d\n", len(d.Unlocked), len(d.Unlocked)+len(d.Locked))
	if d.Stats != nil {
		fmt.Fprintf(&b, "This week    %s\n", sparkline(d.Stats.Weekly))
	}

	if d.Scene != nil {
		names := make([]string, 0, len(d.Scene.Assets))
		for _, a := range d.Scene.Assets {
			names = append(names, a.AssetID)
		}
		scene := mutedStyle.Render("nothing built yet")
		if len(names) > 0 {
			scene = lipgloss.NewStyle().Width(50).Render(strings.Join(names, ", "))
		}
		fmt.Fprintf(&b, "\n%s\n%s", headerStyle.Render("Your world"), scene)
	}
	return paneStyle.Render(b.String())
}
