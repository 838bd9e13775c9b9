package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var weekdays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show daily focus statistics and this week's trend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		st, err := d.Focus.Stats(cmd.Context(), currentUser())
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render("Focus statistics"))
		fmt.Printf("  Total focus:   %s\n", hours(st.TotalFocusTime))
		fmt.Printf("  Focus days:    %d\n", st.TotalFocusDays)
		fmt.Printf("  Daily average: %s\n", hours(int64(st.Daily.Average)))
		fmt.Printf("  Longest day:   %s\n", hours(st.Daily.Longest))
		fmt.Printf("  Streak:        %d day(s)\n", st.Streak)

		fmt.Println()
		fmt.Println(headerStyle.Render("This week (minutes)"))
		for i, m := range st.Weekly {
			fmt.Printf("  %s %6.1f\n", weekdays[i], m)
		}
		return nil
	},
}
