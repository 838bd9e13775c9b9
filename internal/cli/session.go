package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session <length>",
	Short: "Record a completed focus session",
	Long: `Record a completed focus session for the current user.
The length is seconds or a duration such as 25m or 1h30m.`,
	Example: "  focusera session 25m",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secs, err := parseSessionLength(args[0])
		if err != nil {
			return err
		}

		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.Focus.CompleteSession(cmd.Context(), currentUser(), secs)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s of focus recorded. Total %s, today %s.\n",
			okStyle.Render("✓"), hours(res.Seconds), hours(res.TotalFocusTime), hours(res.TodaySeconds))
		if res.StreakChanged {
			fmt.Printf("  Streak: %d day(s)\n", res.Streak)
		}
		switch {
		case res.EraChanged:
			fmt.Printf("  %s Welcome to the %s Era!\n", goldStyle.Render("★"), res.After.EraName)
		case res.LevelChanged:
			fmt.Printf("  %s %s upgraded to %s\n", goldStyle.Render("▲"), res.After.EraName, res.After.Label)
		}
		for _, id := range res.Delta.Entered {
			fmt.Printf("  + %s appeared in your world\n", id)
		}
		for _, b := range res.NewBadges {
			fmt.Printf("  %s Badge unlocked: %s\n", goldStyle.Render("◆"), b.Name)
		}
		return nil
	},
}
