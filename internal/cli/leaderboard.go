package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(leaderboardCmd)
}

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"board"},
	Short:   "Rank yourself among your friends",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		me := currentUser()
		lb, err := d.Focus.Leaderboard(cmd.Context(), me)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tNAME\tFOCUS")
		for _, e := range lb.Entries {
			name := e.DisplayName
			if e.UserID == me {
				name += " (you)"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", e.Rank, name, hours(e.TotalFocusTime))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(goldStyle.Render(lb.Standing.Message))
		if lb.Standing.Entries > 1 {
			fmt.Printf("You outperform %d%% of your friends.\n", lb.Standing.OutperformPercent)
		}
		return nil
	},
}
