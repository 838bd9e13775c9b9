package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tutu-network/focusera/internal/app/focus"
)

func init() {
	userCreateCmd.Flags().StringVar(&userPhoto, "photo", "", "Avatar (griffin, robot or sphinx)")
	userCmd.AddCommand(userCreateCmd, userShowCmd)
	rootCmd.AddCommand(userCmd)
}

var userPhoto string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage focusera profiles",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a profile for the current user id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.Focus.CreateProfile(cmd.Context(), currentUser(), args[0], userPhoto)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (id %s, avatar %s)\n",
			goldStyle.Render(p.Username), p.UserID, focus.ProfileImageName(p.PhotoURL))
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current user's profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.Focus.Profile(cmd.Context(), currentUser())
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", titleStyle.Render(p.Username), mutedStyle.Render(p.UserID))
		fmt.Printf("  Avatar:     %s\n", focus.ProfileImageName(p.PhotoURL))
		fmt.Printf("  Focus time: %s\n", hours(p.TotalFocusTime))
		fmt.Printf("  Streak:     %d day(s), last on %s\n", p.Streak, orDash(p.LastStudyDate))
		fmt.Printf("  Friends:    %d (%d pending request(s))\n", len(p.Friends), len(p.FriendRequests))
		fmt.Printf("  Badges:     %d\n", len(p.UnlockedBadges))
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
