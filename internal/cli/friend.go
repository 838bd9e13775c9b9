package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	friendCmd.AddCommand(friendAddCmd, friendAcceptCmd, friendDeclineCmd, friendRemoveCmd, friendRequestsCmd)
	rootCmd.AddCommand(friendCmd)
}

var friendCmd = &cobra.Command{
	Use:   "friend",
	Short: "Manage friends for the leaderboard",
}

var friendAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Send a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.Focus.SendFriendRequest(cmd.Context(), currentUser(), args[0])
		if err != nil {
			return err
		}
		if res.Accepted {
			fmt.Printf("%s had already asked you. You are now friends.\n", args[0])
			return nil
		}
		fmt.Printf("Friend request sent to %s.\n", args[0])
		return nil
	},
}

var friendAcceptCmd = &cobra.Command{
	Use:   "accept <user-id>",
	Short: "Accept a pending friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Focus.AcceptFriend(cmd.Context(), currentUser(), args[0]); err != nil {
			return err
		}
		fmt.Printf("You and %s are now friends.\n", args[0])
		return nil
	},
}

var friendDeclineCmd = &cobra.Command{
	Use:   "decline <user-id>",
	Short: "Decline a pending friend request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Focus.DeclineFriend(cmd.Context(), currentUser(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Declined the request from %s.\n", args[0])
		return nil
	},
}

var friendRemoveCmd = &cobra.Command{
	Use:     "remove <user-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a friend",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Focus.RemoveFriend(cmd.Context(), currentUser(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s from your friends.\n", args[0])
		return nil
	},
}

var friendRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List pending friend requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		reqs, err := d.Focus.FriendRequests(cmd.Context(), currentUser())
		if err != nil {
			return err
		}
		if len(reqs) == 0 {
			fmt.Println("No pending friend requests.")
			return nil
		}
		for _, r := range reqs {
			fmt.Printf("  %s  %s\n", r.DisplayName, mutedStyle.Render(r.UserID))
		}
		return nil
	},
}
