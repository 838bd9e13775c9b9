package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tutu-network/focusera/internal/domain"
)

func init() {
	rootCmd.AddCommand(badgesCmd)
}

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "List unlocked and locked badges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		board, err := d.Focus.Badges(cmd.Context(), currentUser())
		if err != nil {
			return err
		}

		unlocked := make(map[string]bool, len(board.Unlocked))
		for _, b := range board.Unlocked {
			unlocked[b.ID] = true
		}

		// Catalog order groups badges by category.
		var category domain.BadgeCategory
		for _, b := range d.Catalog.Badges() {
			if b.Category != category {
				category = b.Category
				fmt.Println(headerStyle.Render(string(category)))
			}
			if unlocked[b.ID] {
				fmt.Printf("  %s %-26s %s\n", goldStyle.Render("◆"), b.Name, b.Description)
			} else {
				fmt.Printf("  %s\n", mutedStyle.Render(fmt.Sprintf("◇ %-26s %s", b.Name, b.Description)))
			}
		}
		fmt.Printf("\n%d of %d unlocked\n", len(board.Unlocked), len(board.Unlocked)+len(board.Locked))
		return nil
	},
}
