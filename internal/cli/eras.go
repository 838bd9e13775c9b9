package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tutu-network/focusera/internal/app/progression"
	"github.com/tutu-network/focusera/internal/domain"
)

func init() {
	rootCmd.AddCommand(erasCmd)
}

var erasCmd = &cobra.Command{
	Use:   "eras",
	Short: "Print the era catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		c := d.Catalog
		fmt.Printf("%d levels per era, %s per level\n\n",
			c.Table.LevelsPerEra, progression.FormatDuration(c.Table.SecondsPerLevel, true))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ERA\tSTARTS\tENDS\tLAYOUT\tASSETS")
		scenes := make(map[domain.Era]domain.EraScene)
		for _, s := range c.Scenes() {
			scenes[s.Era] = s
		}
		for _, b := range progression.Bounds(c.Table) {
			s := scenes[b.Era]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", b.Name,
				progression.FormatDuration(b.Start, true), progression.FormatDuration(b.End, true),
				s.Layout, assetSummary(s.Policy))
		}
		return w.Flush()
	},
}

func assetSummary(p domain.UnlockPolicy) string {
	switch p := p.(type) {
	case domain.PerAssetThreshold:
		return fmt.Sprintf("%d, unlocked one by one", len(p.Assets))
	case domain.LevelKeyed:
		return fmt.Sprintf("%d, %d variants each", len(p.Assets), p.Variants)
	}
	return "-"
}
