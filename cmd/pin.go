package cmd

import (
	"github.com/spf13/cobra"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Pin an item always-hidden without dragging it",
	Long: `Record an item as always-hidden in the settings. The pin takes effect on
the next relayout instead of dragging the item immediately; use 'move --to
floating' to relocate it right away.

Examples:
  tidybar pin --item com.example.agent
  tidybar pin --item wifi --bar
  tidybar pin --item wifi --unpin`,
	RunE: runPin,
}

func init() {
	rootCmd.AddCommand(pinCmd)
	pinCmd.Flags().String("item", "", "Item id from a prior scan")
	pinCmd.Flags().Bool("bar", false, "Also show the pinned item on the floating bar")
	pinCmd.Flags().Bool("unpin", false, "Remove the pin instead")
	pinCmd.MarkFlagRequired("item")
}

func runPin(cmd *cobra.Command, args []string) error {
	item, _ := cmd.Flags().GetString("item")
	bar, _ := cmd.Flags().GetBool("bar")
	unpin, _ := cmd.Flags().GetBool("unpin")

	mgr, err := newManager()
	if err != nil {
		return err
	}
	mgr.Start()
	defer mgr.Stop()

	if unpin {
		return mgr.Unpin(cmd.Context(), item)
	}
	return mgr.Pin(cmd.Context(), item, bar)
}
