package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Open a status item's menu, revealing it first if hidden",
	Long: `Reveal the hidden section if the item is tucked away, forward an activation
to the item, and hold the bar open until its menu closes. The hidden section
collapses again shortly after dismissal.

Examples:
  tidybar activate --item com.example.agent
  tidybar activate --item "Sync#2"`,
	RunE: runActivate,
}

func init() {
	rootCmd.AddCommand(activateCmd)
	activateCmd.Flags().String("item", "", "Item id from a prior scan")
	activateCmd.MarkFlagRequired("item")
}

func runActivate(cmd *cobra.Command, args []string) error {
	item, _ := cmd.Flags().GetString("item")

	mgr, err := newManager()
	if err != nil {
		return err
	}
	mgr.Start()
	defer mgr.Stop()

	if err := mgr.Activate(cmd.Context(), item); err != nil {
		return fmt.Errorf("activate %s: %w", item, err)
	}
	return nil
}
