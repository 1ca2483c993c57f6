package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidybar/tidybar/internal/model"
	"github.com/tidybar/tidybar/internal/output"
)

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Relocate a status item to another lane",
	Long: `Command-drag a status item across the divider into the target lane and wait
for the bar to settle. Moving to floating pins the item always-hidden in the
settings; moving it anywhere else unpins it.

Examples:
  tidybar move --item com.example.agent --to hidden
  tidybar move --item wifi --to floating --bar
  tidybar move --item "Sync#2" --to visible`,
	RunE: runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().String("item", "", "Item id from a prior scan")
	moveCmd.Flags().String("to", "", "Target lane: visible, hidden, floating")
	moveCmd.Flags().Bool("bar", false, "When moving to floating, also show the item on the floating bar")
	moveCmd.MarkFlagRequired("item")
	moveCmd.MarkFlagRequired("to")
}

func runMove(cmd *cobra.Command, args []string) error {
	item, _ := cmd.Flags().GetString("item")
	targetStr, _ := cmd.Flags().GetString("to")
	bar, _ := cmd.Flags().GetBool("bar")

	target, err := model.ParsePlacement(targetStr)
	if err != nil {
		return err
	}

	mgr, err := newManager()
	if err != nil {
		return err
	}
	mgr.Start()
	defer mgr.Stop()

	res, err := mgr.Move(cmd.Context(), item, target, bar)
	if err != nil {
		return fmt.Errorf("move %s: %w", item, err)
	}

	result := output.MoveResult{ID: item, Target: target.String(), Moved: res.Moved}
	if res.NewID != item {
		result.NewID = res.NewID
	}
	return output.Print(result)
}
