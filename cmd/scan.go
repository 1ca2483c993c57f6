package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tidybar/tidybar/internal/output"
	"github.com/tidybar/tidybar/internal/platform"
	"github.com/tidybar/tidybar/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the menu bar and list every status item",
	Long: `Walk the accessibility trees of the menu-bar-extras owners and list every
status item with its owner, identifier, frame, and backing window.

Examples:
  tidybar scan
  tidybar scan --icons
  tidybar scan --owners com.apple.controlcenter`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("icons", false, "Capture item icons (requires screen recording permission)")
	scanCmd.Flags().StringSlice("owners", nil, "Scan only these bundle ids, skipping owner discovery")
}

func runScan(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}
	icons, _ := cmd.Flags().GetBool("icons")
	owners, _ := cmd.Flags().GetStringSlice("owners")

	items := scanner.New(provider, logger).Scan(scanner.Options{
		Icons:  icons,
		Owners: owners,
	})

	return output.Print(output.ScanResult{
		TS:    time.Now().Unix(),
		Count: len(items),
		Items: items,
	})
}
