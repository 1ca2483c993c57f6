package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tidybar/tidybar/internal/config"
	"github.com/tidybar/tidybar/internal/output"
	"github.com/tidybar/tidybar/internal/placement"
	"github.com/tidybar/tidybar/internal/platform"
	"github.com/tidybar/tidybar/internal/scanner"
)

var lanesCmd = &cobra.Command{
	Use:   "lanes",
	Short: "Bucket status items into visible, hidden, and always-hidden lanes",
	Long: `Scan the bar, locate the two divider items, and classify every status item
by its position relative to them. Items pinned always-hidden in the settings
land in the always-hidden lane regardless of position.`,
	RunE: runLanes,
}

func init() {
	rootCmd.AddCommand(lanesCmd)
}

func runLanes(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}
	sp, err := settingsPath()
	if err != nil {
		return err
	}
	settings, err := config.Load(sp)
	if err != nil {
		return err
	}

	sc := scanner.New(provider, logger)
	items := sc.Scan(scanner.Options{})

	resolver := placement.New(logger)
	resolver.SetDividers(sc.Dividers())
	resolver.SetAlwaysHidden(settings.AlwaysHidden)
	lanes := resolver.Lanes(items)

	return output.Print(output.LanesResult{
		TS:           time.Now().Unix(),
		Visible:      lanes.Visible,
		Hidden:       lanes.Hidden,
		AlwaysHidden: lanes.Floating,
		FloatingBar:  settings.FloatingBar,
	})
}
