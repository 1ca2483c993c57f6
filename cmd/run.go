package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the manager loop in the foreground",
	Long: `Start the long-running manager: periodic rescans, divider tracking, pin
enforcement, and debounced settings persistence. Stops cleanly on SIGINT or
SIGTERM, restoring the bar baseline first.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	mgr, err := newManager()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr.Start()
	logger.Info().Msg("manager running")
	<-ctx.Done()
	mgr.Stop()
	return nil
}
