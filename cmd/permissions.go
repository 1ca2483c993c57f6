package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tidybar/tidybar/internal/output"
	"github.com/tidybar/tidybar/internal/platform"
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Report accessibility and screen recording permission state",
	Long: `Report whether the process is trusted for accessibility (required for
scanning and relocation) and granted screen recording (required for icon
capture). With --request, trigger the OS permission prompts first.`,
	RunE: runPermissions,
}

func init() {
	rootCmd.AddCommand(permissionsCmd)
	permissionsCmd.Flags().Bool("request", false, "Trigger the OS permission prompts")
}

func runPermissions(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}
	if request, _ := cmd.Flags().GetBool("request"); request {
		provider.Permissions.Request()
	}
	return output.Print(output.PermissionsResult{
		Accessibility:   provider.Permissions.AccessibilityTrusted(),
		ScreenRecording: provider.Permissions.ScreenRecordingGranted(),
	})
}
