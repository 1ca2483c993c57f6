package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tidybar/tidybar/internal/config"
	"github.com/tidybar/tidybar/internal/manager"
	"github.com/tidybar/tidybar/internal/output"
	"github.com/tidybar/tidybar/internal/platform"
	"github.com/tidybar/tidybar/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tidybar",
	Short: "Hide, reveal, and rearrange macOS menu bar status items",
	Long: `tidybar tidies the macOS menu bar: status items can be tucked behind a
hidden-section divider, pinned always-hidden onto a floating bar, and still
activated on demand. The CLI scans the bar, relocates items by synthetic
command-drag, and serves the same operations to MCP clients.`,
}

// logger is configured by the root command's --log-level flag before any
// subcommand runs.
var logger = zerolog.Nop()

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: trace, debug, info, warn, error, disabled")
	rootCmd.PersistentFlags().String("config", "", "Settings file path (default: ~/Library/Application Support/tidybar/settings.yaml)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Use the root persistent flags directly to avoid conflicts with
		// subcommand local flags.
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		pretty, _ := rootCmd.PersistentFlags().GetBool("pretty")
		output.PrettyOutput = pretty

		levelStr, _ := rootCmd.PersistentFlags().GetString("log-level")
		level, err := zerolog.ParseLevel(levelStr)
		if err != nil {
			return fmt.Errorf("unsupported log level: %s", levelStr)
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(level).
			With().Timestamp().Logger()
		return nil
	}
}

// settingsPath resolves the --config override or the default location.
func settingsPath() (string, error) {
	if p, _ := rootCmd.PersistentFlags().GetString("config"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

// newManager wires a manager over the native provider. The caller owns
// Start/Stop.
func newManager() (*manager.Manager, error) {
	provider, err := platform.NewProvider()
	if err != nil {
		return nil, err
	}
	sp, err := settingsPath()
	if err != nil {
		return nil, err
	}
	return manager.New(manager.Config{
		Provider:      provider,
		SettingsPath:  sp,
		IconCachePath: filepath.Join(filepath.Dir(sp), "icons.json"),
		Log:           logger,
	})
}
