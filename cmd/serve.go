package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidybar/tidybar/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing tidybar tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes the scan, lanes,
move, activate, and pin operations as tools. The manager keeps running in the
background between calls, so the bar stays reconciled.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  tidybar serve
  tidybar serve --transport streamable-http --port 8080
  tidybar serve --cache-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().Int("cache-ttl", 500, "Scan cache TTL in milliseconds (0 to disable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	cacheTTLMs, _ := cmd.Flags().GetInt("cache-ttl")

	mgr, err := newManager()
	if err != nil {
		return fmt.Errorf("failed to create manager: %w", err)
	}
	mgr.Start()
	defer mgr.Stop()

	cfg := server.Config{
		Transport: transport,
		Port:      port,
		CacheTTL:  time.Duration(cacheTTLMs) * time.Millisecond,
	}
	return server.New(mgr, cfg, logger).Serve(cfg)
}
