// Package server exposes the manager over the Model Context Protocol so
// agents can inspect and rearrange the menu bar without shelling out.
package server

import (
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/tidybar/tidybar/internal/manager"
	"github.com/tidybar/tidybar/internal/version"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
}

// Server wraps the MCP server with the manager and a scan cache.
type Server struct {
	mgr   *manager.Manager
	cache *scanCache
	mcp   *mcpserver.MCPServer
	log   zerolog.Logger
}

// New creates an MCP server with all tidybar tools registered. The manager
// must already be started.
func New(mgr *manager.Manager, cfg Config, log zerolog.Logger) *Server {
	s := &Server{
		mgr:   mgr,
		cache: newScanCache(cfg.CacheTTL),
		log:   log.With().Str("component", "server").Logger(),
	}
	s.mcp = mcpserver.NewMCPServer("tidybar", version.Version)
	s.registerTools()
	return s
}

// Serve starts the MCP server with the configured transport and blocks.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("scan",
			mcp.WithDescription("Scan the menu bar and return every status item with its owner, frame, and lane"),
			mcp.WithBoolean("icons", mcp.Description("Capture item icons (requires screen recording permission)")),
			mcp.WithBoolean("fresh", mcp.Description("Bypass the scan cache and force a rescan")),
		),
		s.handleScan,
	)

	s.mcp.AddTool(
		mcp.NewTool("lanes",
			mcp.WithDescription("Return status items bucketed into visible, hidden, and always-hidden lanes, plus the floating-bar subset"),
		),
		s.handleLanes,
	)

	s.mcp.AddTool(
		mcp.NewTool("move_item",
			mcp.WithDescription("Relocate a status item to another lane by command-dragging it across the divider"),
			mcp.WithString("item", mcp.Description("Item id from a prior scan"), mcp.Required()),
			mcp.WithString("to", mcp.Description("Target lane: visible, hidden, floating"), mcp.Required()),
			mcp.WithBoolean("bar", mcp.Description("When moving to floating, also show the item on the floating bar")),
		),
		s.handleMove,
	)

	s.mcp.AddTool(
		mcp.NewTool("activate_item",
			mcp.WithDescription("Open a hidden status item's menu by revealing it and forwarding a click, then restore the bar when the menu closes"),
			mcp.WithString("item", mcp.Description("Item id from a prior scan"), mcp.Required()),
		),
		s.handleActivate,
	)

	s.mcp.AddTool(
		mcp.NewTool("pin_item",
			mcp.WithDescription("Pin an item always-hidden (or unpin it) without dragging; takes effect on the next relayout"),
			mcp.WithString("item", mcp.Description("Item id from a prior scan"), mcp.Required()),
			mcp.WithBoolean("bar", mcp.Description("Also show the pinned item on the floating bar")),
			mcp.WithBoolean("unpin", mcp.Description("Remove the pin instead")),
		),
		s.handlePin,
	)
}
