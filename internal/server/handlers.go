package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/tidybar/tidybar/internal/model"
	"github.com/tidybar/tidybar/internal/output"
)

func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// resultToText serializes a result to YAML for the MCP response.
func resultToText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	return string(b)
}

func (s *Server) handleScan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	icons := boolParam(params, "icons", false)
	fresh := boolParam(params, "fresh", false)

	if fresh {
		s.cache.InvalidateAll()
	}
	st, err := s.cache.State(ctx, s.mgr, icons)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := output.ScanResult{
		TS:    st.UpdatedAt.Unix(),
		Count: len(st.Items),
		Items: st.Items,
	}
	return mcp.NewToolResultText(resultToText(result)), nil
}

func (s *Server) handleLanes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.cache.State(ctx, s.mgr, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	settings, err := s.mgr.Settings(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := output.LanesResult{
		TS:           st.UpdatedAt.Unix(),
		Visible:      st.Lanes.Visible,
		Hidden:       st.Lanes.Hidden,
		AlwaysHidden: st.Lanes.Floating,
		FloatingBar:  settings.FloatingBar,
	}
	return mcp.NewToolResultText(resultToText(result)), nil
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	item := stringParam(params, "item", "")
	if item == "" {
		return mcp.NewToolResultError("item parameter is required"), nil
	}
	target, err := model.ParsePlacement(stringParam(params, "to", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bar := boolParam(params, "bar", false)

	res, err := s.mgr.Move(ctx, item, target, bar)
	s.cache.InvalidateAll()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := output.MoveResult{ID: item, Target: target.String(), Moved: res.Moved}
	if res.NewID != item {
		result.NewID = res.NewID
	}
	return mcp.NewToolResultText(resultToText(result)), nil
}

func (s *Server) handleActivate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	item := stringParam(params, "item", "")
	if item == "" {
		return mcp.NewToolResultError("item parameter is required"), nil
	}

	err := s.mgr.Activate(ctx, item)
	s.cache.InvalidateAll()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("activated: %s\n", item)), nil
}

func (s *Server) handlePin(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	item := stringParam(params, "item", "")
	if item == "" {
		return mcp.NewToolResultError("item parameter is required"), nil
	}
	bar := boolParam(params, "bar", false)
	unpin := boolParam(params, "unpin", false)

	var err error
	if unpin {
		err = s.mgr.Unpin(ctx, item)
	} else {
		err = s.mgr.Pin(ctx, item, bar)
	}
	s.cache.InvalidateAll()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if unpin {
		return mcp.NewToolResultText(fmt.Sprintf("unpinned: %s\n", item)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("pinned: %s\n", item)), nil
}
