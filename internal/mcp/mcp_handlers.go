package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/internal/outwriter"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	accessor contract.ReportAccessor
	rules    RuleLister
}

type reportFunc func(ctx context.Context, projectID string) (schema.StatisticsReport, error)

func (h *toolHandler) handleGetProjectHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.serveReport(ctx, request, h.accessor.Get)
}

func (h *toolHandler) handleRefreshProjectHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.serveReport(ctx, request, h.accessor.ForceRefresh)
}

func (h *toolHandler) serveReport(ctx context.Context, request mcp.CallToolRequest, fetch reportFunc) (*mcp.CallToolResult, error) {
	projectID := strings.TrimSpace(request.GetString("project_id", ""))
	if projectID == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}

	report, err := fetch(ctx, projectID)
	if errors.Is(err, contract.ErrProjectNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown project %q", projectID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}

	jsonData, err := outwriter.ReportJSON(report)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListRules(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos := h.rules.Rules()
	if infos == nil {
		infos = []schema.RuleInfo{}
	}
	jsonData, _ := json.MarshalIndent(infos, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
