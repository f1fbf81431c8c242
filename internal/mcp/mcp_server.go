// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RuleLister reports the registered diagnostics and stats.
type RuleLister interface {
	Rules() []schema.RuleInfo
}

// NewMCPServer initializes and configures the health report MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(accessor contract.ReportAccessor, rules RuleLister) *server.MCPServer {
	s := server.NewMCPServer(
		"Sprint Health Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		accessor: accessor,
		rules:    rules,
	}

	s.AddTool(mcp.NewTool("get_project_health",
		mcp.WithDescription("Get the sprint health report of a project, served from cache while it is fresh."),
		mcp.WithString("project_id", mcp.Description("Identifier of the project."), mcp.Required()),
	), h.handleGetProjectHealth)

	s.AddTool(mcp.NewTool("refresh_project_health",
		mcp.WithDescription("Recompute the sprint health report of a project and replace the cached one."),
		mcp.WithString("project_id", mcp.Description("Identifier of the project."), mcp.Required()),
	), h.handleRefreshProjectHealth)

	s.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List the diagnostics and stats a report evaluates, with their disabled state."),
	), h.handleListRules)

	return s
}

// StartMCPServer serves the health report tools over stdio.
func StartMCPServer(_ context.Context, accessor contract.ReportAccessor, rules RuleLister) error {
	s := NewMCPServer(accessor, rules)
	return server.ServeStdio(s)
}
