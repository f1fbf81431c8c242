package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/huangsam/sprinthealth/internal/contract"
	mcp_internal "github.com/huangsam/sprinthealth/internal/mcp"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticRules []schema.RuleInfo

func (r staticRules) Rules() []schema.RuleInfo { return r }

func callTool(t *testing.T, accessor contract.ReportAccessor, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(accessor, staticRules{
		{Name: "active", Kind: schema.DiagnosticKind},
		{Name: "yield", Kind: schema.DiagnosticKind, Disabled: true},
		{Name: "velocity", Kind: schema.StatKind},
	})
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerReportTools(t *testing.T) {
	ppd := 2.5
	report := schema.NewStatisticsReport("web", []string{"active"}, []string{"yield"}, map[string]float64{"sprints": 3}, 50, &ppd)

	tests := []struct {
		tool   string
		method string
	}{
		{"get_project_health", "Get"},
		{"refresh_project_health", "ForceRefresh"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			accessor := &contract.MockReportAccessor{}
			accessor.On(tt.method, mock.Anything, "web").Return(report, nil).Once()

			res := callTool(t, accessor, tt.tool, map[string]any{"project_id": "web"})
			assert.False(t, res.IsError)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal([]byte(resultText(res)), &decoded))
			assert.Equal(t, "web", decoded["project_id"])
			assert.Equal(t, float64(50), decoded["score"])
			assert.Equal(t, "At Risk", decoded["label"])
			assert.Equal(t, []any{"yield"}, decoded["failed"])
			assert.Equal(t, map[string]any{"points_per_day": 2.5}, decoded["metrics"])
			accessor.AssertExpectations(t)
		})
	}
}

func TestMCPServerReportErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		err      error
		expected string
	}{
		{"missing project", map[string]any{}, nil, "project_id is required"},
		{"blank project", map[string]any{"project_id": "  "}, nil, "project_id is required"},
		{"unknown project", map[string]any{"project_id": "ghost"}, fmt.Errorf("failed to load project %q: %w", "ghost", contract.ErrProjectNotFound), `unknown project "ghost"`},
		{"build failure", map[string]any{"project_id": "web"}, errors.New("connection refused"), "report failed: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accessor := &contract.MockReportAccessor{}
			if tt.err != nil {
				accessor.On("Get", mock.Anything, tt.args["project_id"]).Return(schema.StatisticsReport{}, tt.err)
			}

			res := callTool(t, accessor, "get_project_health", tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.expected)
			if tt.err == nil {
				assert.Empty(t, accessor.Calls)
			}
		})
	}
}

func TestMCPServerListRules(t *testing.T) {
	res := callTool(t, &contract.MockReportAccessor{}, "list_rules", nil)
	assert.False(t, res.IsError)

	var infos []schema.RuleInfo
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &infos))
	require.Len(t, infos, 3)
	assert.Equal(t, schema.RuleInfo{Name: "yield", Kind: schema.DiagnosticKind, Disabled: true}, infos[1])
}
