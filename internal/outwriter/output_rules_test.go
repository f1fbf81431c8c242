package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/sprinthealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRules() []schema.RuleInfo {
	return []schema.RuleInfo{
		{Name: "active", Kind: schema.DiagnosticKind},
		{Name: "yield", Kind: schema.DiagnosticKind, Disabled: true},
		{Name: "velocity", Kind: schema.StatKind},
	}
}

func TestWriteRuleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRuleTable(&buf, sampleRules(), testConfig(schema.TextOut)))
	out := buf.String()
	assert.Contains(t, out, "yield")
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "enabled")
	assert.Contains(t, out, "3 rules, 1 disabled")
}

func TestWriteRuleCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRuleCSV(&buf, sampleRules()))
	assert.Equal(t, "name,kind,disabled\nactive,diagnostic,false\nyield,diagnostic,true\nvelocity,stat,false\n", buf.String())
}

func TestWriteRuleResultsJSON(t *testing.T) {
	cfg := testConfig(schema.JSONOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, NewOutWriter().WriteRules(sampleRules(), cfg))

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var decoded []schema.RuleInfo
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, sampleRules(), decoded)
}
