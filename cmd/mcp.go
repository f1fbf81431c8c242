package cmd

import (
	"context"

	"github.com/huangsam/sprinthealth/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the sprinthealth MCP server",
	Long: `Launch an MCP server over stdio so AI agents can read and refresh project
health reports. The rules file, when given, is reloaded whenever it changes.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		eng, err := newEngine(rootCtx)
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx, cancel := context.WithCancel(rootCtx)
		defer cancel()
		eng.watchRules(ctx)

		return mcp.StartMCPServer(ctx, eng.cache, eng.builder)
	},
}
