package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/bursary-matcher/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio transport)",
	Long: `Start the MCP (Model Context Protocol) server using stdio transport.

This lets AI assistants compute and list bursary matches, score single
opportunities and browse the catalogue.

Add to an MCP client config:

{
  "mcpServers": {
    "bursary": {
      "command": "/path/to/bursary",
      "args": ["mcp"]
    }
  }
}

Logs go to stderr; stdout carries only protocol messages.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// Check if MCP is enabled
	if !a.cfg.MCP.Enabled {
		return fmt.Errorf("MCP server is disabled in config")
	}

	err = mcp.New(a.svc, a.store, version, a.log).Start(ctx)
	if errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}
