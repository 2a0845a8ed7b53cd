package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdbml/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC and publishes
diagnostics for every open DBML document, filtered by the diagnostics
section of leapdbml.yaml. It also answers completion, hover,
go-to-definition, references, document symbol and quick-fix requests.`,
		Example: `  # Start LSP server (usually called by an editor)
  leapdbml lsp`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd, version)
		},
	}

	return cmd
}

func runLSP(cmd *cobra.Command, version string) error {
	cc := NewCommandContext(cmd)
	server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(),
		lsp.WithLogger(cc.Logger),
		lsp.WithDiagnosticsConfig(cc.Cfg.Diagnostics),
		lsp.WithVersion(version),
	)
	return server.Run()
}
