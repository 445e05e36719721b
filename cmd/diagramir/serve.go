package main

import (
	"github.com/rendis/diagramir/pkg/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPipeline()
			if err != nil {
				return err
			}

			srv := mcp.NewDiagramServer(mcp.DiagramServerDeps{
				Pipeline: p,
				Logger:   a.logger,
				Version:  version,
			})
			a.logger.Info("serving MCP over stdio", "version", version)
			return srv.Listen(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
