package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rendis/diagramir/internal/diagram"
	"github.com/rendis/diagramir/internal/logging"
	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	var ascii, unescape bool

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Validate a diagram payload and print its Mermaid text",
		Long: "Reads a JSON or YAML diagram payload from file, or stdin when no file is given, " +
			"and prints the rendered Mermaid text. With --ascii, flowcharts are drawn as box art " +
			"using the mermaid-ascii binary from preview_bin_dir.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd.InOrStdin(), firstArg(args))
			if err != nil {
				return err
			}

			p, err := a.newPipeline()
			if err != nil {
				return err
			}

			ctx := logging.WithRequestID(cmd.Context(), uuid.NewString())
			res, err := p.Run(ctx, raw)
			if err != nil {
				return err
			}

			out := res.Mermaid
			if ascii {
				out, err = diagram.RenderASCII(ctx, res.Diagram, a.cfg.PreviewBinDir)
				if err != nil {
					return fmt.Errorf("ascii preview: %w", err)
				}
			} else if unescape {
				out = diagram.FixEscapedNewlines(out)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&ascii, "ascii", false, "draw the flowchart as box art via mermaid-ascii")
	cmd.Flags().BoolVar(&unescape, "unescape", false, "turn literal \\n sequences into line breaks")
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
