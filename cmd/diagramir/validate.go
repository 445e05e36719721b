package main

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rendis/diagramir/internal/logging"
	"github.com/rendis/diagramir/pkg/schema"
	"github.com/spf13/cobra"
)

// validateOutput is the JSON document printed by the validate command.
type validateOutput struct {
	Diagram   *schema.Diagram `json:"diagram"`
	Notices   []schema.Notice `json:"notices"`
	IRVersion int             `json:"ir_version"`
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Repair and validate a diagram payload, printing the result as JSON",
		Args:  cobra.MaximumNArgs(1),
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
			d, report, err := p.Validate(ctx, raw)
			if err != nil {
				return err
			}

			notices := report.Notices
			if notices == nil {
				notices = []schema.Notice{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(validateOutput{Diagram: d, Notices: notices, IRVersion: report.IRVersion})
		},
	}
}
