package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rendis/diagramir/internal/logging"
	"github.com/rendis/diagramir/internal/pipeline"
	"github.com/rendis/diagramir/internal/validation"
	"github.com/rendis/diagramir/pkg/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes returned by run.
const (
	exitOK       = 0
	exitInternal = 1
	exitInput    = 2
)

// app carries state shared by subcommands once PersistentPreRunE has run.
type app struct {
	cfgFile string
	cfg     Config
	logger  *slog.Logger
}

func (a *app) newPipeline() (*pipeline.Pipeline, error) {
	return pipeline.New(validation.Options{
		Logger:        a.logger,
		EdgeDropRules: a.cfg.EdgeDropRules,
	})
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "diagramir",
		Short:         "Validate diagram IR payloads and render them as Mermaid.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := v.BindPFlag(keyLogLevel, cmd.Flags().Lookup("log-level")); err != nil {
				return err
			}
			if err := v.BindPFlag(keyLogFormat, cmd.Flags().Lookup("log-format")); err != nil {
				return err
			}

			cfg, err := loadConfig(v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			a.logger.Debug("config loaded", "config_file", v.ConfigFileUsed(), "edge_drop_rules", len(cfg.EdgeDropRules))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./diagramir.yaml or ~/.diagramir/diagramir.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "", "log format: text or json")
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	root.AddCommand(
		newRenderCmd(a),
		newValidateCmd(a),
		newServeCmd(a),
		newInstallPreviewCmd(a),
		newVersionCmd(),
	)
	return root
}

// run executes the CLI and maps the outcome to an exit code: classified input
// failures exit 2, anything else 1.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, "Error:", err)
	if schema.IsClientError(err) {
		return exitInput
	}
	return exitInternal
}
