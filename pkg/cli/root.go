package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/mcp"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/mcp/tools"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/store"
)

const appName = "smartcode"

// NewRootCommand builds the smartcode command tree. With no sub-command it
// runs the interactive menu.
func NewRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Analyze source files with AI assistance and keep the reports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), version, opts)
			if err != nil {
				return err
			}
			defer a.close()

			menu := NewMenu(a.service, cmd.InOrStdin(), newPrinter(cmd, opts), version, a.logger)
			return menu.Run(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "preferred store backend (remote or embedded); overrides DB_BACKEND")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newAnalyzeCommand(version, opts),
		newReportsCommand(version, opts),
		newReportCommand(version, opts),
		newDoctorCommand(version, opts),
		newMCPCommand(version, opts),
		newVersionCommand(version),
	)
	return root
}

func newPrinter(cmd *cobra.Command, opts *globalOptions) *Printer {
	return NewPrinter(cmd.OutOrStdout(), !opts.noColor && !color.NoColor)
}

func newAnalyzeCommand(version string, opts *globalOptions) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Extract metrics from a file, run an AI action and store the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseAIKind(kindFlag)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), version, opts)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.service.AnalyzeKind(cmd.Context(), args[0], kind)
			if err != nil {
				return err
			}
			newPrinter(cmd, opts).AnalysisResult(res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "explain", "AI action: explain, debug or refactor")
	return cmd
}

func newReportsCommand(version string, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "reports",
		Aliases: []string{"list"},
		Short:   "List stored reports, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), version, opts)
			if err != nil {
				return err
			}
			defer a.close()

			reports, err := a.service.ListReports(cmd.Context())
			if err != nil {
				return err
			}
			newPrinter(cmd, opts).ReportList(reports)
			return nil
		},
	}
}

func newReportCommand(version string, opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Show one stored report including its AI text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("report id must be a positive integer, got %q", args[0])
			}
			format, err := ParseFormat(output)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), version, opts)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.service.Detail(cmd.Context(), id)
			if err != nil {
				return err
			}
			return newPrinter(cmd, opts).Report(report, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(FormatText), "output format: text, json or yaml")
	return cmd
}

func newDoctorCommand(version string, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity to the remote and embedded stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadBase(version, opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			results := []*store.ProbeResult{
				store.Probe(ctx, store.OpenOptions{Backend: store.BackendRemote, Remote: remoteConfig(cfg)}, logger),
				store.Probe(ctx, store.OpenOptions{Backend: store.BackendEmbedded}, logger),
			}

			p := newPrinter(cmd, opts)
			p.ProbeResults(results)
			p.Dialects(store.RegisteredDialects())

			for _, r := range results {
				if r.OK() {
					return nil
				}
			}
			return fmt.Errorf("no store backend is usable")
		},
	}
}

func newMCPCommand(version string, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analysis tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), version, opts)
			if err != nil {
				return err
			}
			defer a.close()

			s := mcp.NewServer(appName, version, a.logger)
			tools.RegisterHealthTool(s.MCP(), version, a.service.Status)
			tools.RegisterReportTools(s.MCP(), &tools.ReportToolDeps{
				Service: a.service,
				Logger:  a.logger,
			})

			a.logger.Info("MCP server ready", zap.String("version", version))
			return s.ServeStdio(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
		},
	}
}
