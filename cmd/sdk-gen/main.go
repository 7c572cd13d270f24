package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sdkforge/sdk-gen/internal/cli"
	"github.com/sdkforge/sdk-gen/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var logFormat, logLevel string
	var logger *slog.Logger

	root := &cobra.Command{
		Use:           "sdk-gen",
		Short:         "Generate SDKs from Swagger / OpenAPI documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.Setup(logFormat, logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	loggerFn := func() *slog.Logger { return logger }
	root.AddCommand(newGenerateCmd(loggerFn))
	root.AddCommand(newValidateCmd())
	root.AddCommand(newIRCmd(loggerFn))
	root.AddCommand(newTargetsCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("sdk-gen failed", "error", err)
		if cli.IsCheckFailure(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// addFallbackFlags registers the single-client flags used when no config file is given
func addFallbackFlags(cmd *cobra.Command, p *cli.FallbackParams) {
	cmd.Flags().StringArrayVar(&p.Documents, "doc", nil, "API document as id[:version]=path (repeatable)")
	cmd.Flags().StringVar(&p.NamespaceRoot, "namespace-root", "", "Well-known namespace prefix (default Sdk)")
	cmd.Flags().BoolVar(&p.Isolated, "isolated", false, "Rewrite every namespace root to <Root>Isolated")
}

func newGenerateCmd(logger func() *slog.Logger) *cobra.Command {
	var p cli.RunGenerateParams

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate client SDKs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunGenerate(cmd.Context(), cmd.OutOrStdout(), logger(), p)
		},
	}

	cmd.Flags().StringVarP(&p.ConfigPath, "config", "c", "", "Path to sdkgen.yaml config")
	cmd.Flags().StringVar(&p.SingleClient, "client", "", "Generate only the named client from config")
	cmd.Flags().BoolVar(&p.Check, "check", false, "Fail if any generated file is out of date instead of writing")
	// Fallback single-client flags
	addFallbackFlags(cmd, &p.Fallback)
	cmd.Flags().StringVar(&p.Fallback.Type, "type", "", "Client type (csharp, typescript, go)")
	cmd.Flags().StringVar(&p.Fallback.OutDir, "out", "", "Output directory")
	cmd.Flags().StringVar(&p.Fallback.PackageName, "package-name", "", "Package name")
	cmd.Flags().StringVar(&p.Fallback.Name, "client-name", "", "Client name")
	cmd.Flags().StringArrayVar(&p.Fallback.IncludeTags, "include-tags", nil, "Regex patterns for tags to include")
	cmd.Flags().StringArrayVar(&p.Fallback.ExcludeTags, "exclude-tags", nil, "Regex patterns for tags to exclude")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a Swagger / OpenAPI document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunValidate(cmd.Context(), cmd.OutOrStdout(), input)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Document file or URL (yaml/json)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newIRCmd(logger func() *slog.Logger) *cobra.Command {
	var p cli.RunIRParams
	cmd := &cobra.Command{
		Use:   "ir",
		Short: "Print the normalized intermediate representation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunIR(cmd.Context(), cmd.OutOrStdout(), logger(), p)
		},
	}
	cmd.Flags().StringVarP(&p.ConfigPath, "config", "c", "", "Path to sdkgen.yaml config")
	cmd.Flags().StringVar(&p.Type, "type", "csharp", "Backend whose namespace style names the IR")
	cmd.Flags().StringVar(&p.Format, "format", "yaml", "Output format (yaml, json)")
	addFallbackFlags(cmd, &p.Fallback)
	return cmd
}

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the available SDK targets",
		Run: func(cmd *cobra.Command, args []string) {
			cli.RunTargets(cmd.OutOrStdout())
		},
	}
}
