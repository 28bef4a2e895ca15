// mcpaudit audits agent-exposed tool functions with an LLM completion
// service and writes per-repository trust reports.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mcpaudit/internal/audit"
	"mcpaudit/internal/batch"
	"mcpaudit/internal/completion"
	"mcpaudit/internal/config"
	"mcpaudit/internal/extract"
	"mcpaudit/internal/manifest"
	"mcpaudit/internal/report"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	repoPath     string
	manifestPath string
	language     string
	configPath   string
	debug        bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "mcpaudit",
		Short:         "Audit marker-decorated tool functions for suspicious behavior",
		Long:          "mcpaudit extracts functions exposed as agent tools (e.g. @mcp.tool) from source repositories and submits each one to an LLM completion service for a behavioral judgment.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.repoPath, "repo", "", "analyze a single repository directory")
	cmd.Flags().StringVar(&opts.manifestPath, "csv", "", "path to a CSV manifest of repositories")
	cmd.Flags().StringVar(&opts.language, "language", "Python", "filter manifest repositories by language (only used with --csv)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "optional path to a configuration file")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug output")
	cmd.MarkFlagsMutuallyExclusive("repo", "csv")

	cmd.AddCommand(newInitCommand())

	return cmd
}

func run(cmd *cobra.Command, opts *rootOptions) error {
	logger, err := newLogger(opts.debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("language") && opts.manifestPath == "" && opts.repoPath != "" {
		logger.Warn("--language is only used with --csv; ignoring for single-repository mode")
	}

	client, err := newClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	auditor := audit.New(client, logger)
	auditor.SetMaxConcurrency(cfg.MaxConcurrency)
	orch := batch.New(extract.New(cfg.Marker), auditor, logger, cfg.ReposRoot)

	ctx := cmd.Context()

	if opts.repoPath != "" {
		rep, err := orch.AuditRepo(ctx, opts.repoPath, "Python")
		if err != nil {
			return err
		}
		artifactPath := report.Path(opts.repoPath)
		if err := report.Write(artifactPath, rep); err != nil {
			return err
		}
		logger.Info("saved analysis report",
			zap.String("artifact", artifactPath),
			zap.Int("tools", rep.ToolsCount))
		return nil
	}

	manifestPath := opts.manifestPath
	if manifestPath == "" {
		manifestPath = cfg.ManifestPath
	}

	entries, err := manifest.Read(manifestPath, logger)
	if err != nil {
		return err
	}
	entries = manifest.Filter(entries, opts.language)
	if len(entries) == 0 {
		return fmt.Errorf("no repositories in %s match the criteria", manifestPath)
	}
	logger.Info("starting batch audit",
		zap.String("manifest", manifestPath),
		zap.Int("repositories", len(entries)),
		zap.String("client", client.Name()))

	return orch.Run(ctx, entries, opts.language)
}

func newClient(ctx context.Context, cfg config.Config) (completion.Client, error) {
	switch cfg.Provider {
	case "openai", "":
		return completion.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.RequestsPerSecond), nil
	case "gemini":
		return completion.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
