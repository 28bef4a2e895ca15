// Package batch orchestrates repository audits: discovery, extraction,
// concurrent analysis, and idempotent report persistence.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"mcpaudit/internal/discover"
	"mcpaudit/internal/extract"
	"mcpaudit/internal/lang"
	"mcpaudit/internal/manifest"
	"mcpaudit/internal/model"
	"mcpaudit/internal/report"
)

// Auditor is the concurrent analysis stage consumed by the orchestrator.
type Auditor interface {
	Run(ctx context.Context, tools []model.ToolFunction) []model.AnalyzedTool
}

// Orchestrator runs the full pipeline for one repository at a time.
// Manifest entries are processed strictly sequentially; concurrency lives
// inside the auditor.
type Orchestrator struct {
	extractor *extract.Extractor
	auditor   Auditor
	logger    *zap.Logger
	reposRoot string
}

// New wires an orchestrator. reposRoot is the directory that holds local
// repository checkouts named <owner>_<repo>.
func New(extractor *extract.Extractor, auditor Auditor, logger *zap.Logger, reposRoot string) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		extractor: extractor,
		auditor:   auditor,
		logger:    logger,
		reposRoot: reposRoot,
	}
}

// AuditRepo extracts and analyzes every candidate file under repoDir.
// A file that fails to parse is skipped with a warning; the rest of the
// repository is still processed. The language must support extraction.
func (o *Orchestrator) AuditRepo(ctx context.Context, repoDir, language string) (model.Report, error) {
	l := lang.ForName(language)
	if l == nil || !l.Parseable() {
		return model.Report{}, fmt.Errorf("extraction not supported for language %q", language)
	}

	files, err := discover.Files(repoDir, []string{l.Name})
	if err != nil {
		return model.Report{}, fmt.Errorf("discovering files in %s: %w", repoDir, err)
	}
	o.logger.Debug("discovered candidate files",
		zap.String("repo", repoDir),
		zap.Int("count", len(files)))

	var tools []model.ToolFunction
	for _, f := range files {
		source, err := os.ReadFile(filepath.Join(repoDir, f.Path))
		if err != nil {
			o.logger.Warn("skipping unreadable file",
				zap.String("file", f.Path), zap.Error(err))
			continue
		}
		extracted, err := o.extractor.Extract(source)
		if err != nil {
			var perr *extract.ParseError
			if errors.As(err, &perr) {
				o.logger.Warn("skipping unparseable file",
					zap.String("file", f.Path), zap.Error(err))
				continue
			}
			return model.Report{}, fmt.Errorf("extracting from %s: %w", f.Path, err)
		}
		for i := range extracted {
			extracted[i].FilePath = f.Path
		}
		tools = append(tools, extracted...)
	}

	o.logger.Info("extracted tool functions",
		zap.String("repo", repoDir),
		zap.Int("tools", len(tools)))

	analyzed := o.auditor.Run(ctx, tools)
	return report.Build(repoDir, analyzed), nil
}

// Run processes manifest entries in order. A repository whose report
// artifact already exists is skipped without extraction or completion
// calls; a missing repository directory is skipped with a warning.
// Persistence failures are fatal and abort the batch.
func (o *Orchestrator) Run(ctx context.Context, entries []manifest.Entry, language string) error {
	for _, entry := range entries {
		repoDir := filepath.Join(o.reposRoot, entry.RepoID())

		info, err := os.Stat(repoDir)
		if err != nil || !info.IsDir() {
			o.logger.Warn("repository directory not found",
				zap.String("repo", repoDir))
			continue
		}

		artifactPath := report.Path(repoDir)
		if report.Exists(artifactPath) {
			o.logger.Info("skipping already analyzed repository",
				zap.String("repo", repoDir))
			continue
		}

		rep, err := o.AuditRepo(ctx, repoDir, language)
		if err != nil {
			return err
		}
		if err := report.Write(artifactPath, rep); err != nil {
			return fmt.Errorf("persisting report for %s: %w", repoDir, err)
		}
		o.logger.Info("saved analysis report",
			zap.String("repo", repoDir),
			zap.String("artifact", artifactPath),
			zap.Int("tools", rep.ToolsCount))
	}
	return nil
}
