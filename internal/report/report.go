// Package report builds and persists per-repository audit artifacts.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mcpaudit/internal/model"
)

// Build aggregates analyzed tools into a repository report. Pure; an empty
// input produces a report with an empty tools list and ToolsCount zero.
func Build(repoName string, tools []model.AnalyzedTool) model.Report {
	if tools == nil {
		tools = []model.AnalyzedTool{}
	}
	return model.Report{
		RepoName:   repoName,
		ToolsCount: len(tools),
		Tools:      tools,
	}
}

// Path returns the deterministic artifact path for a repository directory:
// a sibling JSON file named <dir>_tools.json. Its presence is the
// resumability marker for the batch orchestrator.
func Path(repoDir string) string {
	return filepath.Clean(repoDir) + "_tools.json"
}

// Exists reports whether an artifact is already present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Write persists the report as indented JSON. A write failure is fatal for
// that repository's processing and is returned to the caller unretried.
func Write(path string, r model.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Read loads a previously persisted report.
func Read(path string) (model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Report{}, fmt.Errorf("reading report: %w", err)
	}
	var r model.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return model.Report{}, fmt.Errorf("decoding report: %w", err)
	}
	return r, nil
}
