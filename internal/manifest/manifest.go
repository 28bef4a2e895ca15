// Package manifest reads the tabular list of repositories to batch-process.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Required manifest columns. The language column is optional.
const (
	ownerColumn    = "username"
	repoColumn     = "repo_name"
	languageColumn = "language"
)

// Entry identifies one repository row from the manifest.
type Entry struct {
	Owner    string
	Repo     string
	Language string
}

// RepoID is the repository identifier used for local directory and artifact
// naming: <owner>_<repo>.
func (e Entry) RepoID() string {
	return e.Owner + "_" + e.Repo
}

// Read parses the CSV manifest at path. The header must contain the
// username and repo_name columns; rows with blank required values are
// skipped with a warning. An unreadable or malformed manifest is fatal
// for the batch.
func Read(path string, logger *zap.Logger) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	return parse(f, logger)
}

func parse(r io.Reader, logger *zap.Logger) ([]Entry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading manifest header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ownerColumn, repoColumn} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("manifest missing required column %q", required)
		}
	}

	var entries []Entry
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading manifest row: %w", err)
		}

		entry := Entry{
			Owner: field(row, columns, ownerColumn),
			Repo:  field(row, columns, repoColumn),
		}
		if entry.Owner == "" || entry.Repo == "" {
			logger.Warn("skipping manifest row with blank required field",
				zap.Int("line", line))
			continue
		}
		entry.Language = field(row, columns, languageColumn)
		entries = append(entries, entry)
	}
	return entries, nil
}

func field(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Filter keeps entries whose language tag matches, case-insensitively.
// Untagged entries cannot be filtered and are always kept; an empty filter
// keeps everything.
func Filter(entries []Entry, language string) []Entry {
	if language == "" {
		return entries
	}
	var kept []Entry
	for _, e := range entries {
		if e.Language == "" || strings.EqualFold(e.Language, language) {
			kept = append(kept, e)
		}
	}
	return kept
}
