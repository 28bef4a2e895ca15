// Package model defines core data structures for mcpaudit.
package model

// Param is a single function parameter with its unparsed type annotation.
// Type is empty when the parameter carries no annotation.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Signature captures a function's parameter list in declaration order plus
// the unparsed return annotation, if any.
type Signature struct {
	Params     []Param `json:"parameters"`
	ReturnType string  `json:"return_type,omitempty"`
}

// ToolFunction is one marker-decorated function extracted from a source file.
// FilePath is the repo-relative path, assigned by the caller of the extractor.
// StartLine is the 1-indexed line of the def itself, not its first decorator.
//
// Names are not unique within a repository or even within a file; use
// (FilePath, StartLine) to identify a tool function.
type ToolFunction struct {
	Name       string    `json:"name"`
	FilePath   string    `json:"file_path,omitempty"`
	StartLine  int       `json:"line_number"`
	Docstring  string    `json:"docstring"`
	SourceCode string    `json:"source_code"`
	Signature  Signature `json:"signature"`
}

// Analysis is the terminal outcome of auditing one tool function. Either OK
// is true and Raw holds the completion service's response text, or Err holds
// the failure message. Score and Reason are parsed best-effort from the
// model's JSON output and stay absent when the output is not parseable.
type Analysis struct {
	OK     bool   `json:"ok"`
	Raw    string `json:"raw,omitempty"`
	Score  *int   `json:"score,omitempty"`
	Reason string `json:"reason,omitempty"`
	Err    string `json:"error,omitempty"`
}

// AnalyzedTool pairs an extracted tool function with its analysis outcome.
type AnalyzedTool struct {
	ToolFunction
	Analysis Analysis `json:"analysis"`
}

// Report is the per-repository audit artifact, serialized once and never
// mutated afterward. ToolsCount always equals len(Tools).
type Report struct {
	RepoName   string         `json:"repo_name"`
	ToolsCount int            `json:"tools_count"`
	Tools      []AnalyzedTool `json:"tools"`
}
