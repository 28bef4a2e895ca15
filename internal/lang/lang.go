// Package lang provides a language registry mapping language names to file
// extensions and, where structural extraction is supported, to tree-sitter
// grammars.
package lang

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language holds discovery and parsing configuration for one language.
// Most entries exist only so the manifest language filter can resolve file
// extensions; only languages with a grammar support marker extraction.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language
}

// Parseable reports whether marker extraction is supported for this language.
func (l *Language) Parseable() bool {
	return l.lang != nil
}

// GetLanguage returns the tree-sitter Language pointer, or nil when the
// language is discovery-only.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps lowercase language names to their configuration. Grammar
// pointers are attached by init() functions in per-language files.
var Languages = map[string]*Language{}

func init() {
	// Discovery-only entries, matching the manifest language tags the
	// batch scanner accepts.
	for name, exts := range map[string][]string{
		"go":         {".go"},
		"java":       {".java"},
		"javascript": {".js"},
		"typescript": {".ts"},
		"c":          {".c"},
		"c++":        {".cpp"},
		"c#":         {".cs"},
		"ruby":       {".rb"},
		"php":        {".php"},
		"swift":      {".swift"},
		"kotlin":     {".kt"},
		"rust":       {".rs"},
		"html":       {".html"},
		"css":        {".css"},
	} {
		Languages[name] = &Language{Name: name, Extensions: exts}
	}
}

// ForName resolves a language by its manifest tag, case-insensitively.
// Unknown tags fall back to a discovery-only language whose extension is the
// lowercased tag itself.
func ForName(name string) *Language {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil
	}
	if l, ok := Languages[key]; ok {
		return l
	}
	return &Language{Name: key, Extensions: []string{"." + key}}
}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
