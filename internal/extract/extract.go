// Package extract locates marker-decorated tool functions in Python source
// using tree-sitter.
package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"mcpaudit/internal/lang"
	"mcpaudit/internal/model"
)

// DefaultMarker is the qualified decorator name that exposes a function as an
// agent-invocable tool.
const DefaultMarker = "mcp.tool"

// ParseError indicates the source is not syntactically valid Python.
// Callers decide whether to skip the file or abort.
type ParseError struct {
	Line int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("python syntax error near line %d", e.Line)
	}
	return "python syntax error"
}

// Extractor finds functions carrying the configured marker decorator.
type Extractor struct {
	marker string
}

// New creates an extractor matching the given qualified marker name.
// An empty marker falls back to DefaultMarker.
func New(marker string) *Extractor {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Extractor{marker: marker}
}

// Marker returns the configured qualified marker name.
func (e *Extractor) Marker() string {
	return e.marker
}

// Extract parses source and returns one record per marked function, in
// source order. Synchronous and asynchronous defs are treated uniformly.
// A *ParseError is returned when the source does not parse.
func (e *Extractor) Extract(source []byte) ([]model.ToolFunction, error) {
	py := lang.Languages["python"]
	parser := py.NewParser()
	defer parser.Close()

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, &ParseError{}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{Line: firstErrorLine(root)}
	}

	lines := strings.Split(string(source), "\n")

	var tools []model.ToolFunction
	walk(root, func(node *sitter.Node) {
		if node.Type() != "function_definition" {
			return
		}
		decorators := decoratorsOf(node)
		if !e.isMarked(decorators, source) {
			return
		}
		tools = append(tools, model.ToolFunction{
			Name:       functionName(node, source),
			StartLine:  int(node.StartPoint().Row) + 1,
			Docstring:  docstring(node, source),
			SourceCode: sourceSpan(node, decorators, lines),
			Signature:  signature(node, source),
		})
	})

	return tools, nil
}

// isMarked reports whether any decorator resolves to the configured marker.
func (e *Extractor) isMarked(decorators []*sitter.Node, source []byte) bool {
	for _, d := range decorators {
		if expr := d.NamedChild(0); expr != nil && resolveName(expr, source) == e.marker {
			return true
		}
	}
	return false
}

// resolveName reduces a decorator expression to a dotted qualified name.
// Call expressions resolve through their callee, attribute access through
// base.attribute, bare identifiers to themselves. Any other shape resolves
// to the empty string and never matches a marker.
func resolveName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "call":
		if fn := node.ChildByFieldName("function"); fn != nil {
			return resolveName(fn, source)
		}
	case "attribute":
		obj := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		if obj != nil && attr != nil {
			return resolveName(obj, source) + "." + lang.NodeText(attr, source)
		}
	case "identifier":
		return lang.NodeText(node, source)
	}
	return ""
}

// decoratorsOf returns the decorator nodes attached to a function definition,
// in source order. Undecorated functions yield nil.
func decoratorsOf(fn *sitter.Node) []*sitter.Node {
	parent := fn.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return nil
	}
	var decorators []*sitter.Node
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		if child.Type() == "decorator" {
			decorators = append(decorators, child)
		}
	}
	return decorators
}

func functionName(fn *sitter.Node, source []byte) string {
	if name := fn.ChildByFieldName("name"); name != nil {
		return lang.NodeText(name, source)
	}
	return ""
}

// sourceSpan joins the raw lines of every decorator (each decorator's own
// line range taken independently) followed by the function's own lines.
// Decorators are not assumed contiguous with each other or with the def.
func sourceSpan(fn *sitter.Node, decorators []*sitter.Node, lines []string) string {
	var span []string
	for _, d := range decorators {
		span = append(span, nodeLines(d, lines)...)
	}
	span = append(span, nodeLines(fn, lines)...)
	return strings.Join(span, "\n")
}

// nodeLines returns the raw source lines covered by node, inclusive.
func nodeLines(node *sitter.Node, lines []string) []string {
	start := int(node.StartPoint().Row)
	end := int(node.EndPoint().Row)
	// A node ending at column 0 stops before that row's content.
	if node.EndPoint().Column == 0 && end > start {
		end--
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	return lines[start : end+1]
}

// docstring returns the function's leading docstring, or "" when the first
// body statement is not a bare string literal.
func docstring(fn *sitter.Node, source []byte) string {
	body := fn.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() != 1 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return cleanDocstring(stripStringLiteral(lang.NodeText(str, source)))
}

// stripStringLiteral removes string prefixes (r, b, u, f in any case or
// combination) and the surrounding quotes from a Python string literal.
func stripStringLiteral(s string) string {
	i := 0
	for i < len(s) && strings.ContainsRune("rbufRBUF", rune(s[i])) {
		i++
	}
	s = s[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// cleanDocstring normalizes indentation the way inspect.cleandoc does:
// the first line is trimmed, remaining lines lose their common leading
// whitespace, and surrounding blank lines are dropped.
func cleanDocstring(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return strings.TrimSpace(s)
	}

	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	out := []string{strings.TrimSpace(lines[0])}
	for _, line := range lines[1:] {
		if margin > 0 && len(line) >= margin {
			line = line[margin:]
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}

	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// signature collects parameters in declaration order with their unparsed
// annotation text, plus the return annotation if present.
func signature(fn *sitter.Node, source []byte) model.Signature {
	sig := model.Signature{Params: []model.Param{}}

	if params := fn.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			switch p.Type() {
			case "identifier":
				sig.Params = append(sig.Params, model.Param{Name: lang.NodeText(p, source)})
			case "typed_parameter":
				param := model.Param{Name: parameterName(p, source)}
				if typ := p.ChildByFieldName("type"); typ != nil {
					param.Type = lang.NodeText(typ, source)
				}
				sig.Params = append(sig.Params, param)
			case "default_parameter", "typed_default_parameter":
				param := model.Param{}
				if name := p.ChildByFieldName("name"); name != nil {
					param.Name = lang.NodeText(name, source)
				}
				if typ := p.ChildByFieldName("type"); typ != nil {
					param.Type = lang.NodeText(typ, source)
				}
				sig.Params = append(sig.Params, param)
			case "list_splat_pattern", "dictionary_splat_pattern":
				sig.Params = append(sig.Params, model.Param{Name: lang.NodeText(p, source)})
			}
		}
	}

	if ret := fn.ChildByFieldName("return_type"); ret != nil {
		sig.ReturnType = lang.NodeText(ret, source)
	}
	return sig
}

// parameterName digs the identifier out of a typed_parameter, whose name is
// a pattern child rather than a named field.
func parameterName(p *sitter.Node, source []byte) string {
	for i := 0; i < int(p.NamedChildCount()); i++ {
		child := p.NamedChild(i)
		switch child.Type() {
		case "identifier", "list_splat_pattern", "dictionary_splat_pattern":
			return lang.NodeText(child, source)
		}
	}
	return ""
}

// walk visits every node in the tree in document order.
func walk(node *sitter.Node, visit func(*sitter.Node)) {
	visit(node)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), visit)
	}
}

func firstErrorLine(root *sitter.Node) int {
	line := 0
	walk(root, func(n *sitter.Node) {
		if line == 0 && (n.Type() == "ERROR" || n.IsMissing()) {
			line = int(n.StartPoint().Row) + 1
		}
	})
	return line
}
