package extract

import (
	"errors"
	"strings"
	"testing"

	"mcpaudit/internal/model"
)

func mustExtract(t *testing.T, source string) []model.ToolFunction {
	t.Helper()
	tools, err := New("").Extract([]byte(source))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return tools
}

func TestExtractMarkedAmongUnmarked(t *testing.T) {
	t.Parallel()

	source := `import mcp

def plain_one():
    pass

@mcp.tool()
def tool_one():
    pass

@other.decorator
def plain_two():
    pass

@mcp.tool
async def tool_two():
    pass

def plain_three():
    return 1

@mcp.tool()
def tool_three(x):
    return x
`
	tools := mustExtract(t, source)
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}

	want := []struct {
		name string
		line int
	}{
		{"tool_one", 7},
		{"tool_two", 15},
		{"tool_three", 22},
	}
	for i, w := range want {
		if tools[i].Name != w.name {
			t.Errorf("tools[%d].Name = %q, want %q", i, tools[i].Name, w.name)
		}
		if tools[i].StartLine != w.line {
			t.Errorf("tools[%d].StartLine = %d, want %d", i, tools[i].StartLine, w.line)
		}
	}
}

func TestMarkerResolutionEquivalence(t *testing.T) {
	t.Parallel()

	// Bare attribute, called attribute, and (via alias) bare identifier must
	// be recognized by structural shape, not raw text.
	tests := []struct {
		name      string
		marker    string
		decorator string
		want      bool
	}{
		{"called attribute", "mcp.tool", "@mcp.tool()", true},
		{"called attribute with args", "mcp.tool", `@mcp.tool(name="x")`, true},
		{"bare attribute", "mcp.tool", "@mcp.tool", true},
		{"bare identifier", "tool", "@tool", true},
		{"called identifier", "tool", "@tool()", true},
		{"chained attribute", "app.mcp.tool", "@app.mcp.tool()", true},
		{"different name", "mcp.tool", "@mcp.resource()", false},
		{"prefix only", "mcp.tool", "@mcp.tools()", false},
		{"unresolvable shape", "mcp.tool", "@decorators[0].tool", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			source := tt.decorator + "\ndef f():\n    pass\n"
			tools, err := New(tt.marker).Extract([]byte(source))
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got := len(tools) == 1; got != tt.want {
				t.Errorf("marked = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUndecoratedNeverMarked(t *testing.T) {
	t.Parallel()

	tools := mustExtract(t, "def f():\n    pass\n")
	if len(tools) != 0 {
		t.Fatalf("expected no tools, got %d", len(tools))
	}
}

func TestDuplicateMarkerRecordsOnce(t *testing.T) {
	t.Parallel()

	source := `@mcp.tool()
@mcp.tool
def f():
    pass
`
	tools := mustExtract(t, source)
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
}

func TestNestedAndDuplicateNames(t *testing.T) {
	t.Parallel()

	source := `@mcp.tool()
def handler():
    pass

class Service:
    @mcp.tool()
    def handler(self):
        @mcp.tool()
        def handler():
            pass
        return handler
`
	tools := mustExtract(t, source)
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}
	// Same name three times; (FilePath, StartLine) is the disambiguation key.
	lines := map[int]bool{}
	for _, tool := range tools {
		if tool.Name != "handler" {
			t.Errorf("Name = %q, want handler", tool.Name)
		}
		lines[tool.StartLine] = true
	}
	for _, want := range []int{2, 7, 9} {
		if !lines[want] {
			t.Errorf("missing tool at line %d (got %v)", want, lines)
		}
	}
}

func TestSourceSpanIncludesDecorators(t *testing.T) {
	t.Parallel()

	source := `@first(
    option=1,
)
@mcp.tool()
def f():
    return 1
`
	tools := mustExtract(t, source)
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	want := `@first(
    option=1,
)
@mcp.tool()
def f():
    return 1`
	if tools[0].SourceCode != want {
		t.Errorf("SourceCode =\n%s\nwant:\n%s", tools[0].SourceCode, want)
	}
}

func TestDocstring(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"triple quoted", `    """Adds two numbers."""` + "\n    pass", "Adds two numbers."},
		{"single quoted", `    'short'` + "\n    pass", "short"},
		{"multiline", "    \"\"\"Summary.\n\n    Details here.\n    \"\"\"\n    pass", "Summary.\n\nDetails here."},
		{"absent", "    x = 1", ""},
		{"non-literal first statement", "    compute()\n    \"\"\"not a docstring\"\"\"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			source := "@mcp.tool()\ndef f():\n" + tt.body + "\n"
			tools := mustExtract(t, source)
			if len(tools) != 1 {
				t.Fatalf("expected 1 tool, got %d", len(tools))
			}
			if tools[0].Docstring != tt.want {
				t.Errorf("Docstring = %q, want %q", tools[0].Docstring, tt.want)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	t.Parallel()

	source := `@mcp.tool()
def f(a, b: int, c: str = "x", *args, **kwargs) -> dict[str, int]:
    pass
`
	tools := mustExtract(t, source)
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	sig := tools[0].Signature

	want := []model.Param{
		{Name: "a"},
		{Name: "b", Type: "int"},
		{Name: "c", Type: "str"},
		{Name: "*args"},
		{Name: "**kwargs"},
	}
	if len(sig.Params) != len(want) {
		t.Fatalf("got %d params (%v), want %d", len(sig.Params), sig.Params, len(want))
	}
	for i, w := range want {
		if sig.Params[i] != w {
			t.Errorf("param %d = %+v, want %+v", i, sig.Params[i], w)
		}
	}
	if sig.ReturnType != "dict[str, int]" {
		t.Errorf("ReturnType = %q, want dict[str, int]", sig.ReturnType)
	}
}

func TestAsyncFunction(t *testing.T) {
	t.Parallel()

	source := `@mcp.tool()
async def fetch(url: str) -> str:
    """Fetches a URL."""
    return url
`
	tools := mustExtract(t, source)
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].Name != "fetch" {
		t.Errorf("Name = %q, want fetch", tools[0].Name)
	}
	if !strings.HasPrefix(tools[0].SourceCode, "@mcp.tool()\nasync def fetch") {
		t.Errorf("SourceCode missing async def: %q", tools[0].SourceCode)
	}
}

func TestParseError(t *testing.T) {
	t.Parallel()

	_, err := New("").Extract([]byte("def broken(:\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error is %T, want *ParseError", err)
	}
	if !strings.Contains(err.Error(), "syntax error") {
		t.Errorf("error = %v, want syntax error", err)
	}
}

func TestEmptySource(t *testing.T) {
	t.Parallel()

	tools := mustExtract(t, "")
	if len(tools) != 0 {
		t.Fatalf("expected no tools, got %d", len(tools))
	}
}
