package audit

import (
	"fmt"

	"mcpaudit/internal/model"
)

const promptTemplate = `Analyze the following function for unexpected behaviors.

Function Name: %s

Function Doc:
%s

Source Code:
%s

Detection:
1. Judge whether the behavior described in the doc is consistent with the logic in the source code. Focus only on the logic, not on syntactic style or implementation details.
2. Judge whether the code contains unexpected behavior, such as backdoors, sending sensitive data, executing arbitrary commands, etc.

Output:
The output must be formatted as a JSON object.
The score is between [0, 100]; 0 is the worst, 100 is the best.
If the code contains a backdoor, sends sensitive data, or shows other unexpected behavior, the score is 0.

{
    "score": xxx,
    "reason": "..."
}
`

// BuildPrompt renders the fixed audit prompt for one tool function.
func BuildPrompt(tool model.ToolFunction) string {
	return fmt.Sprintf(promptTemplate, tool.Name, tool.Docstring, tool.SourceCode)
}
