package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const starterConfig = `# mcpaudit configuration. Values may also be supplied through MCPAUDIT_*
# environment variables or a local .env file.

# Completion service.
provider: openai
base_url: https://openrouter.ai/api/v1
model: anthropic/claude-3.7-sonnet
# api_key: sk-...            # prefer OPENAI_API_KEY in .env

# Decorator that marks a function as an agent-invocable tool.
marker: mcp.tool

# Concurrency and throttling.
max_concurrency: 10
requests_per_second: 0       # 0 disables client-side throttling

# Batch mode inputs.
repos_root: mcp_repos
manifest: repos.csv
`

const starterDotenv = `OPENAI_API_KEY=
# BASE_URL=https://openrouter.ai/api/v1
`

// newInitCommand scaffolds a starter config.yaml and .env.example in the
// working directory.
func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config.yaml and .env.example",
		RunE: func(cmd *cobra.Command, args []string) error {
			files := map[string]string{
				"config.yaml":  starterConfig,
				".env.example": starterDotenv,
			}
			for _, name := range []string{"config.yaml", ".env.example"} {
				if err := writeStarterFile(cmd, name, files[name], force); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func writeStarterFile(cmd *cobra.Command, path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s already exists, skipping (use --force to overwrite)\n", path)
			return nil
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
