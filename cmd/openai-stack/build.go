package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	openaistack "github.com/lex00/openai-stack-go"
	"github.com/lex00/openai-stack-go/infra"
	"github.com/lex00/openai-stack-go/internal/config"
	"github.com/lex00/openai-stack-go/internal/template"
	"github.com/lex00/openai-stack-go/internal/validation"
)

func newBuildCmd() *cobra.Command {
	var (
		outputFormat string
		outputDir    string
	)

	cmd := &cobra.Command{
		Use:   "build [stacks...]",
		Short: "Generate CloudFormation templates",
		Long: `Build synthesizes CloudFormation templates for the named stacks, or for
every stack when none are named.

A single stack without --output is written to stdout. Otherwise each stack is
written to <dir>/<stack>.template.<format>.

Examples:
    openai-stack build ai-app
    openai-stack build -o dist
    openai-stack build ai-pipeline-v2 --format yaml -o dist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runBuild(cmd.OutOrStdout(), cfg, args, outputFormat, outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: stdout for one stack, . otherwise)")

	return cmd
}

func runBuild(w io.Writer, cfg *config.Config, names []string, format, outputDir string) error {
	stacks, err := infra.Select(cfg, names...)
	if err != nil {
		return err
	}

	results := make([]openaistack.BuildResult, 0, len(stacks))
	failed := false
	for _, s := range stacks {
		result := buildStack(s)
		if !result.Success {
			failed = true
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "%s: %s\n", result.Stack, e)
			}
		}
		results = append(results, result)
	}
	if failed {
		return fmt.Errorf("build failed")
	}

	if len(results) == 1 && outputDir == "" {
		data, err := template.Marshal(&results[0].Template, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", outputDir, err)
	}
	for _, result := range results {
		path, err := writeTemplate(outputDir, result, format)
		if err != nil {
			return err
		}
		slog.Debug("template written", "stack", result.Stack, "resources", len(result.Resources))
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
	return nil
}

// buildStack synthesizes one stack into a BuildResult.
func buildStack(s *openaistack.Stack) openaistack.BuildResult {
	tmpl, err := template.Build(s)
	if err != nil {
		return openaistack.BuildResult{
			Success: false,
			Stack:   s.Name,
			Errors:  validation.ErrorList(err),
		}
	}
	return openaistack.BuildResult{
		Success:   true,
		Stack:     s.Name,
		Template:  *tmpl,
		Resources: s.LogicalNames(),
	}
}

// templatePath returns <dir>/<stack>.template.<ext>.
func templatePath(dir, stack, format string) string {
	ext := format
	if ext == "" {
		ext = "json"
	}
	return filepath.Join(dir, stack+".template."+ext)
}

func writeTemplate(dir string, result openaistack.BuildResult, format string) (string, error) {
	data, err := template.Marshal(&result.Template, format)
	if err != nil {
		return "", err
	}
	path := templatePath(dir, result.Stack, format)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
