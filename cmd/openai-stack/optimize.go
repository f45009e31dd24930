package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	openaistack "github.com/lex00/openai-stack-go"
	"github.com/lex00/openai-stack-go/infra"
	"github.com/lex00/openai-stack-go/internal/config"
	"github.com/lex00/openai-stack-go/internal/optimizer"
	"github.com/lex00/openai-stack-go/internal/template"
)

// newOptimizeCmd creates the "optimize" subcommand for suggesting improvements.
func newOptimizeCmd() *cobra.Command {
	var (
		outputFormat string
		category     string
	)

	cmd := &cobra.Command{
		Use:   "optimize [stacks...]",
		Short: "Suggest improvements to the synthesized templates",
		Long: `Optimize inspects the synthesized templates and suggests improvements
for security, cost, performance, and reliability.

Categories:
    security     - secrets in plain environment variables, wildcard IAM actions, open methods
    cost         - architecture, timeouts beyond the API Gateway limit, build sizing
    performance  - tracing
    reliability  - change set review

Examples:
    openai-stack optimize
    openai-stack optimize ai-app --category security
    openai-stack optimize -f json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !optimizer.ValidCategory(category) {
				return fmt.Errorf("invalid category: %s (valid: %s)", category, strings.Join(optimizer.Categories, ", "))
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runOptimize(cmd.OutOrStdout(), cfg, args, outputFormat, category)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&category, "category", "c", "all", "Category: all, security, cost, performance, or reliability")

	return cmd
}

// runOptimize synthesizes the stacks and collects suggestions.
func runOptimize(w io.Writer, cfg *config.Config, names []string, format, category string) error {
	stacks, err := infra.Select(cfg, names...)
	if err != nil {
		return err
	}

	result := openaistack.OptimizeResult{
		Success:     true,
		Suggestions: []openaistack.OptimizeSuggestion{},
	}
	for _, s := range stacks {
		tmpl, err := template.Build(s)
		if err != nil {
			return fmt.Errorf("optimize failed: building %s: %w", s.Name, err)
		}
		opt := optimizer.Optimize(s.Name, tmpl, optimizer.Options{Category: category})
		result.Suggestions = append(result.Suggestions, opt.Suggestions...)
		result.ResourceCount += len(tmpl.Resources)
	}
	result.Summary = summarize(result.Suggestions)

	return outputOptimizeResult(w, result, format)
}

func summarize(suggestions []openaistack.OptimizeSuggestion) openaistack.OptimizeSummary {
	var s openaistack.OptimizeSummary
	for _, sg := range suggestions {
		switch sg.Category {
		case "security":
			s.Security++
		case "cost":
			s.Cost++
		case "performance":
			s.Performance++
		case "reliability":
			s.Reliability++
		}
	}
	s.Total = len(suggestions)
	return s
}

func outputOptimizeResult(w io.Writer, result openaistack.OptimizeResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Suggestions) == 0 {
			fmt.Fprintf(w, "Analyzed %d resources. No optimization suggestions.\n", result.ResourceCount)
			return nil
		}

		fmt.Fprintf(w, "Analyzed %d resources. Found %d suggestions:\n\n", result.ResourceCount, result.Summary.Total)

		byCat := map[string][]openaistack.OptimizeSuggestion{}
		for _, s := range result.Suggestions {
			byCat[s.Category] = append(byCat[s.Category], s)
		}

		for _, cat := range optimizer.Categories[1:] {
			suggestions := byCat[cat]
			if len(suggestions) == 0 {
				continue
			}

			fmt.Fprintf(w, "=== %s (%d) ===\n", strings.ToUpper(cat[:1])+cat[1:], len(suggestions))
			for _, s := range suggestions {
				fmt.Fprintf(w, "\n[%s] %s %s\n", s.Severity, s.Rule, s.Title)
				fmt.Fprintf(w, "  Resource: %s/%s\n", s.Stack, s.Resource)
				fmt.Fprintf(w, "  %s\n", s.Description)
				fmt.Fprintf(w, "  Suggestion: %s\n", s.Suggestion)
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "Summary: %d security, %d cost, %d performance, %d reliability\n",
			result.Summary.Security, result.Summary.Cost,
			result.Summary.Performance, result.Summary.Reliability)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
