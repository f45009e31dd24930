package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	openaistack "github.com/lex00/openai-stack-go"
	"github.com/lex00/openai-stack-go/infra"
	"github.com/lex00/openai-stack-go/internal/config"
	"github.com/lex00/openai-stack-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking stacks.
func newValidateCmd() *cobra.Command {
	var (
		outputFormat string
		skipCfnLint  bool
	)

	cmd := &cobra.Command{
		Use:   "validate [stacks...]",
		Short: "Validate stacks and their templates",
		Long: `Validate synthesizes each stack and checks it for issues.

Checks performed:
  - Reference validity: every Ref, GetAtt and Sub points to a declared resource,
    parameter or pseudo-parameter
  - Dependency graph: no cycles, explicit DependsOn targets exist
  - Structure: required properties of functions, methods, projects and pipelines
  - cfn-lint: schema validation of the synthesized template

Examples:
    openai-stack validate
    openai-stack validate ai-app --format json
    openai-stack validate --skip-cfn-lint`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runValidate(cmd.OutOrStdout(), cfg, args, outputFormat, validation.Options{SkipCfnLint: skipCfnLint})
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&skipCfnLint, "skip-cfn-lint", false, "Skip cfn-lint template validation")

	return cmd
}

func runValidate(w io.Writer, cfg *config.Config, names []string, format string, opts validation.Options) error {
	stacks, err := infra.Select(cfg, names...)
	if err != nil {
		return err
	}

	results := make([]openaistack.ValidateResult, 0, len(stacks))
	success := true
	for _, s := range stacks {
		result := validation.ValidateStack(s, opts)
		success = success && result.Success
		results = append(results, result)
	}

	if err := outputValidateResults(w, results, cfg.Validate(), format); err != nil {
		return err
	}
	if !success {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func outputValidateResults(w io.Writer, results []openaistack.ValidateResult, configWarnings []string, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		for _, warn := range configWarnings {
			fmt.Fprintf(w, "config WARNING: %s\n", warn)
		}
		for _, result := range results {
			if result.Success {
				fmt.Fprintf(w, "%s: validation passed, %d resources OK\n", result.Stack, result.Resources)
			} else {
				fmt.Fprintf(w, "%s: validation FAILED:\n", result.Stack)
			}
			for _, errMsg := range result.Errors {
				fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
			}
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
