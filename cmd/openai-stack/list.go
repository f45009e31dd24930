package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	openaistack "github.com/lex00/openai-stack-go"
	"github.com/lex00/openai-stack-go/infra"
	"github.com/lex00/openai-stack-go/internal/config"
)

func newListCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list [stacks...]",
		Short: "List declared resources",
		Long: `List displays the resources declared in each stack, in declaration order.

Examples:
    openai-stack list
    openai-stack list ai-app --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runList(cmd.OutOrStdout(), cfg, args, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runList(w io.Writer, cfg *config.Config, names []string, format string) error {
	stacks, err := infra.Select(cfg, names...)
	if err != nil {
		return err
	}

	listResult := openaistack.ListResult{Resources: []openaistack.ListResource{}}
	for _, s := range stacks {
		for _, name := range s.LogicalNames() {
			r, _ := s.Resource(name)
			listResult.Resources = append(listResult.Resources, openaistack.ListResource{
				Stack: s.Name,
				Name:  name,
				Type:  r.ResourceType(),
			})
		}
	}

	return outputListResult(w, listResult, format)
}

func outputListResult(w io.Writer, result openaistack.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		current := ""
		for _, res := range result.Resources {
			if res.Stack != current {
				if current != "" {
					fmt.Fprintln(w)
				}
				current = res.Stack
				fmt.Fprintf(w, "%s (%d resources):\n", current, countStack(result.Resources, current))
			}
			fmt.Fprintf(w, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}

func countStack(resources []openaistack.ListResource, stack string) int {
	n := 0
	for _, r := range resources {
		if r.Stack == stack {
			n++
		}
	}
	return n
}
