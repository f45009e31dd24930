package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	openaistack "github.com/lex00/openai-stack-go"
	"github.com/lex00/openai-stack-go/infra"
	"github.com/lex00/openai-stack-go/internal/config"
	"github.com/lex00/openai-stack-go/internal/deployed"
	"github.com/lex00/openai-stack-go/internal/differ"
	"github.com/lex00/openai-stack-go/internal/template"
)

type diffOptions struct {
	against     string
	deployed    bool
	stackName   string
	region      string
	format      string
	ignoreOrder bool
}

// fetchDeployed is replaced in tests.
var fetchDeployed = func(ctx context.Context, region, stackName string) (*openaistack.Template, error) {
	f, err := deployed.NewFromRegion(ctx, region)
	if err != nil {
		return nil, err
	}
	return f.Template(ctx, stackName)
}

func newDiffCmd() *cobra.Command {
	var opts diffOptions

	cmd := &cobra.Command{
		Use:   "diff <stack>",
		Short: "Compare a synthesized stack with a template file or the deployed stack",
		Long: `Diff synthesizes a stack and compares it semantically with a baseline.

The baseline is either a template file (--against) or the template
CloudFormation is currently running (--deployed). JSON and YAML baselines are
accepted, including YAML short-form intrinsics.

Examples:
    openai-stack diff ai-app --against dist/ai-app.template.json
    openai-stack diff ai-app --deployed --stack-name openai --region eu-west-1
    openai-stack diff ai-pipeline-v2 --deployed --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runDiff(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.against, "against", "", "Baseline template file")
	cmd.Flags().BoolVar(&opts.deployed, "deployed", false, "Compare with the deployed stack")
	cmd.Flags().StringVar(&opts.stackName, "stack-name", "", "Deployed stack name (default: first target's stack for the application, else the stack name)")
	cmd.Flags().StringVar(&opts.region, "region", "", "AWS region of the deployed stack")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.ignoreOrder, "ignore-order", false, "Ignore array element order")
	cmd.MarkFlagsMutuallyExclusive("against", "deployed")
	cmd.MarkFlagsOneRequired("against", "deployed")

	return cmd
}

func runDiff(ctx context.Context, w io.Writer, cfg *config.Config, stack string, opts diffOptions) error {
	s, err := infra.Lookup(cfg, stack)
	if err != nil {
		return err
	}

	candidate, err := template.Build(s)
	if err != nil {
		return fmt.Errorf("building %s: %w", s.Name, err)
	}

	var baseline *openaistack.Template
	switch {
	case opts.against != "":
		baseline, err = differ.LoadTemplate(opts.against)
	case opts.deployed:
		name, region := deployedStack(cfg, s.Name, opts)
		if ctx == nil {
			ctx = context.Background()
		}
		baseline, err = fetchDeployed(ctx, region, name)
	default:
		return fmt.Errorf("one of --against or --deployed is required")
	}
	if err != nil {
		return err
	}

	result, err := differ.Compare(baseline, candidate, differ.Options{IgnoreOrder: opts.ignoreOrder})
	if err != nil {
		return err
	}

	return outputDiffResult(w, s.Name, result, opts.format)
}

// deployedStack resolves where a stack runs. The pipeline deploys the
// application stack into the first target under the target's stack name;
// other stacks run under their own name.
func deployedStack(cfg *config.Config, stack string, opts diffOptions) (name, region string) {
	name, region = opts.stackName, opts.region
	if stack == cfg.Application.StackName && len(cfg.Targets) > 0 {
		if name == "" {
			name = cfg.Targets[0].StackName
		}
		if region == "" {
			region = cfg.Targets[0].Region
		}
	}
	if name == "" {
		name = stack
	}
	return name, region
}

func outputDiffResult(w io.Writer, stack string, result *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(struct {
			Stack    string                   `json:"stack"`
			Diff     openaistack.TemplateDiff `json:"diff"`
			Summary  openaistack.DiffSummary  `json:"summary"`
			Sections []string                 `json:"sections,omitempty"`
		}{stack, result.Diff, result.Summary, result.Sections}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Empty() {
			fmt.Fprintf(w, "%s: no differences\n", stack)
			return nil
		}
		fmt.Fprintf(w, "%s: %d added, %d removed, %d modified\n",
			stack, result.Summary.Added, result.Summary.Removed, result.Summary.Modified)
		for _, e := range result.Diff.Added {
			fmt.Fprintf(w, "  + %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(w, "  - %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(w, "  ~ %s (%s)\n", e.Resource, e.Type)
			for _, c := range e.Changes {
				fmt.Fprintf(w, "      %s\n", c)
			}
		}
		for _, s := range result.Sections {
			fmt.Fprintf(w, "  %s\n", s)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
