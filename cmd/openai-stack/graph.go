package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/openai-stack-go/infra"
	"github.com/lex00/openai-stack-go/internal/config"
	"github.com/lex00/openai-stack-go/internal/graph"
)

func newGraphCmd() *cobra.Command {
	var (
		outputFormat      string
		includeParameters bool
		clusterByType     bool
	)

	cmd := &cobra.Command{
		Use:   "graph <stack>",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing resource dependencies.

The output can be rendered with Graphviz:
    openai-stack graph ai-app | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    openai-stack graph ai-app -f mermaid

Examples:
    openai-stack graph ai-app
    openai-stack graph ai-app -p              # include parameters
    openai-stack graph ai-pipeline-v2 -c      # cluster by service`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runGraph(cmd.OutOrStdout(), cfg, args[0], outputFormat, includeParameters, clusterByType)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().BoolVarP(&clusterByType, "cluster", "c", false, "Cluster resources by AWS service type")

	return cmd
}

func runGraph(w io.Writer, cfg *config.Config, stack, format string, includeParams, cluster bool) error {
	s, err := infra.Lookup(cfg, stack)
	if err != nil {
		return err
	}

	graphFormat, err := graph.ParseFormat(format)
	if err != nil {
		return err
	}

	gen := &graph.Generator{
		Format:            graphFormat,
		IncludeParameters: includeParams,
		ClusterByType:     cluster,
	}

	return gen.Generate(s, w)
}
