// Command openai-stack synthesizes the CloudFormation templates for the OpenAI
// completion application and its delivery pipeline.
//
// Usage:
//
//	openai-stack build -o dist        Write every stack template
//	openai-stack list                 List resources per stack
//	openai-stack graph ai-app         Render the dependency graph
//	openai-stack validate             Check references, structure and lint
//	openai-stack diff ai-app --deployed   Compare with the running stack
//	openai-stack optimize             Suggest improvements
//	openai-stack version              Show version
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/openai-stack-go/internal/config"
	"github.com/lex00/openai-stack-go/internal/logging"
)

// Set by the persistent --config and --log-level flags.
var (
	configPath string
	logLevel   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "openai-stack",
		Short: "Synthesize CloudFormation templates for the OpenAI completion stacks",
		Long: `openai-stack synthesizes the CloudFormation templates that deploy the
OpenAI completion function and the pipeline that delivers it.

Stacks are declared as Go values and configured through openai-stack.yaml:

    application:
      stack_name: ai-app
      api_key_parameter: OPEN_AI_API_KEY

Then generate the templates:

    openai-stack build -o dist`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.InitWith(logging.Options{Level: logLevel})
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newBuildCmd(),
		newListCmd(),
		newGraphCmd(),
		newValidateCmd(),
		newDiffCmd(),
		newOptimizeCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// loadConfig reads the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.InitWith(logOptions(logLevel, cfg.Log))
	for _, w := range cfg.Validate() {
		slog.Debug("config warning", "warning", w)
	}
	return cfg, nil
}

// logOptions resolves logger settings: the --log-level flag, then LOG_LEVEL
// and LOG_FORMAT, then the log section of the config file.
func logOptions(flagLevel string, lc config.LogConfig) logging.Options {
	o := logging.Options{Level: flagLevel, Format: os.Getenv("LOG_FORMAT")}
	if o.Level == "" {
		o.Level = os.Getenv("LOG_LEVEL")
	}
	if o.Level == "" {
		o.Level = lc.Level
	}
	if o.Format == "" {
		o.Format = lc.Format
	}
	return o
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "openai-stack %s\n", getVersion())
		},
	}
}
