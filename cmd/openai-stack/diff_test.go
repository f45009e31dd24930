package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openaistack "github.com/lex00/openai-stack-go"
	"github.com/lex00/openai-stack-go/internal/config"
)

func TestNewDiffCmd(t *testing.T) {
	cmd := newDiffCmd()

	assert.Equal(t, "diff <stack>", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	for _, name := range []string{"against", "deployed", "stack-name", "region", "format", "ignore-order"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing --%s flag", name)
	}
}

func writeBaseline(t *testing.T, cfg *config.Config) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, runBuild(&bytes.Buffer{}, cfg, []string{cfg.Application.StackName}, "json", dir))
	return filepath.Join(dir, cfg.Application.StackName+".template.json")
}

func TestRunDiff_AgainstFile_NoChanges(t *testing.T) {
	cfg := config.Default()
	baseline := writeBaseline(t, cfg)

	var out bytes.Buffer
	require.NoError(t, runDiff(context.Background(), &out, cfg, "ai-app", diffOptions{against: baseline, format: "text"}))
	assert.Equal(t, "ai-app: no differences\n", out.String())
}

func TestRunDiff_AgainstFile_Modified(t *testing.T) {
	baseline := writeBaseline(t, config.Default())

	cfg := config.Default()
	cfg.Application.MemorySize = 256

	var out bytes.Buffer
	require.NoError(t, runDiff(context.Background(), &out, cfg, "ai-app", diffOptions{against: baseline, format: "json"}))

	var result struct {
		Diff    openaistack.TemplateDiff `json:"diff"`
		Summary openaistack.DiffSummary  `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 1, result.Summary.Modified)
	require.Len(t, result.Diff.Modified, 1)
	assert.Equal(t, "CompletionFunction", result.Diff.Modified[0].Resource)
	assert.Contains(t, result.Diff.Modified[0].Changes[0], "MemorySize")
}

func TestRunDiff_Deployed(t *testing.T) {
	cfg := config.Default()
	saved := fetchDeployed
	t.Cleanup(func() { fetchDeployed = saved })

	var gotRegion, gotStack string
	fetchDeployed = func(_ context.Context, region, stackName string) (*openaistack.Template, error) {
		gotRegion, gotStack = region, stackName
		return &openaistack.Template{
			AWSTemplateFormatVersion: "2010-09-09",
			Resources: map[string]openaistack.ResourceDef{
				"Legacy": {Type: "AWS::S3::Bucket"},
			},
		}, nil
	}
	var out bytes.Buffer
	err := runDiff(context.Background(), &out, cfg, "ai-app", diffOptions{deployed: true, stackName: "openai", region: "eu-west-1", format: "text"})
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", gotRegion)
	assert.Equal(t, "openai", gotStack)
	assert.Contains(t, out.String(), "  - Legacy (AWS::S3::Bucket)")
	assert.Contains(t, out.String(), "  + CompletionFunction (AWS::Lambda::Function)")
}

func TestRunDiff_DeployedDefaults(t *testing.T) {
	saved := fetchDeployed
	t.Cleanup(func() { fetchDeployed = saved })

	var gotRegion, gotStack string
	fetchDeployed = func(_ context.Context, region, stackName string) (*openaistack.Template, error) {
		gotRegion, gotStack = region, stackName
		return &openaistack.Template{}, nil
	}

	tests := []struct {
		name       string
		stack      string
		opts       diffOptions
		wantStack  string
		wantRegion string
	}{
		{"application uses first target", "ai-app", diffOptions{}, "openai", "eu-west-1"},
		{"flags override target", "ai-app", diffOptions{stackName: "openai-blue", region: "us-east-1"}, "openai-blue", "us-east-1"},
		{"pipeline uses its own name", "ai-pipeline-v2", diffOptions{}, "ai-pipeline-v2", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.deployed, opts.format = true, "text"
			require.NoError(t, runDiff(context.Background(), &bytes.Buffer{}, config.Default(), tt.stack, opts))
			assert.Equal(t, tt.wantStack, gotStack)
			assert.Equal(t, tt.wantRegion, gotRegion)
		})
	}
}

func TestDeployedStack_NoTargets(t *testing.T) {
	cfg := config.Default()
	cfg.Targets = nil

	name, region := deployedStack(cfg, "ai-app", diffOptions{})
	assert.Equal(t, "ai-app", name)
	assert.Empty(t, region)
}

func TestRunDiff_RequiresBaseline(t *testing.T) {
	err := runDiff(context.Background(), &bytes.Buffer{}, config.Default(), "ai-app", diffOptions{format: "text"})
	assert.Error(t, err)
}
