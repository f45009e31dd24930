package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	openaistack "github.com/lex00/openai-stack-go"
	"github.com/lex00/openai-stack-go/internal/config"
)

func TestNewBuildCmd(t *testing.T) {
	cmd := newBuildCmd()

	assert.Equal(t, "build [stacks...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	require.NotNil(t, cmd.Flags().Lookup("format"))
	require.NotNil(t, cmd.Flags().Lookup("output"))
	assert.Equal(t, "json", cmd.Flags().Lookup("format").DefValue)
}

func TestRunBuild_SingleStackToStdout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runBuild(&out, config.Default(), []string{"ai-app"}, "json", ""))

	var tmpl openaistack.Template
	require.NoError(t, json.Unmarshal(out.Bytes(), &tmpl))
	assert.Equal(t, "2010-09-09", tmpl.AWSTemplateFormatVersion)
	require.Contains(t, tmpl.Resources, "CompletionFunction")
	assert.Equal(t, "AWS::Lambda::Function", tmpl.Resources["CompletionFunction"].Type)
}

func TestRunBuild_YAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runBuild(&out, config.Default(), []string{"ai-app"}, "yaml", ""))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Contains(t, doc, "Resources")
}

func TestRunBuild_AllStacksToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	cfg := config.Default()

	var out bytes.Buffer
	require.NoError(t, runBuild(&out, cfg, nil, "json", dir))

	for _, name := range []string{cfg.Application.StackName, cfg.Pipeline.StackName} {
		path := filepath.Join(dir, name+".template.json")
		_, err := os.Stat(path)
		assert.NoError(t, err, "expected %s", path)
		assert.Contains(t, out.String(), path)
	}
}

func TestRunBuild_UnknownStack(t *testing.T) {
	err := runBuild(&bytes.Buffer{}, config.Default(), []string{"nope"}, "json", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stack")
}

func TestRunBuild_UnknownFormat(t *testing.T) {
	err := runBuild(&bytes.Buffer{}, config.Default(), []string{"ai-app"}, "toml", "")
	require.Error(t, err)
}

func TestTemplatePath(t *testing.T) {
	assert.Equal(t, filepath.Join("dist", "ai-app.template.yaml"), templatePath("dist", "ai-app", "yaml"))
	assert.Equal(t, filepath.Join("dist", "ai-app.template.json"), templatePath("dist", "ai-app", ""))
	assert.True(t, strings.HasSuffix(templatePath(".", "x", "yml"), "x.template.yml"))
}
