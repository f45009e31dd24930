package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openaistack "github.com/lex00/openai-stack-go"
	"github.com/lex00/openai-stack-go/internal/config"
	"github.com/lex00/openai-stack-go/internal/validation"
)

func TestRunValidate_Text(t *testing.T) {
	var out bytes.Buffer
	err := runValidate(&out, config.Default(), nil, "text", validation.Options{SkipCfnLint: true})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "ai-app: validation passed")
	assert.Contains(t, out.String(), "ai-pipeline-v2: validation passed")
	assert.Contains(t, out.String(), "config WARNING: application.code_bucket")
}

func TestRunValidate_JSON(t *testing.T) {
	var out bytes.Buffer
	err := runValidate(&out, config.Default(), []string{"ai-app"}, "json", validation.Options{SkipCfnLint: true})
	require.NoError(t, err)

	var results []openaistack.ValidateResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Positive(t, results[0].Resources)
}

func TestOutputValidateResults_Failure(t *testing.T) {
	var out bytes.Buffer
	results := []openaistack.ValidateResult{{
		Stack:    "ai-app",
		Errors:   []string{"Fn: missing Code"},
		Warnings: []string{"Fn: missing Handler"},
	}}
	require.NoError(t, outputValidateResults(&out, results, nil, "text"))

	assert.Contains(t, out.String(), "ai-app: validation FAILED")
	assert.Contains(t, out.String(), "  ERROR: Fn: missing Code")
	assert.Contains(t, out.String(), "  WARNING: Fn: missing Handler")
}
