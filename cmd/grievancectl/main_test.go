package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCommandPrintsTriage(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"classify", "--title", "Transformer blew, power outage", "--category", "electricity"})

	require.NoError(t, rootCmd.Execute())

	var got struct {
		Triage struct {
			SuggestedUnit  string `json:"suggested_unit"`
			RulesetVersion string `json:"ruleset_version"`
		} `json:"triage"`
		ReasonCode string `json:"reason_code"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "electricity", got.Triage.SuggestedUnit)
	assert.Equal(t, "2024.1", got.Triage.RulesetVersion)
	assert.Empty(t, got.ReasonCode)
}
