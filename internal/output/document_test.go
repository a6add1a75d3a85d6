package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ancients-collective/guardrail/internal/initiative"
	"github.com/ancients-collective/guardrail/internal/types"
)

func newTestDocument() *initiative.Document {
	return &initiative.Document{
		Name:             "Prod-Sub-ParamsOptional-Audit",
		SubscriptionName: "prod-sub",
		Enforce:          false,
		EnforcementMode:  "false",
		Category:         "Testing",
		PolicyIDPairs: map[string]map[string]types.PolicyRef{
			"Storage": {
				"404c3081-a854-4457-ae30-26a93ef643f9": {
					DisplayName: "Secure transfer to storage accounts should be enabled",
					ShortID:     "404c3081-a854-4457-ae30-26a93ef643f9",
				},
			},
		},
		ParameterBlocks: map[string]map[string]map[string]initiative.ParameterValue{
			"Storage": {
				"Secure transfer to storage accounts should be enabled": {
					"effect": {ParameterName: "effect", ParameterValue: `""`},
				},
			},
		},
	}
}

func TestWriteDocument(t *testing.T) {
	doc := newTestDocument()
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, doc))

	want, err := json.Marshal(doc.Mapping())
	require.NoError(t, err)
	assert.JSONEq(t, string(want), buf.String())
	assert.Contains(t, buf.String(), "\n  \"name\": \"Prod-Sub-ParamsOptional-Audit\"")
	assert.NotContains(t, buf.String(), `"Enforce"`)
}

func TestWriteDocument_Nil(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteDocument(&buf, nil))
	assert.Zero(t, buf.Len())
}
