package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ancients-collective/guardrail/internal/engine"
)

var services = []string{"Compute", "Storage", "Network", "Key Vault", "Kubernetes"}

func TestPrintSuggestions(t *testing.T) {
	var buf bytes.Buffer
	printSuggestions(&buf, "Storag", services)

	assert.Contains(t, buf.String(), "Did you mean:")
	assert.Contains(t, buf.String(), "• Storage")
}

func TestPrintSuggestions_NoMatch(t *testing.T) {
	var buf bytes.Buffer
	printSuggestions(&buf, "Completely Unrelated Service Name", services)
	assert.Empty(t, buf.String())
}

func TestPrintConfigSuggestions(t *testing.T) {
	var buf bytes.Buffer
	err := &engine.ConfigValidationError{Field: "exclude_services[0]", Value: "keyvault", Reason: "is not a known service"}
	printConfigSuggestions(&buf, err, services)
	assert.Contains(t, buf.String(), "• Key Vault")

	buf.Reset()
	printConfigSuggestions(&buf, assert.AnError, services)
	assert.Empty(t, buf.String())
}
