package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ancients-collective/guardrail/internal/initiative"
	"github.com/ancients-collective/guardrail/internal/types"
)

func init() {
	// Disable color for deterministic test output.
	color.NoColor = true
}

const (
	noParams       = `{}`
	optionalParams = `{"effect": {"type": "String", "allowedValues": ["Audit", "Disabled"], "defaultValue": "Audit"}}`
	requiredParams = `{"listOfAllowedLocations": {"type": "Array"}, "effect": {"type": "String", "defaultValue": "Deny"}}`
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writePolicy(t *testing.T, dir, service, file, id, display, params string) {
	t.Helper()
	data := fmt.Sprintf(`{"id": "/providers/Microsoft.Authorization/policyDefinitions/%[1]s", "name": %[1]q,
		"properties": {"displayName": %[2]q, "metadata": {"category": %[3]q}, "parameters": %[4]s,
		"policyRule": {"if": {"field": "type", "equals": "x"}, "then": {"effect": "[parameters('effect')]"}}}}`,
		id, display, service, params)
	writeFile(t, filepath.Join(dir, service, file), data)
}

// policyFixture lays out two services with one policy per parameter class
// and one deprecated policy.
func policyFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePolicy(t, dir, "Storage", "a.json", "s-1", "Storage accounts should restrict network access", noParams)
	writePolicy(t, dir, "Storage", "b.json", "s-2", "Secure transfer to storage accounts should be enabled", optionalParams)
	writePolicy(t, dir, "Storage", "c.json", "s-3", "[Deprecated]: Storage accounts should be migrated", noParams)
	writePolicy(t, dir, "Compute", "a.json", "c-1", "Allowed virtual machine locations", requiredParams)
	writePolicy(t, dir, "Compute", "b.json", "c-2", "Audit VMs that do not use managed disks", noParams)
	return dir
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// ── list ─────────────────────────────────────────────────────────────

func TestRun_ListText(t *testing.T) {
	dir := policyFixture(t)
	res := runCLI(t, "list", "-p", dir, "--no-color")

	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "STORAGE (2)")
	assert.Contains(t, res.stdout, "COMPUTE (2)")
	assert.Contains(t, res.stdout, "Allowed virtual machine locations")
	assert.NotContains(t, res.stdout, "[Deprecated]")
	assert.Contains(t, res.stdout, "4 eligible · 1 skipped")
}

func TestRun_ListJSON(t *testing.T) {
	dir := policyFixture(t)
	res := runCLI(t, "list", "-p", dir, "--format", "json", "--params", "optional")
	require.Equal(t, exitOK, res.code, res.stderr)

	var report types.CatalogReport
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	assert.Equal(t, version, report.Version)
	assert.False(t, report.Timestamp.IsZero())
	assert.Equal(t, "params_optional", report.Filters.Parameters)
	assert.Equal(t, 1, report.Summary.Eligible)
	require.Len(t, report.Services, 1)
	assert.Equal(t, "Storage", report.Services[0].Service)
}

func TestRun_ListToFile(t *testing.T) {
	dir := policyFixture(t)
	out := filepath.Join(t.TempDir(), "listing.jsonl")
	res := runCLI(t, "list", "-p", dir, "--format", "jsonl", "-o", out)
	require.Equal(t, exitOK, res.code, res.stderr)

	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "written to "+out)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 5, bytes.Count(data, []byte("\n")), "header plus four policies")
}

func TestRun_ListUnknownService(t *testing.T) {
	dir := policyFixture(t)
	res := runCLI(t, "list", "-p", dir, "--service", "Storag")

	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "Did you mean:")
	assert.Contains(t, res.stderr, "• Storage")
	assert.Contains(t, res.stderr, `no service named "Storag"`)
}

func TestRun_ListInvalidFlags(t *testing.T) {
	dir := policyFixture(t)

	res := runCLI(t, "list", "-p", dir, "--format", "yaml")
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "invalid --format value")

	res = runCLI(t, "list", "-p", dir, "--params", "sometimes")
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "invalid --params value")
}

func TestRun_ListWithConfig(t *testing.T) {
	dir := policyFixture(t)
	cfg := filepath.Join(t.TempDir(), "selection.yaml")
	writeFile(t, cfg, "exclude_services: [Compute]\nexclude_keywords: [Secure]\n")

	res := runCLI(t, "list", "-p", dir, "-c", cfg, "--format", "json")
	require.Equal(t, exitOK, res.code, res.stderr)

	var report types.CatalogReport
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))
	require.Len(t, report.Services, 1)
	assert.Equal(t, "Storage", report.Services[0].Service)
	require.Len(t, report.Services[0].Policies, 1)
	assert.Equal(t, "Storage accounts should restrict network access", report.Services[0].Policies[0].DisplayName)
	assert.Equal(t, []string{"secure"}, report.Filters.ExcludeKeywords)
}

func TestRun_ConfigUnknownService(t *testing.T) {
	dir := policyFixture(t)
	cfg := filepath.Join(t.TempDir(), "selection.yaml")
	writeFile(t, cfg, "exclude_services: [Computer]\n")

	res := runCLI(t, "list", "-p", dir, "-c", cfg)
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, `did you mean "Compute"?`)
	assert.Contains(t, res.stderr, "• Compute")
}

func TestRun_NoPolicies(t *testing.T) {
	res := runCLI(t, "list", "-p", t.TempDir())
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "no policy documents found")
}

func TestRun_MalformedDocumentIsPartial(t *testing.T) {
	dir := policyFixture(t)
	writeFile(t, filepath.Join(dir, "Compute", "broken.json"), `{"properties": {}}`)

	res := runCLI(t, "list", "-p", dir)
	assert.Equal(t, exitPartial, res.code)
	assert.Contains(t, res.stderr, "malformed policy document Compute/broken.json")
	assert.Contains(t, res.stdout, "1 malformed")
}

// ── generate ─────────────────────────────────────────────────────────

func decodeDocument(t *testing.T, data string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &doc))
	return doc
}

func TestRun_Generate(t *testing.T) {
	dir := policyFixture(t)
	values := filepath.Join(t.TempDir(), "values.yaml")
	writeFile(t, values, `Compute:
  Allowed virtual machine locations:
    policy_id: c-1
    listOfAllowedLocations: [eastus]
`)

	res := runCLI(t, "generate", "-p", dir, "--subscription", "prod-sub", "--params", "required", "--values", values)
	require.Equal(t, exitOK, res.code, res.stderr)

	doc := decodeDocument(t, res.stdout)
	assert.Equal(t, initiative.FormatName("prod-sub", "ParamsRequired-Audit"), doc["name"])
	assert.Equal(t, "prod-sub", doc["subscription_name"])
	assert.Equal(t, "", doc["management_group"])
	assert.Equal(t, "false", doc["enforcement_mode"])
	assert.Equal(t, initiative.DefaultCategory, doc["category"])

	pairs := doc["policy_id_pairs"].(map[string]any)
	require.Contains(t, pairs, "Compute")
	assert.Equal(t, map[string]any{
		"c-1": map[string]any{"display_name": "Allowed virtual machine locations", "short_id": "c-1"},
	}, pairs["Compute"])

	blocks := doc["policy_definition_reference_parameters"].(map[string]any)
	compute := blocks["Compute"].(map[string]any)
	params := compute["Allowed virtual machine locations"].(map[string]any)
	assert.Equal(t, map[string]any{
		"parameter_name":  "listOfAllowedLocations",
		"parameter_value": `["eastus"]`,
	}, params["listOfAllowedLocations"])
	assert.Equal(t, map[string]any{
		"parameter_name":  "effect",
		"parameter_value": `""`,
	}, params["effect"])
}

func TestRun_GenerateManagementGroupEnforce(t *testing.T) {
	dir := policyFixture(t)
	res := runCLI(t, "generate", "-p", dir, "--management-group", "platform", "--enforce", "--category", "Security")
	require.Equal(t, exitOK, res.code, res.stderr)

	doc := decodeDocument(t, res.stdout)
	assert.Equal(t, initiative.FormatName("platform", "NoParams-Enforce"), doc["name"])
	assert.Equal(t, "true", doc["enforcement_mode"])
	assert.Equal(t, "Security", doc["category"])

	pairs := doc["policy_id_pairs"].(map[string]any)
	assert.Len(t, pairs["Storage"], 1)
	assert.Len(t, pairs["Compute"], 1)
	assert.Empty(t, doc["policy_definition_reference_parameters"])
}

func TestRun_GenerateSingleService(t *testing.T) {
	dir := policyFixture(t)
	res := runCLI(t, "generate", "-p", dir, "--subscription", "dev", "--service", "Storage")
	require.Equal(t, exitOK, res.code, res.stderr)

	pairs := decodeDocument(t, res.stdout)["policy_id_pairs"].(map[string]any)
	assert.Len(t, pairs, 1)
	assert.Contains(t, pairs, "Storage")
}

func TestRun_GenerateScopeFlags(t *testing.T) {
	dir := policyFixture(t)

	res := runCLI(t, "generate", "-p", dir)
	assert.Equal(t, exitFatal, res.code)

	res = runCLI(t, "generate", "-p", dir, "--subscription", "a", "--management-group", "b")
	assert.Equal(t, exitFatal, res.code)

	res = runCLI(t, "generate", "-p", dir, "--subscription", "a", "--params", "all")
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "single parameter class")
}

func TestRun_GenerateCompare(t *testing.T) {
	dir := policyFixture(t)
	out := filepath.Join(t.TempDir(), "initiative.json")

	res := runCLI(t, "generate", "-p", dir, "--subscription", "prod", "-o", out)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "2 policies in 2 service(s)")

	res = runCLI(t, "generate", "-p", dir, "--subscription", "prod", "-o", out, "--compare", out)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, "no changes")

	res = runCLI(t, "generate", "-p", dir, "--subscription", "prod", "--enforce", "--compare", out)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, `~ /enforcement_mode = "true"`)
	assert.Contains(t, res.stderr, "~ /name")
}

// ── validate ─────────────────────────────────────────────────────────

func TestRun_ValidateClean(t *testing.T) {
	dir := policyFixture(t)
	res := runCLI(t, "validate", "-p", dir)

	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "All 5 policies in 2 services are valid")
}

func TestRun_ValidateMalformed(t *testing.T) {
	dir := policyFixture(t)
	writeFile(t, filepath.Join(dir, "Storage", "broken.json"), `not json`)

	res := runCLI(t, "validate", "-p", dir)
	assert.Equal(t, exitPartial, res.code)
	assert.Contains(t, res.stderr, "Storage/broken.json")
	assert.Contains(t, res.stdout, "1 malformed document(s) skipped")
}

func TestRun_ValidateMissingValues(t *testing.T) {
	dir := policyFixture(t)
	values := filepath.Join(t.TempDir(), "values.yaml")
	writeFile(t, values, "")

	res := runCLI(t, "validate", "-p", dir, "--values", values)
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, `Compute/Allowed virtual machine locations: no value for required parameter "listOfAllowedLocations"`)
	assert.Contains(t, res.stderr, "1 required parameter value(s) missing")
}

func TestRun_ValidateVerify(t *testing.T) {
	dir := policyFixture(t)
	require.NoError(t, os.Chmod(dir, 0o777))

	res := runCLI(t, "validate", "-p", dir, "--verify")
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "world-writable")
}

// ── template ─────────────────────────────────────────────────────────

func TestRun_TemplateConfig(t *testing.T) {
	dir := policyFixture(t)
	res := runCLI(t, "template", "config", "-p", dir)

	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "exclude_policies:")
	assert.Contains(t, res.stdout, "Compute:")
	assert.Contains(t, res.stdout, "Storage:")
	assert.Contains(t, res.stdout, "match_only_keywords:")
}

func TestRun_TemplateParameters(t *testing.T) {
	dir := policyFixture(t)
	res := runCLI(t, "template", "parameters", "-p", dir)

	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "policy_id: c-1")
	assert.Contains(t, res.stdout, "listOfAllowedLocations: null # required")
	assert.Contains(t, res.stdout, "policy_id: s-2")
	assert.NotContains(t, res.stdout, "s-1", "policies without parameters are left out")
}

func TestRun_TemplateParametersSingleClass(t *testing.T) {
	dir := policyFixture(t)
	res := runCLI(t, "template", "parameters", "-p", dir, "--params", "optional")

	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "policy_id: s-2")
	assert.NotContains(t, res.stdout, "c-1")
}

// ── helpers ──────────────────────────────────────────────────────────

func TestRun_Version(t *testing.T) {
	res := runCLI(t, "--version")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, version)
}

func TestParseParamsFlag(t *testing.T) {
	c, err := parseParamsFlag("")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = parseParamsFlag("ALL")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = parseParamsFlag("required")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, types.ParamsRequired, *c)

	_, err = parseParamsFlag("maybe")
	assert.ErrorContains(t, err, "invalid --params value")
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"initiative.json", false},
		{"./out/initiative.json", false},
		{"/tmp/initiative.json", false},
		{"/etc/initiative.json", true},
		{"/usr/../etc/passwd", true},
		{"/proc/self/mem", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := validateOutputPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
