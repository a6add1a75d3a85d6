package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ancients-collective/guardrail/internal/types"
)

func TestJSONFormatter_RoundTrip(t *testing.T) {
	report := newTestReport()
	var buf bytes.Buffer
	f := &JSONFormatter{}

	require.NoError(t, f.Write(&buf, report))

	var decoded types.CatalogReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, report.Version, decoded.Version)
	assert.True(t, report.Timestamp.Equal(decoded.Timestamp))
	assert.Equal(t, report.Summary, decoded.Summary)
	assert.Equal(t, report.Filters, decoded.Filters)
	assert.Equal(t, report.Services, decoded.Services)
}

func TestJSONFormatter_Keys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Write(&buf, newTestReport()))
	out := buf.String()

	assert.Contains(t, out, `"cardinality": "params_required"`)
	assert.Contains(t, out, `"allowed_effects": [`)
	assert.Contains(t, out, `"total_policies": 6`)
	assert.Contains(t, out, "\n  \"services\"")
}

func TestJSONFormatter_NoHTMLEscaping(t *testing.T) {
	report := newEmptyReport()
	report.Filters.ExcludeKeywords = []string{"<preview>"}
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Write(&buf, report))

	assert.Contains(t, buf.String(), `"<preview>"`)
}

func TestJSONFormatter_EmptyServices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Write(&buf, newEmptyReport()))

	assert.Contains(t, buf.String(), `"services": []`)

	var decoded types.CatalogReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Empty(t, decoded.Services)
	assert.Equal(t, 3, decoded.Summary.Skipped)
}
