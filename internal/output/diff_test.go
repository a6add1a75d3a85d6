package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_Identical(t *testing.T) {
	doc := []byte(`{"name":"A","category":"Testing"}`)
	lines, err := Diff(doc, doc)
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestDiff_Changes(t *testing.T) {
	previous := []byte(`{"name":"A","category":"Testing","enforcement_mode":"false"}`)
	current := []byte(`{"name":"A","category":"Security","extra":1}`)

	lines, err := Diff(previous, current)
	require.NoError(t, err)

	assert.Contains(t, lines, `~ /category = "Security"`)
	assert.Contains(t, lines, "- /enforcement_mode")
	assert.Contains(t, lines, "+ /extra")
}

func TestDiff_InvalidJSON(t *testing.T) {
	_, err := Diff([]byte(`{`), []byte(`{}`))
	assert.ErrorContains(t, err, "failed to compare documents")
}

func TestWriteDiff(t *testing.T) {
	var buf bytes.Buffer
	changed, err := WriteDiff(&buf, []byte(`{"a":1}`), []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "no changes\n", buf.String())

	buf.Reset()
	changed, err = WriteDiff(&buf, []byte(`{"a":1}`), []byte(`{"a":2}`))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "~ /a = 2\n", buf.String())
}
