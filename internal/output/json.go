package output

import (
	"encoding/json"
	"io"

	"github.com/ancients-collective/guardrail/internal/types"
)

// newEncoder returns an encoder that leaves <, > and & unescaped.
func newEncoder(w io.Writer, indent bool) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc
}

// JSONFormatter writes a policy listing as a single JSON object.
type JSONFormatter struct{}

// Write renders the full listing as pretty-printed JSON.
func (f *JSONFormatter) Write(w io.Writer, report *types.CatalogReport) error {
	return newEncoder(w, true).Encode(report)
}
