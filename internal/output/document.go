package output

import (
	"fmt"
	"io"

	"github.com/ancients-collective/guardrail/internal/initiative"
)

// WriteDocument renders an initiative document as indented JSON.
func WriteDocument(w io.Writer, doc *initiative.Document) error {
	if doc == nil {
		return fmt.Errorf("no initiative document to write")
	}
	return newEncoder(w, true).Encode(doc)
}
