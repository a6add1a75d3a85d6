// Package output renders policy listings and initiative documents.
package output

import (
	"io"

	"github.com/ancients-collective/guardrail/internal/types"
)

// Formatter writes a policy listing to the given writer.
type Formatter interface {
	Write(w io.Writer, report *types.CatalogReport) error
}
