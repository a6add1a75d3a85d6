package output

import (
	"fmt"
	"io"

	"github.com/wI2L/jsondiff"
)

// Diff compares two JSON documents and returns one line per change, in
// JSON Patch order. Identical documents yield nil.
func Diff(previous, current []byte) ([]string, error) {
	patch, err := jsondiff.CompareJSON(previous, current)
	if err != nil {
		return nil, fmt.Errorf("failed to compare documents: %w", err)
	}
	if len(patch) == 0 {
		return nil, nil
	}

	lines := make([]string, 0, len(patch))
	for _, op := range patch {
		lines = append(lines, describeOperation(op))
	}
	return lines, nil
}

func describeOperation(op jsondiff.Operation) string {
	switch op.Type {
	case jsondiff.OperationAdd:
		return fmt.Sprintf("+ %s", op.Path)
	case jsondiff.OperationRemove:
		return fmt.Sprintf("- %s", op.Path)
	case jsondiff.OperationReplace:
		return fmt.Sprintf("~ %s = %s", op.Path, compact(op.Value))
	default:
		return fmt.Sprintf("%s %s", op.Type, op.Path)
	}
}

func compact(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

// WriteDiff prints the changes between two documents, or a single line
// when they are identical.
func WriteDiff(w io.Writer, previous, current []byte) (changed bool, err error) {
	lines, err := Diff(previous, current)
	if err != nil {
		return false, err
	}
	if len(lines) == 0 {
		fmt.Fprintln(w, "no changes")
		return false, nil
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return true, nil
}
