package initiative

import (
	"strconv"
	"strings"

	"github.com/ancients-collective/guardrail/internal/types"
)

const emptyLiteral = `""`

// SerializeValue renders a parameter value as the literal written into the
// initiative template:
//
//	bool                  true / false
//	int                   digits
//	sequence, mapping     JSON (", " and ": " separators, ASCII-only)
//	string with [ or {    backslashes doubled, ' replaced by ", then a JSON string
//	any other string      ""
//	null, float           ""
//
// Plain string content is deliberately discarded.
func SerializeValue(v types.Value) string {
	switch v.Kind() {
	case types.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case types.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case types.KindSequence, types.KindMapping:
		return v.JSON()
	case types.KindString:
		s, _ := v.AsString()
		if !strings.ContainsAny(s, "[{") {
			return emptyLiteral
		}
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, "'", `"`)
		return types.QuoteJSONString(s)
	default:
		return emptyLiteral
	}
}

// EscapeBackslashes doubles every backslash of a string value. The values
// file is read as already-escaped input, so this runs before SerializeValue
// escapes again. Non-string values are returned unchanged.
func EscapeBackslashes(v types.Value) types.Value {
	s, ok := v.AsString()
	if !ok || !strings.Contains(s, `\`) {
		return v
	}
	return types.String(strings.ReplaceAll(s, `\`, `\\`))
}
