package initiative

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxNameLength is the longest policy set definition name Azure accepts.
const MaxNameLength = 64

// FormatName joins scope and suffix into a resource-safe initiative name.
// Whitespace and underscores become dashes, other characters outside
// [A-Za-z0-9-] are dropped, and each dash-separated segment is title-cased
// with its inner casing kept.
func FormatName(scope, suffix string) string {
	var b strings.Builder
	for _, r := range scope + "-" + suffix {
		switch {
		case r == '-' || r == '_' || unicode.IsSpace(r):
			b.WriteByte('-')
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		}
	}

	// A Caser is stateful, so one is made per call.
	caser := cases.Title(language.Und, cases.NoLower)
	segments := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '-' })
	for i, s := range segments {
		segments[i] = caser.String(s)
	}

	name := strings.Join(segments, "-")
	if len(name) > MaxNameLength {
		name = strings.TrimRight(name[:MaxNameLength], "-")
	}
	return name
}
