package sandbox

import "strings"

// tokensEqual implements the output-comparison rule shared by both
// backends: tokenise on ASCII whitespace runs and require token-by-token
// equality, so trailing and inter-token whitespace never affects the
// verdict (§4.2, property P7).
func tokensEqual(a, b string) bool {
	return equalSlices(splitWhitespace(a), splitWhitespace(b))
}

func splitWhitespace(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
	})
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
