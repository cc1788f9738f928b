package parse

import "regexp"

var spaceRun = regexp.MustCompile(` {2,}`)

// Normalize applies the spec's source normalization: runs of spaces
// collapse to one, and tabs/newlines are removed entirely. It is applied
// once before scanning and is part of the observable contract (spec §3,
// testable property 3).
func Normalize(source string) string {
	out := make([]byte, 0, len(source))
	for i := 0; i < len(source); i++ {
		switch source[i] {
		case '\t', '\n', '\r':
			continue
		default:
			out = append(out, source[i])
		}
	}
	return spaceRun.ReplaceAllString(string(out), " ")
}
