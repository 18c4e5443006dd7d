package textextract

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC (unfolding ligatures such as "ﬁ"), strips control
// characters, collapses runs of horizontal whitespace and drops blank lines.
// Line breaks are kept since they separate logical fields.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var out strings.Builder
	out.Grow(len(s))
	for _, line := range strings.Split(s, "\n") {
		line = collapseLine(line)
		if line == "" {
			continue
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(line)
	}
	return out.String()
}

func collapseLine(line string) string {
	var b strings.Builder
	space := false
	for _, r := range line {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsControl(r), r == '\ufeff', r == '\u200b':
			// dropped
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
