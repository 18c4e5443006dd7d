package rules

import (
	"strings"
	"unicode"

	"cvbatch/internal/domain"
)

const (
	nameEntityLines    = 10
	nameHeuristicLines = 5
)

// name prefers the first PERSON entity near the top, then the first short
// capitalized line.
func (d *document) name() string {
	for _, e := range d.entitiesOf(domain.EntityPerson) {
		if d.lineAt(e.Position) >= nameEntityLines {
			break
		}
		cand := strings.Join(strings.Fields(e.Text), " ")
		if isNameLike(cand) {
			return cand
		}
	}

	for i := 0; i < len(d.lines) && i < nameHeuristicLines; i++ {
		if isNameLike(d.lines[i]) {
			return d.lines[i]
		}
		// "Jane Doe | jane@x.com" headers
		if segs := segments(d.lines[i]); len(segs) > 1 && isNameLike(segs[0]) {
			return segs[0]
		}
	}
	return ""
}

// isNameLike accepts 2 to 4 capitalized alphabetic words.
func isNameLike(s string) bool {
	fields := strings.Fields(s)
	if len(fields) < 2 || len(fields) > 4 {
		return false
	}
	for _, f := range fields {
		if nameStopwords[strings.ToLower(strings.Trim(f, ".,:"))] {
			return false
		}
		letters := 0
		for i, r := range f {
			switch {
			case unicode.IsLetter(r):
				if i == 0 && !unicode.IsUpper(r) {
					return false
				}
				letters++
			case r == '.' || r == '-' || r == '\'':
			default:
				return false
			}
		}
		if letters == 0 {
			return false
		}
	}
	return !hasDegree(s) && !hasInstitutionKeyword(s) && !isEducationHeading(s)
}
