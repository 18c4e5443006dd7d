package rules

import (
	"strings"

	"cvbatch/internal/domain"
)

const (
	maxAddressLines  = 3
	headerRegionSize = 10
)

// address finds, in order of preference: a labelled address line, a line
// with a street keyword or postal code, or a header line naming a place.
// Continuation lines carrying locality tokens are joined to the first.
func (d *document) address() string {
	for i, line := range d.lines {
		if m := labelAddrRe.FindStringSubmatch(line); m != nil {
			return d.extendAddress(i, strings.TrimSpace(m[1]))
		}
	}

	for i, line := range d.lines {
		segs := segments(line)
		for _, seg := range segs {
			if d.excludedFromAddress(seg) {
				continue
			}
			if hasStreetKeyword(seg) || hasPostalCode(seg) {
				if len(segs) == 1 {
					return d.extendAddress(i, seg)
				}
				return seg
			}
		}
	}

	for _, e := range d.entitiesOf(domain.EntityGPE, domain.EntityLocation) {
		li := d.lineAt(e.Position)
		if li >= headerRegionSize {
			break
		}
		for _, seg := range segments(d.lines[li]) {
			if strings.Contains(seg, e.Text) && !d.excludedFromAddress(seg) && !isNameLike(seg) {
				return seg
			}
		}
	}
	return ""
}

func (d *document) excludedFromAddress(s string) bool {
	return emailRe.MatchString(s) || d.containsPhone(s) || hasDegree(s) ||
		hasInstitutionKeyword(s) || isEducationHeading(s) || isSectionHeading(s)
}

func (d *document) containsPhone(s string) bool {
	for _, m := range phoneCandidateRe.FindAllString(s, -1) {
		if isPhone(strings.TrimSpace(m)) {
			return true
		}
	}
	return false
}

func (d *document) extendAddress(i int, first string) string {
	parts := []string{strings.TrimRight(first, ",")}
	for j := i + 1; j < len(d.lines) && len(parts) < maxAddressLines; j++ {
		next := d.lines[j]
		if d.excludedFromAddress(next) || len(segments(next)) > 1 {
			break
		}
		if !hasPostalCode(next) && !hasStreetKeyword(next) && !d.namesPlace(j) {
			break
		}
		parts = append(parts, strings.TrimRight(next, ","))
	}
	return strings.Join(parts, ", ")
}

// namesPlace reports whether line i holds a GPE or LOC entity.
func (d *document) namesPlace(i int) bool {
	for _, e := range d.entitiesOf(domain.EntityGPE, domain.EntityLocation) {
		if d.lineAt(e.Position) == i {
			return true
		}
	}
	return false
}
