package rules

import (
	"strconv"
	"strings"

	"cvbatch/internal/domain"
)

const institutionLookahead = 3

// NonChronologicalWarning is attached when education entries are not listed
// newest first, so the topmost entry may not be the most recent.
const NonChronologicalWarning = "education entries are not in reverse-chronological order; reported the topmost entry"

type educationResult struct {
	qualification string
	institution   string
	warnings      []string
}

// education takes the topmost degree line of the education section (or of
// the whole document when there is no such heading) and pairs it with an
// institution from the same line, a nearby line, or an ORG entity.
func (d *document) education() educationResult {
	from, to := d.educationSection()

	var degreeLines []int
	for i := from; i < to; i++ {
		if hasDegree(d.lines[i]) && !hasSectionKeyword(d.lines[i]) {
			degreeLines = append(degreeLines, i)
		}
	}

	var res educationResult
	if len(degreeLines) == 0 {
		res.institution = d.firstInstitution(from, to)
		return res
	}

	top := degreeLines[0]
	qual, inst := splitEducationLine(d.lines[top])
	res.qualification = qual
	res.institution = inst

	if res.institution == "" {
		res.institution = d.nearbyInstitution(top, to)
	}
	if res.institution == "" {
		res.institution = d.orgEntity(top, from, to)
	}

	if !d.reverseChronological(degreeLines, to) {
		res.warnings = append(res.warnings, NonChronologicalWarning)
	}
	return res
}

// educationSection returns the line range under the first education heading,
// or the whole document.
func (d *document) educationSection() (int, int) {
	for i, line := range d.lines {
		if !isEducationHeading(line) {
			continue
		}
		end := len(d.lines)
		for j := i + 1; j < len(d.lines); j++ {
			if isSectionHeading(d.lines[j]) {
				end = j
				break
			}
		}
		if end > i+1 {
			return i + 1, end
		}
	}
	return 0, len(d.lines)
}

// splitEducationLine separates a degree line into the qualification and,
// when present on the same line, the institution.
func splitEducationLine(line string) (qualification, institution string) {
	parts := eduSplit.Split(stripDates(line), -1)
	for _, p := range parts {
		p = cleanPart(p)
		if p == "" {
			continue
		}
		switch {
		case qualification == "" && hasDegree(p):
			qualification = p
		case institution == "" && hasInstitutionKeyword(p):
			institution = p
		}
	}
	if qualification == "" {
		qualification = cleanPart(stripDates(line))
	}
	if institution == "" {
		qualification, institution = sameLineInstitution(qualification)
	}
	return qualification, institution
}

// sameLineInstitution splits "B.S. Stanford University", which carries no
// separator, at the capitalized run ending in an institution keyword.
func sameLineInstitution(q string) (string, string) {
	loc := strongInstitutionRe.FindStringIndex(q)
	if loc == nil || loc[0] == 0 {
		return q, ""
	}
	cut := loc[0]
	fields := strings.Fields(q[:cut])
	for k := len(fields) - 1; k >= 0; k-- {
		f := fields[k]
		if f[0] < 'A' || f[0] > 'Z' || hasDegree(f) {
			break
		}
		cut = strings.LastIndex(q[:cut], f)
	}
	head := cleanPart(q[:cut])
	if head == "" || !hasDegree(head) {
		return q, ""
	}
	return head, cleanPart(q[cut:])
}

func (d *document) nearbyInstitution(top, end int) string {
	for j := top + 1; j < end && j <= top+institutionLookahead; j++ {
		if hasDegree(d.lines[j]) {
			break
		}
		if inst := institutionSegment(d.lines[j]); inst != "" {
			return inst
		}
	}
	if top > 0 && !isEducationHeading(d.lines[top-1]) && !hasDegree(d.lines[top-1]) {
		return institutionSegment(d.lines[top-1])
	}
	return ""
}

func (d *document) firstInstitution(from, to int) string {
	for i := from; i < to; i++ {
		if inst := institutionSegment(d.lines[i]); inst != "" {
			return inst
		}
	}
	return ""
}

func institutionSegment(line string) string {
	for _, p := range eduSplit.Split(stripDates(line), -1) {
		if p = cleanPart(p); hasInstitutionKeyword(p) {
			return p
		}
	}
	return ""
}

// orgEntity returns the first ORG at or after the degree line within the
// section, else the first ORG in the section.
func (d *document) orgEntity(top, from, to int) string {
	var first string
	for _, e := range d.entitiesOf(domain.EntityOrganization) {
		li := d.lineAt(e.Position)
		if li < from || li >= to {
			continue
		}
		if li >= top {
			return strings.TrimSpace(e.Text)
		}
		if first == "" {
			first = strings.TrimSpace(e.Text)
		}
	}
	return first
}

// reverseChronological reports whether the topmost degree entry is at least
// as recent as every later one. Entries without a year are ignored.
func (d *document) reverseChronological(degreeLines []int, end int) bool {
	years := make([]int, len(degreeLines))
	for k, li := range degreeLines {
		stop := end
		if k+1 < len(degreeLines) {
			stop = degreeLines[k+1]
		}
		years[k] = d.latestYear(li, stop)
	}
	if years[0] == 0 {
		return true
	}
	for _, y := range years[1:] {
		if y > years[0] {
			return false
		}
	}
	return true
}

func (d *document) latestYear(from, to int) int {
	latest := 0
	for i := from; i < to; i++ {
		for _, m := range yearRe.FindAllString(d.lines[i], -1) {
			if y, err := strconv.Atoi(m); err == nil && y > latest {
				latest = y
			}
		}
	}
	return latest
}

func stripDates(s string) string {
	return dateSpanRe.ReplaceAllString(s, "")
}

func cleanPart(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " ,;:|-–—()")
}
