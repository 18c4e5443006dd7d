package rules

import (
	"regexp"
	"strings"
	"unicode"
)

const month = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*`

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// phoneCandidateRe over-matches; candidates are filtered by isPhone.
	phoneCandidateRe = regexp.MustCompile(`\+?\(?\d[\d ().\-]{5,22}\d\)?`)

	dateLikeRe = regexp.MustCompile(`^\d{1,4}[-./ ]\d{1,2}[-./ ]\d{1,4}$`)
	zipPlus4Re = regexp.MustCompile(`^\d{5}-\d{4}$`)
	yearRe     = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

	usZipRe     = regexp.MustCompile(`\b[A-Z]{2}\s+\d{5}(?:-\d{4})?\b`)
	ukPostRe    = regexp.MustCompile(`\b[A-Z]{1,2}\d[A-Z\d]?\s+\d[A-Z]{2}\b`)
	pinCodeRe   = regexp.MustCompile(`\b\d{6}\b`)
	labelAddrRe = regexp.MustCompile(`(?i)^(?:address|addr|location|residence|current address|permanent address)\s*[:\-]\s*(.+)$`)

	segmentSplit = regexp.MustCompile(`\s*[|•·]\s*`)
	eduSplit     = regexp.MustCompile(`\s*[|,;]\s*|\s+[-–—]\s+|\s+(?:at|from)\s+`)

	dateSpanRe = regexp.MustCompile(`(?i)\(?\b(?:` + month + `\.?\s+)?(?:19|20)\d{2}\b(?:\s*(?:-|–|—|to)\s*(?:(?:` + month + `\.?\s+)?(?:19|20)\d{2}\b|present|current|now|ongoing))?\)?`)
)

var strongInstitutionRe = regexp.MustCompile(`(?i)\b(?:university|college|institute|school|academy|polytechnic)\b`)

var streetKeywords = map[string]bool{
	"street": true, "st": true, "avenue": true, "ave": true, "road": true, "rd": true,
	"lane": true, "ln": true, "boulevard": true, "blvd": true, "highway": true,
	"apartment": true, "apt": true, "suite": true, "house": true, "sector": true,
	"block": true, "floor": true, "colony": true, "nagar": true, "city": true, "state": true,
}

var institutionKeywords = []string{
	"university", "college", "institute", "school", "academy", "campus",
	"polytechnic", "technical", "engineering",
}

var degreeKeywords = map[string]bool{
	"bs": true, "bsc": true, "ba": true, "be": true, "btech": true, "btec": true,
	"bachelor": true, "bachelors": true, "ms": true, "msc": true, "ma": true, "me": true,
	"mtech": true, "master": true, "masters": true, "mba": true, "bba": true, "bcom": true,
	"mphil": true, "phd": true, "doctorate": true, "intermediate": true, "fsc": true,
	"fa": true, "hssc": true, "hsc": true, "ssc": true, "diploma": true, "certificate": true,
	"degree": true, "associate": true, "bca": true, "mca": true, "llb": true, "mbbs": true,
}

// ambiguousDegrees are ordinary words in lower or title case.
var ambiguousDegrees = map[string]bool{
	"ba": true, "be": true, "ma": true, "me": true, "ms": true, "bs": true, "fa": true,
}

var sectionKeywords = []string{
	"experience", "employment", "work history", "skills", "projects", "certifications",
	"achievements", "awards", "publications", "interests", "hobbies", "languages",
	"references", "summary", "objective", "profile", "activities", "volunteer",
	"internships", "courses", "personal", "about", "contact", "declaration", "strengths",
}

var nameStopwords = map[string]bool{
	"resume": true, "curriculum": true, "vitae": true, "cv": true, "profile": true,
	"objective": true, "summary": true, "contact": true, "education": true,
	"experience": true, "skills": true, "address": true, "email": true, "phone": true,
}

// words splits s into lower-case alphanumeric tokens.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasStreetKeyword(s string) bool {
	for _, w := range words(s) {
		if streetKeywords[w] {
			return true
		}
	}
	return false
}

func hasPostalCode(s string) bool {
	return usZipRe.MatchString(s) || ukPostRe.MatchString(s) || pinCodeRe.MatchString(s)
}

func institutionIndex(s string) int {
	lower := strings.ToLower(s)
	for _, kw := range institutionKeywords {
		if strings.Contains(lower, kw) {
			return strings.Index(lower, kw)
		}
	}
	return -1
}

func hasInstitutionKeyword(s string) bool {
	return institutionIndex(s) >= 0
}

// hasDegree reports whether s names a degree. Dots are dropped first so
// "B.Sc." and "Ph.D" match; short ambiguous tokens must be upper case.
func hasDegree(s string) bool {
	stripped := strings.ReplaceAll(s, ".", "")
	tokens := strings.FieldsFunc(stripped, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if !degreeKeywords[lower] {
			continue
		}
		if ambiguousDegrees[lower] && tok != strings.ToUpper(tok) {
			continue
		}
		return true
	}
	return false
}

func isEducationHeading(line string) bool {
	w := words(line)
	if len(w) == 0 || len(w) > 5 || strings.ContainsAny(line, "@0123456789") {
		return false
	}
	for _, t := range w {
		switch t {
		case "education", "educational", "academic", "academics", "qualification", "qualifications":
			return !hasDegree(line) && !hasInstitutionKeyword(line)
		}
	}
	return false
}

// isSectionHeading reports whether line starts a non-education section.
func isSectionHeading(line string) bool {
	if isEducationHeading(line) {
		return false
	}
	w := words(line)
	if len(w) == 0 || len(w) > 4 || strings.ContainsAny(line, "@0123456789") {
		return false
	}
	if hasSectionKeyword(line) {
		return true
	}
	if hasDegree(line) || hasInstitutionKeyword(line) {
		return false
	}
	return isAllCaps(line)
}

// hasSectionKeyword reports whether a short line names a common resume section.
func hasSectionKeyword(line string) bool {
	w := words(line)
	if len(w) == 0 || len(w) > 4 {
		return false
	}
	lower := " " + strings.Join(w, " ") + " "
	for _, kw := range sectionKeywords {
		if strings.Contains(lower, " "+kw+" ") {
			return true
		}
	}
	return false
}

func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 3
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func isWordChar(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
