package rules

import (
	"strings"
)

func (d *document) email() string {
	m := emailRe.FindString(d.text)
	return strings.TrimRight(m, ".")
}

// phone returns the first plausible phone number in document order.
func (d *document) phone() string {
	for _, loc := range phoneCandidateRe.FindAllStringIndex(d.text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && (isWordChar(d.text[start-1]) || d.text[start-1] == '.') {
			continue
		}
		if end < len(d.text) && isWordChar(d.text[end]) {
			continue
		}
		cand := strings.TrimSpace(d.text[start:end])
		if isPhone(cand) {
			return cand
		}
	}
	return ""
}

func isPhone(s string) bool {
	n := countDigits(s)
	if n < 7 || n > 15 {
		return false
	}
	if strings.Count(s, "(") != strings.Count(s, ")") {
		return false
	}
	if dateLikeRe.MatchString(s) || zipPlus4Re.MatchString(s) {
		return false
	}
	return !onlyYears(s)
}

// onlyYears reports whether every digit group in s is a year, as in "2016 - 2020".
func onlyYears(s string) bool {
	groups := strings.FieldsFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if len(groups) < 2 {
		return false
	}
	for _, g := range groups {
		if !yearRe.MatchString(g) || len(g) != 4 {
			return false
		}
	}
	return true
}
