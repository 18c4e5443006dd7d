package extractor

import (
	"strings"
	"unicode/utf8"
)

// SystemPrompt frames the model as a JSON-only resume parser.
const SystemPrompt = "You extract contact and education details from resumes. " +
	"Reply with a single JSON object and nothing else."

// FieldKeys are the JSON keys every model reply must carry, in report order.
var FieldKeys = []string{
	"name",
	"address",
	"email",
	"contact_number",
	"last_qualification",
	"last_institution",
}

// BuildPrompt returns the user prompt for text, cut to at most maxChars runes.
func BuildPrompt(text string, maxChars int) string {
	var b strings.Builder
	b.WriteString(`Read the resume below and fill in this JSON object:

{
  "name": "full name of the candidate",
  "address": "postal address or city/country of residence",
  "email": "email address",
  "contact_number": "phone number as written",
  "last_qualification": "most recent degree or qualification",
  "last_institution": "institution that awarded the most recent qualification"
}

Rules:
- Copy values from the resume; do not invent or reformat them.
- Use null for anything the resume does not state.
- Output the JSON object only, without markdown fences.

Resume:
`)
	b.WriteString(TruncateRunes(text, maxChars))
	return b.String()
}

// TruncateRunes cuts s to at most n runes without splitting a UTF-8 sequence.
// n <= 0 leaves s unchanged.
func TruncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
