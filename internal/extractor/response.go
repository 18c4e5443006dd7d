package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"cvbatch/internal/domain"
)

const replySchema = `{
  "type": "object",
  "required": ["name", "address", "email", "contact_number", "last_qualification", "last_institution"],
  "properties": {
    "name":               {"type": ["string", "null"]},
    "address":            {"type": ["string", "null"]},
    "email":              {"type": ["string", "null"]},
    "contact_number":     {"type": ["string", "null"]},
    "last_qualification": {"type": ["string", "null"]},
    "last_institution":   {"type": ["string", "null"]}
  }
}`

var (
	schemaLoader = gojsonschema.NewStringLoader(replySchema)
	validate     = validator.New()
)

type reply struct {
	Name              *string `json:"name"`
	Address           *string `json:"address"`
	Email             *string `json:"email"`
	ContactNumber     *string `json:"contact_number"`
	LastQualification *string `json:"last_qualification"`
	LastInstitution   *string `json:"last_institution"`
}

// sanitized carries per-field constraints. A field that fails is dropped,
// the rest of the reply is kept.
type sanitized struct {
	Name              string `validate:"omitempty,max=120"`
	Address           string `validate:"omitempty,max=300"`
	Email             string `validate:"omitempty,email"`
	ContactNumber     string `validate:"omitempty,max=40"`
	LastQualification string `validate:"omitempty,max=200"`
	LastInstitution   string `validate:"omitempty,max=200"`
}

// DecodeFields parses a model reply into Fields. The reply must be a JSON
// object carrying every key in FieldKeys with a string or null value.
func DecodeFields(raw string) (*domain.Fields, error) {
	body := CleanJSONBlock(raw)
	if body == "" {
		return nil, errors.New("empty model reply")
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing model reply: %w (raw: %s)", err, Truncate(body, 200))
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("model reply does not conform: %s", strings.Join(msgs, "; "))
	}

	var r reply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("unmarshaling model reply: %w", err)
	}

	s := sanitized{
		Name:              cleanValue(r.Name),
		Address:           cleanValue(r.Address),
		Email:             cleanValue(r.Email),
		ContactNumber:     cleanValue(r.ContactNumber),
		LastQualification: cleanValue(r.LastQualification),
		LastInstitution:   cleanValue(r.LastInstitution),
	}

	var warnings []string
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validating model reply: %w", err)
		}
		for _, fe := range verrs {
			dropField(&s, fe.Field())
			warnings = append(warnings, fmt.Sprintf("dropped %s: failed %s", fe.Field(), fe.Tag()))
		}
	}

	fields := &domain.Fields{
		Name:              s.Name,
		Address:           s.Address,
		Email:             s.Email,
		ContactNumber:     s.ContactNumber,
		LastQualification: s.LastQualification,
		LastInstitution:   s.LastInstitution,
		Warnings:          warnings,
	}
	if fields.IsEmpty() {
		return nil, ErrNoFields
	}
	return fields, nil
}

func dropField(s *sanitized, field string) {
	switch field {
	case "Name":
		s.Name = ""
	case "Address":
		s.Address = ""
	case "Email":
		s.Email = ""
	case "ContactNumber":
		s.ContactNumber = ""
	case "LastQualification":
		s.LastQualification = ""
	case "LastInstitution":
		s.LastInstitution = ""
	}
}

// cleanValue maps placeholder answers to absent.
func cleanValue(v *string) string {
	if v == nil {
		return ""
	}
	s := strings.Join(strings.Fields(*v), " ")
	switch strings.ToLower(s) {
	case "", "null", "none", "n/a", "na", "not available", "not specified", "unknown", "-":
		return ""
	}
	return s
}

// CleanJSONBlock strips markdown code fences and any prose around the JSON object.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "{") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
