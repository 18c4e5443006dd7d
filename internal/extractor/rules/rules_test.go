package rules_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cvbatch/internal/domain"
	"cvbatch/internal/extractor/rules"
	"cvbatch/mocks"
)

// stubRecognizer tags fixed substrings of the input.
type stubRecognizer map[string]domain.EntityType

func (s stubRecognizer) Recognize(text string) []domain.Entity {
	var out []domain.Entity
	for frag, typ := range s {
		if i := strings.Index(text, frag); i >= 0 {
			out = append(out, domain.Entity{Text: frag, Type: typ, Position: i})
		}
	}
	return out
}

func extract(t *testing.T, ner stubRecognizer, text string) *domain.Fields {
	t.Helper()
	var e *rules.Extractor
	if ner == nil {
		e = rules.NewExtractor(nil)
	} else {
		e = rules.NewExtractor(ner)
	}
	fields, err := e.Extract(context.Background(), text)
	require.NoError(t, err)
	require.NotNil(t, fields)
	return fields
}

func TestExtract_MinimalContactBlock(t *testing.T) {
	fields := extract(t, nil, "Jane Doe\njane@x.com\n+1-555-0100")

	assert.Equal(t, "Jane Doe", fields.Name)
	assert.Equal(t, "jane@x.com", fields.Email)
	assert.Equal(t, "+1-555-0100", fields.ContactNumber)
	assert.Empty(t, fields.Address)
	assert.Empty(t, fields.LastQualification)
	assert.Empty(t, fields.LastInstitution)
}

func TestExtract_FullResume(t *testing.T) {
	text := strings.Join([]string{
		"JOHN SMITH",
		"221B Baker Street",
		"London NW1 6XE",
		"john.smith@example.co.uk | +44 20 7946 0958",
		"PROFESSIONAL SUMMARY",
		"Backend engineer with 8 years of experience.",
		"EXPERIENCE",
		"Senior Engineer, Acme Corp 2019 - Present",
		"EDUCATION",
		"M.Sc. Computer Science, University of Oxford, 2014 - 2015",
		"B.Sc. Mathematics",
		"Imperial College London",
		"2010 - 2013",
		"SKILLS",
		"Go, Kubernetes",
	}, "\n")

	fields := extract(t, nil, text)

	assert.Equal(t, "JOHN SMITH", fields.Name)
	assert.Equal(t, "john.smith@example.co.uk", fields.Email)
	assert.Equal(t, "+44 20 7946 0958", fields.ContactNumber)
	assert.Equal(t, "221B Baker Street, London NW1 6XE", fields.Address)
	assert.Equal(t, "M.Sc. Computer Science", fields.LastQualification)
	assert.Equal(t, "University of Oxford", fields.LastInstitution)
	assert.Empty(t, fields.Warnings)
}

func TestExtract_PhoneRejectsYearsDatesAndZipCodes(t *testing.T) {
	text := strings.Join([]string{
		"Jane Doe",
		"Graduated 2016 - 2020",
		"DOB: 05-12-1990",
		"ZIP 12345-6789",
		"Phone: (555) 123-4567",
	}, "\n")

	fields := extract(t, nil, text)

	assert.Equal(t, "(555) 123-4567", fields.ContactNumber)
}

func TestExtract_NoPhoneWhenOnlyYears(t *testing.T) {
	fields := extract(t, nil, "Jane Doe\nWorked 2015 - 2019\nStudied 2011 - 2015")

	assert.Empty(t, fields.ContactNumber)
}

func TestExtract_LabelledAddressJoinsLocality(t *testing.T) {
	text := strings.Join([]string{
		"Jane Doe",
		"Address: 12 Park Avenue",
		"Springfield, IL 62704",
		"jane@x.com",
	}, "\n")

	fields := extract(t, nil, text)

	assert.Equal(t, "12 Park Avenue, Springfield, IL 62704", fields.Address)
}

func TestExtract_AddressWithPinCode(t *testing.T) {
	text := strings.Join([]string{
		"Ravi Kumar",
		"Flat 4B, Green Park Colony",
		"New Delhi 110016",
		"ravi@x.in",
		"+91 98765 43210",
	}, "\n")

	fields := extract(t, nil, text)

	assert.Equal(t, "Ravi Kumar", fields.Name)
	assert.Equal(t, "Flat 4B, Green Park Colony, New Delhi 110016", fields.Address)
	assert.Equal(t, "+91 98765 43210", fields.ContactNumber)
}

func TestExtract_AddressFromPlaceEntity(t *testing.T) {
	text := "Jane Doe\nBerlin, Germany\njane@x.com"
	ner := stubRecognizer{"Berlin": domain.EntityGPE}

	fields := extract(t, ner, text)

	assert.Equal(t, "Berlin, Germany", fields.Address)
}

func TestExtract_NameFromPersonEntity(t *testing.T) {
	text := "Software Engineer\nJane Doe\njane@x.com"
	ner := stubRecognizer{"Jane Doe": domain.EntityPerson}

	fields := extract(t, ner, text)

	assert.Equal(t, "Jane Doe", fields.Name)
}

func TestExtract_NameFromSeparatedHeader(t *testing.T) {
	fields := extract(t, nil, "Jane Doe | jane@x.com | +1 555 010 0100")

	assert.Equal(t, "Jane Doe", fields.Name)
	assert.Equal(t, "jane@x.com", fields.Email)
	assert.Equal(t, "+1 555 010 0100", fields.ContactNumber)
}

func TestExtract_EducationSameLineInstitution(t *testing.T) {
	text := "Jane Doe\nEDUCATION\nB.S. Stanford University 2015\nSKILLS\nGo"

	fields := extract(t, nil, text)

	assert.Equal(t, "B.S.", fields.LastQualification)
	assert.Equal(t, "Stanford University", fields.LastInstitution)
}

func TestExtract_EducationInstitutionOnNextLine(t *testing.T) {
	text := strings.Join([]string{
		"Jane Doe",
		"EDUCATION",
		"Bachelor of Technology in Computer Science",
		"Indian Institute of Technology Delhi",
		"2014 - 2018",
	}, "\n")

	fields := extract(t, nil, text)

	assert.Equal(t, "Bachelor of Technology in Computer Science", fields.LastQualification)
	assert.Equal(t, "Indian Institute of Technology Delhi", fields.LastInstitution)
}

func TestExtract_EducationFallsBackToOrgEntity(t *testing.T) {
	text := "Jane Doe\nEducation\nMaster of Business Administration\nWharton"
	ner := stubRecognizer{"Wharton": domain.EntityOrganization}

	fields := extract(t, ner, text)

	assert.Equal(t, "Master of Business Administration", fields.LastQualification)
	assert.Equal(t, "Wharton", fields.LastInstitution)
}

func TestExtract_NonChronologicalEducationWarns(t *testing.T) {
	text := strings.Join([]string{
		"Jane Doe",
		"Education",
		"B.Sc. Physics, University of Leeds, 2012",
		"M.Sc. Physics, University of York, 2015",
	}, "\n")

	fields := extract(t, nil, text)

	assert.Equal(t, "B.Sc. Physics", fields.LastQualification)
	assert.Equal(t, "University of Leeds", fields.LastInstitution)
	assert.Contains(t, fields.Warnings, rules.NonChronologicalWarning)
}

func TestExtract_SectionHeadingIsNotADegree(t *testing.T) {
	text := "Jane Doe\nABOUT ME\nI build things.\nDiploma in Design, National Institute of Design"

	fields := extract(t, nil, text)

	assert.Equal(t, "Diploma in Design", fields.LastQualification)
	assert.Equal(t, "National Institute of Design", fields.LastInstitution)
}

func TestExtract_NeverFails(t *testing.T) {
	for _, text := range []string{"", "   ", "!!! ??? ###", "\n\n\n", "12345"} {
		fields := extract(t, nil, text)
		assert.True(t, fields.IsEmpty(), "text %q", text)
	}
}

func TestExtract_RecognizerRunsOncePerDocument(t *testing.T) {
	ner := new(mocks.MockEntityRecognizer)
	ner.On("Recognize", mock.AnythingOfType("string")).Return([]domain.Entity{
		{Text: "Acme University", Type: domain.EntityOrganization, Position: 38},
		{Text: "Jane Doe", Type: domain.EntityPerson, Position: 0},
	})
	e := rules.NewExtractor(ner)

	fields, err := e.Extract(context.Background(), "Jane Doe\njane@x.com\nMaster of Science\nAcme University")

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", fields.Name)
	assert.Equal(t, "Master of Science", fields.LastQualification)
	ner.AssertNumberOfCalls(t, "Recognize", 1)
}

func TestExtract_BlankTextSkipsRecognizer(t *testing.T) {
	ner := new(mocks.MockEntityRecognizer)
	e := rules.NewExtractor(ner)

	fields, err := e.Extract(context.Background(), "  \n ")

	require.NoError(t, err)
	assert.True(t, fields.IsEmpty())
	ner.AssertNotCalled(t, "Recognize", mock.Anything)
}
