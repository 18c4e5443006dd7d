package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cvbatch/internal/domain"
	"cvbatch/internal/testutil"
)

func rulesOnlyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY",
		"CVBATCH_LLM_PRIMARY_PROVIDER",
		"CVBATCH_LLM_SECONDARY_PROVIDER",
		"CVBATCH_LLM_TERTIARY_PROVIDER",
		"CVBATCH_ARCHIVE_BUCKET",
	} {
		t.Setenv(key, "")
	}
}

func writeArchive(t *testing.T) string {
	t.Helper()
	archive := testutil.BuildZip(
		testutil.File{Name: "resumes/jane.docx", Data: testutil.BuildDOCX("Jane Doe", "jane@x.com", "+1-555-0100")},
		testutil.File{Name: "resumes/notes.txt", Data: []byte("not a resume")},
		testutil.File{Name: "resumes/john.docx", Data: testutil.BuildDOCX("John Smith", "john@y.org", "+1-555-0199")},
	)
	path := filepath.Join(t.TempDir(), "batch.zip")
	require.NoError(t, os.WriteFile(path, archive, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestExtract_CSVToStdout(t *testing.T) {
	rulesOnlyEnv(t)
	input := writeArchive(t)

	stdout, stderr, err := execute(t, "extract", "--input", input, "--workers", "2")

	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Serial No", records[0][0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "Jane Doe", records[1][1])
	assert.Equal(t, "jane@x.com", records[1][3])
	assert.Equal(t, "+1-555-0100", records[1][4])
	assert.Equal(t, "2", records[2][0])
	assert.Equal(t, "John Smith", records[2][1])
	assert.Contains(t, stderr, "3 entries, 2 rows (llm 0, fallback 2), 1 skipped")
	assert.Contains(t, stderr, "skipped resumes/notes.txt: unsupported_format")
}

func TestExtract_XLSXFromOutputExtension(t *testing.T) {
	rulesOnlyEnv(t)
	input := writeArchive(t)
	output := filepath.Join(t.TempDir(), "report.xlsx")

	_, _, err := execute(t, "extract", "-i", input, "-o", output)

	require.NoError(t, err)
	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Resumes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "John Smith", rows[2][1])
}

func TestExtract_RequiresInput(t *testing.T) {
	_, _, err := execute(t, "extract")
	assert.ErrorContains(t, err, "input")
}

func TestExtract_MissingArchive(t *testing.T) {
	rulesOnlyEnv(t)
	_, _, err := execute(t, "extract", "-i", filepath.Join(t.TempDir(), "nope.zip"))
	assert.ErrorContains(t, err, "reading archive")
}

func TestExtract_InvalidArchive(t *testing.T) {
	rulesOnlyEnv(t)
	path := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a zip"), 0o600))

	_, _, err := execute(t, "extract", "-i", path)

	assert.ErrorIs(t, err, domain.ErrInvalidArchive)
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		flag, output string
		want         domain.ReportFormat
		wantErr      bool
	}{
		{"", "-", domain.ReportCSV, false},
		{"", "out.csv", domain.ReportCSV, false},
		{"", "out.XLSX", domain.ReportXLSX, false},
		{"csv", "out.xlsx", domain.ReportCSV, false},
		{"XLSX", "-", domain.ReportXLSX, false},
		{"pdf", "-", "", true},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.flag, tt.output)
		if tt.wantErr {
			assert.ErrorIs(t, err, domain.ErrInvalidReportFormat)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "flag %q output %q", tt.flag, tt.output)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cvbatch dev\n", stdout)
}
