package textextract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cvbatch/internal/textextract"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses spaces", "Jane   Doe\t\tEngineer", "Jane Doe Engineer"},
		{"keeps line breaks", "Jane Doe\r\n221B Baker Street\rLondon", "Jane Doe\n221B Baker Street\nLondon"},
		{"drops blank lines", "\n\n  Jane  \n\n\n Doe \n", "Jane\nDoe"},
		{"strips control characters", "Ja\x00ne\x07 Doe", "Jane Doe"},
		{"unfolds ligatures", "O\ufb03ce \ufb01le", "Office file"},
		{"non-breaking spaces", "Jane\u00a0\u00a0Doe", "Jane Doe"},
		{"byte order mark", "\ufeffJane", "Jane"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textextract.Normalize(tt.in))
		})
	}
}
