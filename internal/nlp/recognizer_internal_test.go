package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cvbatch/internal/domain"
)

func TestLabelFor(t *testing.T) {
	typ, ok := labelFor("PERSON")
	assert.True(t, ok)
	assert.Equal(t, domain.EntityPerson, typ)

	typ, ok = labelFor("GPE")
	assert.True(t, ok)
	assert.Equal(t, domain.EntityGPE, typ)

	_, ok = labelFor("MONEY")
	assert.False(t, ok)
}

func TestLocate(t *testing.T) {
	text := "Paris office, then Paris again"

	assert.Equal(t, 0, locate(text, "Paris", 0))
	assert.Equal(t, 19, locate(text, "Paris", 5))
	assert.Equal(t, 0, locate(text, "Paris", 25))
	assert.Equal(t, -1, locate(text, "Berlin", 0))
	assert.Equal(t, -1, locate(text, "", 0))
}
