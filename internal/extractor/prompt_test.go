package extractor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"cvbatch/internal/extractor"
)

func TestBuildPrompt_NamesEveryKey(t *testing.T) {
	prompt := extractor.BuildPrompt("Jane Doe", 100)

	for _, key := range extractor.FieldKeys {
		assert.Contains(t, prompt, `"`+key+`"`)
	}
	assert.True(t, strings.HasSuffix(prompt, "Jane Doe"))
}

func TestBuildPrompt_TruncatesInput(t *testing.T) {
	text := strings.Repeat("7", 50) + strings.Repeat("9", 50)

	prompt := extractor.BuildPrompt(text, 50)

	assert.Contains(t, prompt, strings.Repeat("7", 50))
	assert.NotContains(t, prompt, "9")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", extractor.TruncateRunes("héllo", 4))
	assert.Equal(t, "héllo", extractor.TruncateRunes("héllo", 5))
	assert.Equal(t, "héllo", extractor.TruncateRunes("héllo", 0))
	assert.Equal(t, "日本", extractor.TruncateRunes("日本語", 2))
}
