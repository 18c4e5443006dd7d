package textextract

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
)

func glyphs(x, y, w float64, s string) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		out = append(out, pdf.Text{FontSize: 10, X: x, Y: y, W: w, S: string(r)})
		x += w
	}
	return out
}

func TestLayoutLines(t *testing.T) {
	tests := []struct {
		name   string
		glyphs []pdf.Text
		want   []string
	}{
		{
			name:   "baseline change starts a new line",
			glyphs: append(glyphs(72, 720, 0, "Jane Doe"), glyphs(72, 706, 0, "jane@x.com")...),
			want:   []string{"Jane Doe", "jane@x.com"},
		},
		{
			name:   "small baseline jitter stays on the line",
			glyphs: append(glyphs(72, 720, 5, "B.Tech"), glyphs(112, 721.5, 5, "2019")...),
			want:   []string{"B.Tech 2019"},
		},
		{
			name:   "horizontal gap inserts a space",
			glyphs: append(glyphs(72, 500, 5, "Pune"), glyphs(150, 500, 5, "India")...),
			want:   []string{"Pune India"},
		},
		{
			name:   "adjacent runs are joined without a space",
			glyphs: append(glyphs(72, 500, 5, "jane@"), glyphs(97, 500, 5, "x.com")...),
			want:   []string{"jane@x.com"},
		},
		{
			name: "line break glyph ends the line",
			glyphs: append(append(glyphs(72, 500, 0, "Skills"),
				pdf.Text{FontSize: 10, X: 100, Y: 500, S: "\n"}),
				glyphs(72, 500, 0, "Go")...),
			want: []string{"Skills", "Go"},
		},
		{
			name:   "blank glyphs produce nothing",
			glyphs: glyphs(72, 500, 5, "   "),
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, layoutLines(tt.glyphs))
		})
	}
}
