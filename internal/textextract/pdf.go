package textextract

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFDecoder reads the text layer of a PDF, one output line per text line
// on the page and pages separated by a newline. pdfcpu validates the structure
// first; its verdict is advisory since many real-world PDFs fail strict
// validation yet carry a readable text layer.
type PDFDecoder struct {
	conf *model.Configuration
}

// NewPDFDecoder creates a PDFDecoder with relaxed validation.
func NewPDFDecoder() *PDFDecoder {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFDecoder{conf: conf}
}

func (d *PDFDecoder) Decode(ctx context.Context, data []byte) (string, []string, error) {
	var warnings []string

	pages, err := d.pageCount(data)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("pdf structure check failed: %v", err))
	} else if pages == 0 {
		return "", warnings, fmt.Errorf("pdf has no pages")
	}

	if err := ctx.Err(); err != nil {
		return "", warnings, err
	}

	text, err := plainText(data)
	if err != nil {
		return "", warnings, err
	}
	return text, warnings, nil
}

func (d *PDFDecoder) pageCount(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()
	return api.PageCount(bytes.NewReader(data), d.conf)
}

func plainText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text layer: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		if lines := layoutLines(p.Content().Text); len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(pages, "\n"), nil
}

// layoutLines rebuilds text lines from positioned glyphs in content-stream
// order. A baseline move of more than half the font size starts a new line;
// a horizontal gap wider than wordGap font sizes inserts a space.
func layoutLines(glyphs []pdf.Text) []string {
	const wordGap = 0.15

	var (
		lines   []string
		cur     strings.Builder
		started bool
		lineY   float64
		prev    pdf.Text
	)
	flush := func() {
		if line := strings.TrimSpace(cur.String()); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
		started = false
	}

	for _, g := range glyphs {
		if g.S == "\n" {
			flush()
			continue
		}
		if g.S == "" {
			continue
		}
		size := math.Max(math.Abs(g.FontSize), 1)
		if started && math.Abs(g.Y-lineY) > size/2 {
			flush()
		}
		if !started {
			started = true
			lineY = g.Y
		} else if prev.W > 0 && g.X-(prev.X+prev.W) > wordGap*size &&
			!strings.HasSuffix(cur.String(), " ") && g.S != " " {
			cur.WriteByte(' ')
		}
		cur.WriteString(g.S)
		prev = g
	}
	flush()
	return lines
}
