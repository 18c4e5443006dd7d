package textextract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

const defaultMaxPartBytes = 32 << 20

// DOCXDecoder reads paragraph and table text from the WordprocessingML parts
// of a DOCX package. Headers come first since resumes often keep contact
// details there.
type DOCXDecoder struct {
	maxPartBytes int64
}

// NewDOCXDecoder creates a DOCXDecoder. maxPartBytes bounds each decompressed
// XML part; zero selects a default.
func NewDOCXDecoder(maxPartBytes int64) *DOCXDecoder {
	if maxPartBytes <= 0 {
		maxPartBytes = defaultMaxPartBytes
	}
	return &DOCXDecoder{maxPartBytes: maxPartBytes}
}

func (d *DOCXDecoder) Decode(ctx context.Context, data []byte) (string, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("opening docx package: %w", err)
	}

	var body *zip.File
	var headers []*zip.File
	for _, f := range zr.File {
		switch {
		case f.Name == "word/document.xml":
			body = f
		case path.Dir(f.Name) == "word" && strings.HasPrefix(path.Base(f.Name), "header") && strings.HasSuffix(f.Name, ".xml"):
			headers = append(headers, f)
		}
	}
	if body == nil {
		return "", nil, errors.New("docx package has no word/document.xml")
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].Name < headers[j].Name })

	var sb strings.Builder
	var warnings []string
	for _, h := range headers {
		if err := d.readPart(h, &sb); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped %s: %v", h.Name, err))
		}
	}
	if err := ctx.Err(); err != nil {
		return "", warnings, err
	}
	if err := d.readPart(body, &sb); err != nil {
		return "", warnings, err
	}
	return sb.String(), warnings, nil
}

func (d *DOCXDecoder) readPart(f *zip.File, sb *strings.Builder) error {
	if f.UncompressedSize64 > uint64(d.maxPartBytes) {
		return fmt.Errorf("%s exceeds %d bytes", f.Name, d.maxPartBytes)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	return wordText(io.LimitReader(rc, d.maxPartBytes), sb)
}

// wordText streams WordprocessingML, writing w:t runs and turning paragraph
// ends and breaks into newlines and tabs into spaces.
func wordText(r io.Reader, sb *strings.Builder) error {
	dec := xml.NewDecoder(r)
	inText := false
	runDepth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parsing xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				if runDepth > 0 {
					sb.WriteByte(' ')
				}
			case "br", "cr":
				if runDepth > 0 {
					sb.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				runDepth--
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			case "tc":
				sb.WriteByte(' ')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}
