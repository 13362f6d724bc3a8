package pdftext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls the embedded text layer out of PDF documents. Scanned
// PDFs without a text layer come back empty, which downstream treats as a
// recognition failure.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// ExtractText walks all pages and concatenates their plain text. onPage, if
// non-nil, is invoked after each page with the pages done so far and the
// total page count.
func (e *Extractor) ExtractText(data []byte, onPage func(done, total int)) (text string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	var builder strings.Builder
	for pageNum := 1; pageNum <= total; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", pageNum, err)
		}
		builder.WriteString(pageText)
		builder.WriteString("\n")
		if onPage != nil {
			onPage(pageNum, total)
		}
	}

	return strings.TrimSpace(builder.String()), nil
}
