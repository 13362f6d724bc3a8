package recognize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

type storeFake struct {
	objects map[string][]byte
}

func (s *storeFake) Put(_ context.Context, key string, data io.Reader) error {
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = payload
	return nil
}

func (s *storeFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	payload, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object %q", key)
	}
	return io.NopCloser(strings.NewReader(string(payload))), nil
}

func (s *storeFake) PublicURL(key string) string { return "http://files.test/" + key }

func (s *storeFake) Delete(_ context.Context, keys []string) error {
	for _, key := range keys {
		delete(s.objects, key)
	}
	return nil
}

type pdfFake struct {
	text  string
	err   error
	pages int
}

func (p *pdfFake) ExtractText(_ []byte, onPage func(done, total int)) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	for i := 1; i <= p.pages; i++ {
		onPage(i, p.pages)
	}
	return p.text, nil
}

type ocrFake struct {
	text     string
	err      error
	filename string
	language string
}

func (o *ocrFake) ExtractText(_ context.Context, image io.Reader, filename, language string) (string, error) {
	if _, err := io.ReadAll(image); err != nil {
		return "", err
	}
	o.filename = filename
	o.language = language
	return o.text, o.err
}

func engineFixture(pdf *pdfFake, ocr *ocrFake) (*Engine, *storeFake) {
	store := &storeFake{objects: map[string][]byte{
		"docs/biz-1/100_abc.pdf": []byte("%PDF-fake"),
		"docs/biz-1/200_def.png": []byte("png bytes"),
	}}
	engine := NewEngine(store, pdf, ocr, slog.New(slog.DiscardHandler))
	return engine, store
}

func TestHandleRoutesPDFToTextExtractor(t *testing.T) {
	pdf := &pdfFake{text: "Resolución Sanitaria emitida el 01/06/2024", pages: 3}
	engine, _ := engineFixture(pdf, &ocrFake{})

	var reported []float64
	text, err := engine.Handle(context.Background(), domain.RecognitionJob{
		ItemID:     "item-1",
		StorageKey: "docs/biz-1/100_abc.pdf",
		MimeType:   "application/pdf",
	}, func(fraction float64) {
		reported = append(reported, fraction)
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if text != pdf.text {
		t.Fatalf("unexpected text %q", text)
	}
	if len(reported) != 4 {
		t.Fatalf("expected fetch plus 3 page reports, got %v", reported)
	}
	if reported[0] != 0.1 || reported[len(reported)-1] != 1 {
		t.Fatalf("progress must span 0.1 to 1, got %v", reported)
	}
	for i := 1; i < len(reported); i++ {
		if reported[i] < reported[i-1] {
			t.Fatalf("progress went backwards: %v", reported)
		}
	}
}

func TestHandleRoutesImageToOCR(t *testing.T) {
	ocr := &ocrFake{text: "Patente Municipal"}
	engine, _ := engineFixture(&pdfFake{}, ocr)

	text, err := engine.Handle(context.Background(), domain.RecognitionJob{
		ItemID:     "item-2",
		StorageKey: "docs/biz-1/200_def.png",
		MimeType:   "image/png",
	}, nil)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if text != "Patente Municipal" {
		t.Fatalf("unexpected text %q", text)
	}
	if ocr.filename != "200_def.png" {
		t.Fatalf("expected base filename, got %q", ocr.filename)
	}
	if ocr.language != domain.RecognitionLanguage {
		t.Fatalf("expected default language, got %q", ocr.language)
	}
}

func TestHandleRejectsUnknownMediaType(t *testing.T) {
	engine, _ := engineFixture(&pdfFake{}, &ocrFake{})

	_, err := engine.Handle(context.Background(), domain.RecognitionJob{
		ItemID:     "item-3",
		StorageKey: "docs/biz-1/100_abc.pdf",
		MimeType:   "application/zip",
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported media type") {
		t.Fatalf("expected unsupported media type error, got %v", err)
	}
}

func TestHandleMissingObject(t *testing.T) {
	engine, _ := engineFixture(&pdfFake{}, &ocrFake{})

	_, err := engine.Handle(context.Background(), domain.RecognitionJob{
		ItemID:     "item-4",
		StorageKey: "docs/biz-9/missing.pdf",
		MimeType:   "application/pdf",
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "open stored object") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestHandlePropagatesExtractorError(t *testing.T) {
	errParse := errors.New("parse pdf: broken xref")
	engine, _ := engineFixture(&pdfFake{err: errParse}, &ocrFake{})

	_, err := engine.Handle(context.Background(), domain.RecognitionJob{
		ItemID:     "item-5",
		StorageKey: "docs/biz-1/100_abc.pdf",
		MimeType:   "application/pdf",
	}, nil)
	if !errors.Is(err, errParse) {
		t.Fatalf("expected extractor error, got %v", err)
	}
}
