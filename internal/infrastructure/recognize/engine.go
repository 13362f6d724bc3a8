package recognize

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
	"github.com/cristobalnm/permit-intake/internal/core/ports"
)

// PDFExtractor pulls the text layer out of a PDF document.
type PDFExtractor interface {
	ExtractText(data []byte, onPage func(done, total int)) (string, error)
}

// ImageRecognizer runs OCR on a raster image.
type ImageRecognizer interface {
	ExtractText(ctx context.Context, image io.Reader, filename, language string) (string, error)
}

// Engine fetches a stored binary and routes it to the extractor matching its
// media type. It is the worker-side recognition handler.
type Engine struct {
	store  ports.ObjectStore
	pdf    PDFExtractor
	ocr    ImageRecognizer
	logger *slog.Logger
}

func NewEngine(store ports.ObjectStore, pdf PDFExtractor, ocr ImageRecognizer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, pdf: pdf, ocr: ocr, logger: logger}
}

// Handle runs recognition for one job. report receives fractional completion
// in [0,1]; fetching the binary counts for the first tenth.
func (e *Engine) Handle(ctx context.Context, job domain.RecognitionJob, report func(float64)) (string, error) {
	if report == nil {
		report = func(float64) {}
	}

	object, err := e.store.Open(ctx, job.StorageKey)
	if err != nil {
		return "", fmt.Errorf("open stored object: %w", err)
	}
	data, err := io.ReadAll(object)
	closeErr := object.Close()
	if err != nil {
		return "", fmt.Errorf("read stored object: %w", err)
	}
	if closeErr != nil {
		e.logger.Warn("close stored object", "storage_key", job.StorageKey, "error", closeErr)
	}
	report(0.1)

	language := job.Language
	if language == "" {
		language = domain.RecognitionLanguage
	}

	switch {
	case job.MimeType == "application/pdf":
		return e.pdf.ExtractText(data, func(done, total int) {
			if total > 0 {
				report(0.1 + 0.9*float64(done)/float64(total))
			}
		})
	case strings.HasPrefix(job.MimeType, "image/"):
		report(0.2)
		text, err := e.ocr.ExtractText(ctx, bytes.NewReader(data), path.Base(job.StorageKey), language)
		if err != nil {
			return "", err
		}
		report(1)
		return text, nil
	default:
		return "", fmt.Errorf("unsupported media type %q", job.MimeType)
	}
}
