package tesseract

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cristobalnm/permit-intake/internal/infrastructure/resilience"
)

// Client talks to a tesseract-server sidecar over HTTP. The sidecar exposes
// POST /tesseract taking a multipart form with the image and an options
// document, and replies with the OCR process output.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	// RequestTimeout bounds one OCR round trip. OCR on a full-page scan can
	// take tens of seconds.
	RequestTimeout time.Duration
	Executor       *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.Executor,
	}
}

// ExtractText runs OCR on the image and returns the recognized text.
func (c *Client) ExtractText(ctx context.Context, image io.Reader, filename, language string) (string, error) {
	// The image is buffered up front so retries can resend the body.
	payload, err := io.ReadAll(image)
	if err != nil {
		return "", err
	}

	var text string
	call := func(callCtx context.Context) error {
		out, err := c.postImage(callCtx, payload, filename, language)
		if err != nil {
			return err
		}
		text = out
		return nil
	}

	if c.executor != nil {
		err = c.executor.Do(ctx, "tesseract.recognize", classifySidecarError, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("ocr request", err)
	}
	return strings.TrimSpace(text), nil
}
