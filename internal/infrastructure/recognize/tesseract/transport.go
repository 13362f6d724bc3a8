package tesseract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

type sidecarResponse struct {
	Data struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
		Exit   struct {
			Code *int `json:"code"`
		} `json:"exit"`
	} `json:"data"`
}

func (c *Client) postImage(ctx context.Context, image []byte, filename, language string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	options, err := json.Marshal(map[string]any{"languages": []string{language}})
	if err != nil {
		return "", fmt.Errorf("marshal ocr options: %w", err)
	}
	if err := form.WriteField("options", string(options)); err != nil {
		return "", fmt.Errorf("write ocr options: %w", err)
	}

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create ocr form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("write ocr form file: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("finalize ocr form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tesseract", &body)
	if err != nil {
		return "", fmt.Errorf("create ocr request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tesseract request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", newHTTPStatusError("recognize", resp)
	}

	var decoded sidecarResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}
	if decoded.Data.Exit.Code != nil && *decoded.Data.Exit.Code != 0 {
		return "", fmt.Errorf("tesseract exited with code %d: %s",
			*decoded.Data.Exit.Code, strings.TrimSpace(decoded.Data.Stderr))
	}
	return decoded.Data.Stdout, nil
}

func newHTTPStatusError(operation string, resp *http.Response) *HTTPStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}
