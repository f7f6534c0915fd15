package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrExtract = errors.New("text extraction failed")

// Client talks to the OCR sidecar. An image with no recognizable text is
// not an error; Extract returns an empty string and callers short-circuit
// before classification.
type Client struct {
	base string
	hc   *http.Client
	log  *zap.Logger
}

func New(baseURL string, timeout time.Duration, l *zap.Logger) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
		log:  l,
	}
}

type extractResponse struct {
	Text string `json:"text"`
}

func (c *Client) Extract(ctx context.Context, filename string, image io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/extract", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtract, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: backend returned %d: %s", ErrExtract, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var er extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrExtract, err)
	}

	text := strings.TrimSpace(er.Text)
	c.log.Debug("extracted text",
		zap.Int("chars", len(text)),
		zap.Duration("latency", time.Since(start)),
	)
	return text, nil
}
