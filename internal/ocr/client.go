package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrUpstreamTimeout is returned when the recognition service does not
// answer within the configured deadline. Ingestion fails closed: nothing is
// appended and the caller may retry the upload.
var ErrUpstreamTimeout = errors.New("recognition service timeout")

// Result is the recognition service's best-effort guess for a receipt.
// Both fields are untrusted until they pass the Validator.
type Result struct {
	Store string  `json:"store"`
	Total float64 `json:"total"`
}

// Client calls the external receipt-recognition service. The HTTP call is
// bounded by a timeout and happens strictly before any ledger lock is
// taken; a hung service can never stall appends.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the recognition service at baseURL
// (e.g. "http://127.0.0.1:5000").
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Recognize uploads the receipt image and returns the service's guess.
func (c *Client) Recognize(ctx context.Context, filename string, image io.Reader) (Result, error) {
	var body strings.Builder
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return Result{}, fmt.Errorf("read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return Result{}, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", strings.NewReader(body.String()))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return Result{}, ErrUpstreamTimeout
		}
		return Result{}, fmt.Errorf("recognition request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("recognition service: unexpected status %d", resp.StatusCode)
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode recognition response: %w", err)
	}
	return out, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
