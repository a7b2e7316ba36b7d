package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"signcam/internal/dto"
	"signcam/internal/frame"
	"signcam/internal/metrics"
)

// Endpoint paths on the prediction service.
const (
	PredictPath      = "/predict"
	PredictFramePath = "/predict_frame"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client talks to the prediction service. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records request counts and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Client for the service at baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Predict sends an image file as the sole multipart field "file" to /predict.
// A non-2xx response that still carries a prediction or error field is returned as a response.
func (c *Client) Predict(ctx context.Context, filename string, image io.Reader) (dto.PredictResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return dto.PredictResponse{}, &RequestError{Kind: KindNetwork, Endpoint: PredictPath, Err: err}
	}
	if _, err := io.Copy(part, image); err != nil {
		return dto.PredictResponse{}, &RequestError{Kind: KindNetwork, Endpoint: PredictPath, Err: err}
	}
	if err := writer.Close(); err != nil {
		return dto.PredictResponse{}, &RequestError{Kind: KindNetwork, Endpoint: PredictPath, Err: err}
	}

	start := time.Now()
	resp, err := c.do(ctx, PredictPath, writer.FormDataContentType(), &body, true)
	c.observe(PredictPath, start, err)
	return resp, err
}

// PredictFrame posts {"image": payload} as JSON to /predict_frame. A data-URL prefix is removed.
func (c *Client) PredictFrame(ctx context.Context, payload string) (dto.PredictResponse, error) {
	data, err := json.Marshal(dto.FrameRequest{Image: frame.StripDataURL(payload)})
	if err != nil {
		return dto.PredictResponse{}, &RequestError{Kind: KindNetwork, Endpoint: PredictFramePath, Err: err}
	}

	start := time.Now()
	resp, err := c.do(ctx, PredictFramePath, "application/json", bytes.NewReader(data), false)
	c.observe(PredictFramePath, start, err)
	return resp, err
}

// do performs the POST and decodes the JSON envelope.
func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, acceptErrorBody bool) (dto.PredictResponse, error) {
	var out dto.PredictResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return out, &RequestError{Kind: KindNetwork, Endpoint: path, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return out, &RequestError{Kind: KindNetwork, Endpoint: path, Err: err}
	}
	defer func() {
		_ = res.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return out, &RequestError{Kind: KindNetwork, Endpoint: path, StatusCode: res.StatusCode, Err: err}
	}

	decodeErr := json.Unmarshal(raw, &out)
	ok := res.StatusCode >= 200 && res.StatusCode < 300

	if !ok {
		if acceptErrorBody && decodeErr == nil && out.HasContent() {
			return out, nil
		}
		return dto.PredictResponse{}, &RequestError{
			Kind:       KindStatus,
			Endpoint:   path,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", res.Status),
		}
	}
	if decodeErr != nil {
		return dto.PredictResponse{}, &RequestError{Kind: KindDecode, Endpoint: path, StatusCode: res.StatusCode, Err: decodeErr}
	}
	return out, nil
}

func (c *Client) observe(path string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
	}
	c.metrics.ObserveServiceRequest(strings.TrimPrefix(path, "/"), outcome, time.Since(start))
}
