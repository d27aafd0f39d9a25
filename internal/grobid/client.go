// Package grobid is a small client for the GROBID document-analysis service.
package grobid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is where a local GROBID container listens.
	DefaultBaseURL = "http://localhost:8070"

	// DefaultTimeout bounds a single header extraction request.
	DefaultTimeout = 120 * time.Second

	// AliveTimeout bounds the health check.
	AliveTimeout = 5 * time.Second

	// DefaultRateLimit keeps a batch from flooding a shared instance.
	DefaultRateLimit = 10.0

	headerEndpoint = "/api/processHeaderDocument"
	aliveEndpoint  = "/api/isalive"
)

// Client is a rate-limited HTTP client for GROBID.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the GROBID base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit sets the maximum number of requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a new GROBID client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsAlive reports whether the service answers its health check.
func (c *Client) IsAlive(ctx context.Context) bool {
	return c.Ping(ctx) == nil
}

// Ping runs the health check. Any failure wraps ErrUnavailable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, AliveTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+aliveEndpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrUnavailable, err)
	}
	s := strings.ToLower(strings.TrimSpace(string(body)))
	if strings.Contains(s, "true") || strings.Contains(s, "alive") || s == "ok" {
		return nil
	}
	return fmt.Errorf("%w: health check answered %q (status %d)", ErrUnavailable, firstLine(s), resp.StatusCode)
}

// ProcessHeader uploads a PDF and returns the TEI XML of its header.
// Only the first two pages are analysed and no external consolidation is
// requested, so results depend on the document alone.
func (c *Client) ProcessHeader(ctx context.Context, pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}
	return c.ProcessHeaderBytes(ctx, filepath.Base(pdfPath), data)
}

// ProcessHeaderBytes is ProcessHeader for an in-memory PDF.
func (c *Client) ProcessHeaderBytes(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, contentType, err := multipartBody("input", fileName, data)
	if err != nil {
		return "", fmt.Errorf("building request body: %w", err)
	}

	params := url.Values{}
	params.Set("consolidateHeader", "0")
	params.Set("start", "1")
	params.Set("end", "2")
	endpoint := c.baseURL + headerEndpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	if resp.StatusCode >= 400 {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    firstLine(string(out)),
			Path:       fileName,
		}
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return "", fmt.Errorf("%w: empty body (status %d)", ErrInvalidResponse, resp.StatusCode)
	}

	return string(out), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(field, fileName string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", "application/pdf")

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "no message"
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
