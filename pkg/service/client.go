// Package service talks to the remote analysis service that scrapes an
// article and scores it.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/elonfeng/lens/pkg/analysis"
)

// DefaultBaseURL is the public analysis service.
const DefaultBaseURL = "https://project-lens-api.onrender.com"

const maxBody = 4 << 20

// ErrInvalidURL is returned before any request is made when the article URL
// is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("非網址格式: article url must be an absolute http or https url")

// StatusError is a non-2xx reply from the service.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("analysis service status %d", e.Code)
	}
	return fmt.Sprintf("analysis service status %d: %s", e.Code, e.Detail)
}

// Client posts article URLs to the analysis service and adapts the replies.
// It is safe for concurrent use; each call returns its own Result.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	opts    analysis.Options
	log     logrus.FieldLogger
}

// NewClient creates a client. rpm <= 0 disables pacing.
func NewClient(baseURL string, timeout time.Duration, rpm int, opts analysis.Options, log logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	limit := rate.Inf
	if rpm > 0 {
		limit = rate.Limit(float64(rpm) / 60.0)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		log:     log,
	}
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

// Analyze asks the service to analyze articleURL. Failures are returned as
// is: ErrInvalidURL, *StatusError, transport errors, or the adapter's
// *analysis.SchemaError and *analysis.ValidationError. Nothing is retried.
func (c *Client) Analyze(ctx context.Context, articleURL string) (*analysis.Result, error) {
	if err := ValidateURL(articleURL); err != nil {
		return nil, err
	}
	articleURL = strings.TrimSpace(articleURL)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("limiter wait: %w", err)
	}

	body, err := json.Marshal(map[string]string{"url": articleURL})
	if err != nil {
		return nil, fmt.Errorf("marshal scrape request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "lens/1.0")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call analysis service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read analysis response: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"url":     articleURL,
		"status":  resp.StatusCode,
		"bytes":   len(raw),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("analysis service replied")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Detail: errorDetail(raw)}
	}

	return analysis.Adapt([]byte(stripCodeFence(string(raw))), c.opts)
}

// errorDetail pulls FastAPI's {"detail": ...} out of an error body, falling
// back to a short excerpt of the raw body.
func errorDetail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		return string(body.Detail)
	}
	return truncate(strings.TrimSpace(string(raw)), 200)
}

// stripCodeFence removes a Markdown ``` fence some model-backed services wrap
// their JSON in.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	if idx := strings.Index(raw[3:], "\n"); idx >= 0 {
		raw = raw[3+idx+1:]
	} else {
		raw = raw[3:]
	}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
