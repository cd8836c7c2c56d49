// Package summarize implements driver.Summarizer against an HTTP endpoint chain.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emenda-labs/mergeassist/core/driver"
	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/pkg/logging"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "mergeassist/0.1.0"
	maxResponseSize  = 1 << 20
	maxConflictValue = 4096
)

var _ driver.Summarizer = (*Client)(nil)

// Request is the JSON body posted to a summary endpoint.
type Request struct {
	UUID               string                    `json:"uuid"`
	ObjectType         string                    `json:"object_type"`
	Name               string                    `json:"name"`
	Classification     mergespec.Classification  `json:"classification"`
	VendorChangeType   mergespec.ChangeType      `json:"vendor_change_type"`
	CustomerChangeType mergespec.ChangeType      `json:"customer_change_type"`
	Complexity         mergespec.ComplexityLevel `json:"complexity"`
	Magnitude          int                       `json:"magnitude"`
	Recommendation     mergespec.Recommendation  `json:"recommendation,omitempty"`
	Conflicts          []mergespec.FieldConflict `json:"conflicts,omitempty"`
}

// Response is the JSON body a summary endpoint answers with.
type Response struct {
	Summary string `json:"summary"`
}

// Client posts change descriptions to the first endpoint of a chain that
// answers. Endpoints answering 404, 410, 429 or 503, or failing at the network
// level, pass the request on to the next endpoint.
type Client struct {
	httpClient *http.Client
	userAgent  string
	endpoints  []string
	logger     *slog.Logger
}

// NewClient creates a Client over endpoints. A non-positive timeout uses 30 seconds.
func NewClient(endpoints []string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	cleaned := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		if trimmed := strings.TrimSpace(e); trimmed != "" {
			cleaned = append(cleaned, strings.TrimRight(trimmed, "/"))
		}
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
		endpoints:  cleaned,
		logger:     logger,
	}
}

// NewRequest describes r for a summary endpoint. Long conflict values are truncated.
func NewRequest(r mergespec.Result) Request {
	req := Request{
		UUID:               r.Change.UUID,
		ObjectType:         r.Change.ObjectType,
		Name:               r.Change.Name,
		Classification:     r.Change.Classification,
		VendorChangeType:   r.Change.VendorChangeType,
		CustomerChangeType: r.Change.CustomerChangeType,
		Complexity:         r.Complexity.Level,
		Magnitude:          r.Complexity.Magnitude,
	}
	if r.Guidance != nil {
		req.Recommendation = r.Guidance.Recommendation
		for _, c := range r.Guidance.Conflicts {
			c.BaseValue = truncate(c.BaseValue)
			c.CustomerValue = truncate(c.CustomerValue)
			c.VendorValue = truncate(c.VendorValue)
			req.Conflicts = append(req.Conflicts, c)
		}
	}
	return req
}

// Summarize returns the first summary produced by the endpoint chain.
func (c *Client) Summarize(ctx context.Context, r mergespec.Result) (string, error) {
	if len(c.endpoints) == 0 {
		return "", errors.New("no summary endpoints configured")
	}

	body, err := json.Marshal(NewRequest(r))
	if err != nil {
		return "", fmt.Errorf("encoding summary request: %w", err)
	}

	var lastErr error
	for i, endpoint := range c.endpoints {
		summary, tryNext, err := c.post(ctx, endpoint, body)
		if err == nil {
			return summary, nil
		}
		lastErr = err
		if !tryNext || ctx.Err() != nil {
			return "", err
		}
		if i < len(c.endpoints)-1 {
			c.logger.Debug("Summary endpoint unavailable, trying next", "endpoint", endpoint, "error", err)
		}
	}
	return "", fmt.Errorf("no summary endpoint answered for %s: %w", r.Change.UUID, lastErr)
}

// post performs a single request. tryNext signals that the caller should
// attempt the next endpoint in the chain.
func (c *Client) post(ctx context.Context, url string, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return "", true, fmt.Errorf("endpoint returned %d for %s", resp.StatusCode, url)
	default:
		return "", false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", false, fmt.Errorf("reading response body from %s: %w", url, err)
	}
	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", false, fmt.Errorf("decoding response from %s: %w", url, err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", false, fmt.Errorf("empty summary from %s", url)
	}
	return strings.TrimSpace(out.Summary), false, nil
}

func truncate(s string) string {
	if len(s) <= maxConflictValue {
		return s
	}
	cut := maxConflictValue
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
