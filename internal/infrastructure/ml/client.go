package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"NewsDesk/internal/config"
	"NewsDesk/internal/domain"
	"NewsDesk/internal/metrics"
	"NewsDesk/internal/ports"
)

const (
	defaultFakeTimeout     = 5 * time.Second
	defaultCategoryTimeout = 10 * time.Second
	maxErrorSnippet        = 512
)

var errMissingField = errors.New("response is missing the prediction field")

// Client talks to the external classification service.
//
// The two calls have different fallback policies. CheckIfFake fails open and
// reports genuine on any failure so publishing keeps working while the
// detector is down. PredictCategory answers domain.DefaultCategory so every
// article still resolves to a topic.
type Client struct {
	fakeURL      string
	categoryURL  string
	apiKey       string
	fakeHTTP     *resty.Client
	categoryHTTP *resty.Client
	logger       *slog.Logger
}

var _ ports.FakeDetector = (*Client)(nil)
var _ ports.CategoryPredictor = (*Client)(nil)

// NewClient creates reusable HTTP clients with one bounded timeout per call.
func NewClient(cfg config.MLConfig, logger *slog.Logger) *Client {
	fakeTimeout := cfg.FakeTimeout
	if fakeTimeout <= 0 {
		fakeTimeout = defaultFakeTimeout
	}
	categoryTimeout := cfg.CategoryTimeout
	if categoryTimeout <= 0 {
		categoryTimeout = defaultCategoryTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		fakeURL:      strings.TrimSpace(cfg.FakeNewsURL),
		categoryURL:  strings.TrimSpace(cfg.CategoryURL),
		apiKey:       cfg.APIKey,
		fakeHTTP:     resty.New().SetTimeout(fakeTimeout),
		categoryHTTP: resty.New().SetTimeout(categoryTimeout),
		logger:       logger,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

// CheckIfFake reports whether the classifier labels the article as fake.
func (c *Client) CheckIfFake(ctx context.Context, title, content string) bool {
	start := time.Now()
	defer func() { metrics.ClassifierDuration.WithLabelValues("fake").Observe(time.Since(start).Seconds()) }()

	var resp struct {
		Prediction json.RawMessage `json:"prediction"`
	}
	if err := c.post(ctx, c.fakeHTTP, c.fakeURL, classifyRequest{Text: joinText(title, content)}, &resp); err != nil {
		c.fallback("fake", err, "defaulting to genuine")
		return false
	}

	fake, err := parsePrediction(resp.Prediction)
	if err != nil {
		c.fallback("fake", err, "defaulting to genuine")
		return false
	}
	return fake
}

// PredictCategory returns the predicted topic name or domain.DefaultCategory.
func (c *Client) PredictCategory(ctx context.Context, title, content string) string {
	start := time.Now()
	defer func() { metrics.ClassifierDuration.WithLabelValues("category").Observe(time.Since(start).Seconds()) }()

	var resp struct {
		PredictedCategory string `json:"predicted_category"`
	}
	if err := c.post(ctx, c.categoryHTTP, c.categoryURL, classifyRequest{Text: joinText(title, content)}, &resp); err != nil {
		c.fallback("category", err, "defaulting to "+domain.DefaultCategory)
		return domain.DefaultCategory
	}

	category := strings.TrimSpace(resp.PredictedCategory)
	if category == "" {
		c.fallback("category", errMissingField, "defaulting to "+domain.DefaultCategory)
		return domain.DefaultCategory
	}
	return category
}

func (c *Client) post(ctx context.Context, client *resty.Client, endpoint string, payload, v any) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint not configured")
	}

	req := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload)
	if c.apiKey != "" {
		req.SetAuthToken(c.apiKey)
	}

	resp, err := req.Post(endpoint)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("unexpected status %d body: %s", resp.StatusCode(), snippet(resp.Body()))
	}
	if err := json.Unmarshal(resp.Body(), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) fallback(call string, err error, outcome string) {
	reason := "error"
	switch {
	case errors.Is(err, errMissingField):
		reason = "malformed"
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		reason = "timeout"
	}
	metrics.ClassifierFallbackTotal.WithLabelValues(call, reason).Inc()
	c.logger.Warn("classification unavailable", "call", call, "reason", reason, "outcome", outcome, "error", err)
}

// parsePrediction accepts "true"/"false" strings or JSON booleans.
func parsePrediction(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, errMissingField
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("%w: unexpected prediction %s", errMissingField, snippet(raw))
	}
	return strings.EqualFold(strings.TrimSpace(s), "true"), nil
}

func joinText(title, content string) string {
	return title + " " + content
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		return s[:maxErrorSnippet] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
