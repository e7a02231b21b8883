package sinks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"NewsDesk/internal/domain"
)

// httpSink posts the event as JSON to a webhook.
type httpSink struct {
	id      string
	url     string
	method  string
	headers map[string]string
	client  *resty.Client
	logger  *slog.Logger
}

func newHTTPSink(_ context.Context, cfg Config, logger *slog.Logger) (Sink, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("sink %q missing http configuration", cfg.ID)
	}
	return &httpSink{
		id:      cfg.ID,
		url:     cfg.HTTP.URL,
		method:  cfg.HTTP.Method,
		headers: cfg.HTTP.Headers,
		client:  resty.New().SetTimeout(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		logger:  logger,
	}, nil
}

func (s *httpSink) ID() string   { return s.id }
func (s *httpSink) Type() string { return TypeHTTP }

func (s *httpSink) Deliver(ctx context.Context, evt domain.PublishedEvent) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(s.headers).
		SetBody(evt).
		Execute(s.method, s.url)
	if err != nil {
		return fmt.Errorf("http sink request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("http sink %s responded %s", s.url, resp.Status())
	}
	s.logger.Debug("http sink delivered event", "article_id", evt.ArticleID, "status", resp.StatusCode())
	return nil
}
