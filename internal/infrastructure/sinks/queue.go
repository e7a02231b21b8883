package sinks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"NewsDesk/internal/domain"
)

// queueSender abstracts provider specific queue clients.
type queueSender interface {
	Send(ctx context.Context, payload []byte, attrs map[string]string) (string, error)
}

// queueSink forwards events to a cloud queue provider.
type queueSink struct {
	id       string
	provider string
	sender   queueSender
	logger   *slog.Logger
}

func newQueueSink(ctx context.Context, cfg Config, logger *slog.Logger) (Sink, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("sink %q missing queue configuration", cfg.ID)
	}

	var (
		sender queueSender
		err    error
	)
	switch cfg.Queue.Provider {
	case ProviderAWSSQS:
		sender, err = newSQSSender(ctx, cfg.Queue.SQS)
	case ProviderAWSSNS:
		sender, err = newSNSSender(ctx, cfg.Queue.SNS)
	case ProviderGCP:
		sender, err = newPubSubSender(ctx, cfg.Queue.GCP)
	default:
		err = fmt.Errorf("queue provider %q is not supported", cfg.Queue.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &queueSink{id: cfg.ID, provider: cfg.Queue.Provider, sender: sender, logger: logger}, nil
}

func (s *queueSink) ID() string   { return s.id }
func (s *queueSink) Type() string { return TypeQueue }

func (s *queueSink) Deliver(ctx context.Context, evt domain.PublishedEvent) error {
	payload, err := marshalEvent(evt)
	if err != nil {
		return err
	}

	msgID, err := s.sender.Send(ctx, payload, eventAttributes(evt))
	if err != nil {
		return fmt.Errorf("queue provider %s send failed: %w", s.provider, err)
	}
	s.logger.Debug("queue sink delivered event", "provider", s.provider, "message_id", msgID, "article_id", evt.ArticleID)
	return nil
}

// Close releases the provider client when it holds one.
func (s *queueSink) Close() error {
	if c, ok := s.sender.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func eventAttributes(evt domain.PublishedEvent) map[string]string {
	return map[string]string{
		"event_type": evt.Type,
		"topic":      evt.Topic,
		"article_id": strconv.FormatInt(evt.ArticleID, 10),
	}
}
