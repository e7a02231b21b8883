package sinks

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type pubSubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func newPubSubSender(ctx context.Context, cfg *PubSubConfig) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gcp pubsub configuration is missing")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &pubSubSender{client: client, topic: client.Topic(cfg.Topic)}, nil
}

func (s *pubSubSender) Send(ctx context.Context, payload []byte, attrs map[string]string) (string, error) {
	res := s.topic.Publish(ctx, &pubsub.Message{Data: payload, Attributes: attrs})
	id, err := res.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("send message to pubsub: %w", err)
	}
	return id, nil
}

// Close flushes buffered publishes and releases the client.
func (s *pubSubSender) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
