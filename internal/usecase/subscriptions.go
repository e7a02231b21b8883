package usecase

import (
	"context"
	"fmt"
	"strings"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// Subscriptions manages the topics a user follows.
type Subscriptions struct {
	store ports.SubscriptionStore
}

// NewSubscriptions wires the subscription store.
func NewSubscriptions(store ports.SubscriptionStore) *Subscriptions {
	return &Subscriptions{store: store}
}

// Subscribe registers interest in a topic, creating the topic on first use.
func (s *Subscriptions) Subscribe(ctx context.Context, caller domain.Principal, topicName string) (domain.Subscription, error) {
	name, err := topicNameOf(caller, topicName)
	if err != nil {
		return domain.Subscription{}, err
	}

	sub, err := s.store.Subscribe(ctx, caller.UserID, name)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("subscribe user %d to %q: %w", caller.UserID, name, err)
	}
	return sub, nil
}

// Unsubscribe removes the subscription. Unknown topics and missing rows are reported as not found.
func (s *Subscriptions) Unsubscribe(ctx context.Context, caller domain.Principal, topicName string) (domain.Subscription, error) {
	name, err := topicNameOf(caller, topicName)
	if err != nil {
		return domain.Subscription{}, err
	}

	sub, err := s.store.Unsubscribe(ctx, caller.UserID, name)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("unsubscribe user %d from %q: %w", caller.UserID, name, err)
	}
	return sub, nil
}

// Topics lists the topics the caller is subscribed to.
func (s *Subscriptions) Topics(ctx context.Context, caller domain.Principal) ([]domain.Topic, error) {
	if !caller.Role.Can(domain.PermManageSubscriptions) {
		return nil, domain.ErrForbidden
	}
	topics, err := s.store.TopicsOf(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list topics of user %d: %w", caller.UserID, err)
	}
	return topics, nil
}

func topicNameOf(caller domain.Principal, raw string) (string, error) {
	if !caller.Role.Can(domain.PermManageSubscriptions) {
		return "", domain.ErrForbidden
	}
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", domain.NewValidationError("topicName", "topic name is required")
	}
	return name, nil
}
