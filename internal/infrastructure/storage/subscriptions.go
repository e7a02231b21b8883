package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"NewsDesk/internal/domain"
)

const subscriptionsTable = "user_topic_subscriptions"

// Subscribe resolves the topic and ensures the (user, topic) row exists.
// A repeated call returns the row created by the first one.
func (r *PostgresRepository) Subscribe(ctx context.Context, userID int64, topicName string) (domain.Subscription, error) {
	var sub domain.Subscription
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		topic, err := r.resolveTopic(ctx, tx, topicName)
		if err != nil {
			return err
		}

		query, args, err := r.psql.
			Insert(subscriptionsTable).
			Columns("user_id", "topic_id").
			Values(userID, topic.ID).
			Suffix("ON CONFLICT (user_id, topic_id) DO UPDATE SET user_id = EXCLUDED.user_id RETURNING user_id, topic_id, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build subscription upsert: %w", err)
		}

		if err := tx.QueryRow(ctx, query, args...).Scan(&sub.UserID, &sub.TopicID, &sub.CreatedAt); err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Subscription{}, err
	}
	return sub, nil
}

// Unsubscribe removes the (user, topic) row and returns it.
func (r *PostgresRepository) Unsubscribe(ctx context.Context, userID int64, topicName string) (domain.Subscription, error) {
	topic, err := r.topicByName(ctx, r.db, topicName)
	if err != nil {
		return domain.Subscription{}, err
	}

	query, args, err := r.psql.
		Delete(subscriptionsTable).
		Where(sq.Eq{"user_id": userID, "topic_id": topic.ID}).
		Suffix("RETURNING user_id, topic_id, created_at").
		ToSql()
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("build subscription delete: %w", err)
	}

	var sub domain.Subscription
	if err := r.db.QueryRow(ctx, query, args...).Scan(&sub.UserID, &sub.TopicID, &sub.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscription{}, domain.ErrSubscriptionNotFound
		}
		return domain.Subscription{}, fmt.Errorf("delete subscription: %w", err)
	}
	return sub, nil
}

// SubscribersOf lists the ids of every user subscribed to the topic.
func (r *PostgresRepository) SubscribersOf(ctx context.Context, topicID int64) ([]int64, error) {
	query, args, err := r.psql.
		Select("user_id").
		From(subscriptionsTable).
		Where(sq.Eq{"topic_id": topicID}).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscribers query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan subscribers: %w", err)
	}
	return ids, nil
}

// TopicsOf lists the topics a user is subscribed to, ordered by name.
func (r *PostgresRepository) TopicsOf(ctx context.Context, userID int64) ([]domain.Topic, error) {
	query, args, err := r.psql.
		Select("t.id", "t.name", "t.created_at").
		From(subscriptionsTable + " s").
		Join("topics t ON t.id = s.topic_id").
		Where(sq.Eq{"s.user_id": userID}).
		OrderBy("t.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user topics query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query user topics: %w", err)
	}
	defer rows.Close()

	topics := []domain.Topic{}
	for rows.Next() {
		var t domain.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return topics, nil
}
