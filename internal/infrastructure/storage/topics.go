package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"NewsDesk/internal/domain"
)

// ResolveTopic returns the topic with the given name, creating it when absent.
// The upsert relies on the unique name constraint so concurrent callers converge on one row.
func (r *PostgresRepository) ResolveTopic(ctx context.Context, name string) (domain.Topic, error) {
	return r.resolveTopic(ctx, r.db, name)
}

func (r *PostgresRepository) resolveTopic(ctx context.Context, q Querier, name string) (domain.Topic, error) {
	query, args, err := r.psql.
		Insert("topics").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id, name, created_at").
		ToSql()
	if err != nil {
		return domain.Topic{}, fmt.Errorf("build topic upsert: %w", err)
	}

	var t domain.Topic
	if err := q.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
		return domain.Topic{}, fmt.Errorf("upsert topic %q: %w", name, err)
	}
	return t, nil
}

// topicByName looks a topic up without creating it.
func (r *PostgresRepository) topicByName(ctx context.Context, q Querier, name string) (domain.Topic, error) {
	query, args, err := r.psql.
		Select("id", "name", "created_at").
		From("topics").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return domain.Topic{}, fmt.Errorf("build topic lookup: %w", err)
	}

	var t domain.Topic
	if err := q.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Topic{}, domain.ErrTopicNotFound
		}
		return domain.Topic{}, fmt.Errorf("select topic %q: %w", name, err)
	}
	return t, nil
}
