package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"NewsDesk/internal/domain"
)

// CreateUser inserts an account. A duplicate email yields domain.ErrEmailTaken.
func (r *PostgresRepository) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	query, args, err := r.psql.
		Insert("users").
		Columns("name", "email", "password_hash", "role").
		Values(user.Name, user.Email, user.PasswordHash, string(user.Role)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("build user insert: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&user.ID, &user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// UserByEmail returns the account registered under email or domain.ErrUserNotFound.
func (r *PostgresRepository) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	query, args, err := r.psql.
		Select("id", "name", "email", "password_hash", "role", "created_at").
		From("users").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("build user query: %w", err)
	}

	var (
		u    domain.User
		role string
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}
