package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"NewsDesk/internal/domain"
)

var articleColumns = []string{
	"a.id", "a.title", "a.content", "a.fake_flag", "a.sentiment",
	"a.publisher_id", "u.name", "a.created_at",
}

// CreateArticle inserts the article and its topic link in one transaction and
// returns it with the topic and publisher summary attached.
func (r *PostgresRepository) CreateArticle(ctx context.Context, in domain.NewArticle) (domain.Article, error) {
	article := domain.Article{
		Title:       in.Title,
		Content:     in.Content,
		PublisherID: in.PublisherID,
	}

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		query, args, err := r.psql.
			Insert("articles").
			Columns("title", "content", "fake_flag", "publisher_id").
			Values(in.Title, in.Content, false, in.PublisherID).
			Suffix("RETURNING id, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build article insert: %w", err)
		}
		if err := tx.QueryRow(ctx, query, args...).Scan(&article.ID, &article.CreatedAt); err != nil {
			return fmt.Errorf("insert article: %w", err)
		}

		query, args, err = r.psql.
			Insert("article_topics").
			Columns("article_id", "topic_id").
			Values(article.ID, in.TopicID).
			ToSql()
		if err != nil {
			return fmt.Errorf("build article topic insert: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("link article topic: %w", err)
		}

		query, args, err = r.psql.
			Select("t.id", "t.name", "t.created_at", "u.name").
			From("topics t").
			Join("users u ON u.id = ?", in.PublisherID).
			Where(sq.Eq{"t.id": in.TopicID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build article summary query: %w", err)
		}

		var topic domain.Topic
		if err := tx.QueryRow(ctx, query, args...).Scan(&topic.ID, &topic.Name, &topic.CreatedAt, &article.Publisher.Name); err != nil {
			return fmt.Errorf("load article summary: %w", err)
		}
		article.Publisher.ID = in.PublisherID
		article.Topics = []domain.Topic{topic}
		return nil
	})
	if err != nil {
		return domain.Article{}, err
	}
	return article, nil
}

// ListArticles returns every article, newest first.
func (r *PostgresRepository) ListArticles(ctx context.Context) ([]domain.Article, error) {
	query, args, err := r.psql.
		Select(articleColumns...).
		From("articles a").
		Join("users u ON u.id = a.publisher_id").
		OrderBy("a.created_at DESC", "a.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build articles query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	articles, err := pgx.CollectRows(rows, scanArticle)
	if err != nil {
		return nil, fmt.Errorf("scan articles: %w", err)
	}
	if len(articles) == 0 {
		return []domain.Article{}, nil
	}

	if err := r.attachTopics(ctx, articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// ArticleByID returns a single article or domain.ErrArticleNotFound.
func (r *PostgresRepository) ArticleByID(ctx context.Context, id int64) (domain.Article, error) {
	query, args, err := r.psql.
		Select(articleColumns...).
		From("articles a").
		Join("users u ON u.id = a.publisher_id").
		Where(sq.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build article query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return domain.Article{}, fmt.Errorf("query article %d: %w", id, err)
	}

	article, err := pgx.CollectExactlyOneRow(rows, scanArticle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Article{}, domain.ErrArticleNotFound
		}
		return domain.Article{}, fmt.Errorf("scan article %d: %w", id, err)
	}

	articles := []domain.Article{article}
	if err := r.attachTopics(ctx, articles); err != nil {
		return domain.Article{}, err
	}
	return articles[0], nil
}

// attachTopics loads the topic links of the given articles in one query.
func (r *PostgresRepository) attachTopics(ctx context.Context, articles []domain.Article) error {
	ids := make([]int64, len(articles))
	index := make(map[int64]int, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
		index[a.ID] = i
		articles[i].Topics = []domain.Topic{}
	}

	query, args, err := r.psql.
		Select("at.article_id", "t.id", "t.name", "t.created_at").
		From("article_topics at").
		Join("topics t ON t.id = at.topic_id").
		Where(sq.Eq{"at.article_id": ids}).
		OrderBy("at.article_id", "t.name").
		ToSql()
	if err != nil {
		return fmt.Errorf("build article topics query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query article topics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var articleID int64
		var t domain.Topic
		if err := rows.Scan(&articleID, &t.ID, &t.Name, &t.CreatedAt); err != nil {
			return fmt.Errorf("scan article topic: %w", err)
		}
		if i, ok := index[articleID]; ok {
			articles[i].Topics = append(articles[i].Topics, t)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}
	return nil
}

func scanArticle(row pgx.CollectableRow) (domain.Article, error) {
	var a domain.Article
	err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.FakeFlag, &a.Sentiment,
		&a.PublisherID, &a.Publisher.Name, &a.CreatedAt,
	)
	a.Publisher.ID = a.PublisherID
	return a, err
}
