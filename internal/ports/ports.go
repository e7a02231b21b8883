package ports

import (
	"context"
	"time"

	"NewsDesk/internal/domain"
)

// TopicRegistry resolves topics by their unique name, creating them on first use.
type TopicRegistry interface {
	ResolveTopic(ctx context.Context, name string) (domain.Topic, error)
}

// SubscriptionStore keeps user<->topic relations.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, userID int64, topicName string) (domain.Subscription, error)
	Unsubscribe(ctx context.Context, userID int64, topicName string) (domain.Subscription, error)
	SubscribersOf(ctx context.Context, topicID int64) ([]int64, error)
	TopicsOf(ctx context.Context, userID int64) ([]domain.Topic, error)
}

// ArticleRepository persists articles together with their topic links.
type ArticleRepository interface {
	CreateArticle(ctx context.Context, article domain.NewArticle) (domain.Article, error)
	ListArticles(ctx context.Context) ([]domain.Article, error)
	ArticleByID(ctx context.Context, id int64) (domain.Article, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
}

// FakeDetector asks the classification service whether a text is fake news.
// Implementations never fail: on any problem they answer false.
type FakeDetector interface {
	CheckIfFake(ctx context.Context, title, content string) bool
}

// CategoryPredictor asks the classification service for the article category.
// Implementations never fail: on any problem they answer domain.DefaultCategory.
type CategoryPredictor interface {
	PredictCategory(ctx context.Context, title, content string) string
}

// Broadcaster pushes live events to notification addresses without waiting for delivery.
type Broadcaster interface {
	Emit(ctx context.Context, address string, event domain.LiveEvent) error
	EmitAll(ctx context.Context, event domain.LiveEvent) error
}

// EventMirror forwards published articles to outbound sinks.
type EventMirror interface {
	Mirror(ctx context.Context, event domain.PublishedEvent)
}

// ContentFilter cleans stored content and derives classifier input.
type ContentFilter interface {
	Sanitize(content string) string
	PlainText(content string) string
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(principal domain.Principal) (string, time.Time, error)
	Verify(token string) (domain.Principal, error)
}
