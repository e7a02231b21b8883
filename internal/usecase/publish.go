package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/metrics"
	"NewsDesk/internal/ports"
)

// FanoutMode selects who receives live events for a new article.
type FanoutMode string

const (
	// FanoutTopic delivers only to users subscribed to the article topic.
	FanoutTopic FanoutMode = "topic"
	// FanoutBroadcast delivers to every connected session.
	FanoutBroadcast FanoutMode = "broadcast"
)

// PublisherDeps wires the driven adapters used by the publication workflow.
type PublisherDeps struct {
	Topics        ports.TopicRegistry
	Subscriptions ports.SubscriptionStore
	Articles      ports.ArticleRepository
	FakeDetector  ports.FakeDetector
	Categorizer   ports.CategoryPredictor
	Broadcaster   ports.Broadcaster
	Mirror        ports.EventMirror
	Content       ports.ContentFilter
	Mode          FanoutMode
	Logger        *slog.Logger
}

// Publisher implements the article publication workflow.
type Publisher struct {
	topics        ports.TopicRegistry
	subscriptions ports.SubscriptionStore
	articles      ports.ArticleRepository
	fake          ports.FakeDetector
	categorizer   ports.CategoryPredictor
	broadcaster   ports.Broadcaster
	mirror        ports.EventMirror
	content       ports.ContentFilter
	mode          FanoutMode
	logger        *slog.Logger
}

// NewPublisher constructs the workflow. Mode defaults to topic-scoped fan-out.
func NewPublisher(deps PublisherDeps) *Publisher {
	mode := deps.Mode
	if mode != FanoutBroadcast {
		mode = FanoutTopic
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		topics:        deps.Topics,
		subscriptions: deps.Subscriptions,
		articles:      deps.Articles,
		fake:          deps.FakeDetector,
		categorizer:   deps.Categorizer,
		broadcaster:   deps.Broadcaster,
		mirror:        deps.Mirror,
		content:       deps.Content,
		mode:          mode,
		logger:        logger,
	}
}

// Publish validates, classifies, persists and fans out a new article.
func (p *Publisher) Publish(ctx context.Context, caller domain.Principal, draft domain.ArticleDraft) (domain.Article, error) {
	if !caller.Role.Can(domain.PermPublishArticle) {
		return domain.Article{}, domain.ErrForbidden
	}

	title := strings.TrimSpace(draft.Title)
	content := strings.TrimSpace(draft.Content)
	classifierText := content
	if p.content != nil {
		title = p.content.PlainText(title)
		classifierText = p.content.PlainText(content)
		content = p.content.Sanitize(content)
	}

	missing := make(map[string]string)
	if title == "" {
		missing["title"] = "title is required"
	}
	if content == "" {
		missing["content"] = "content is required"
	}
	if len(missing) > 0 {
		metrics.PublishTotal.WithLabelValues("invalid").Inc()
		return domain.Article{}, &domain.ValidationError{Fields: missing}
	}

	if p.fake != nil && p.fake.CheckIfFake(ctx, title, classifierText) {
		metrics.PublishTotal.WithLabelValues("rejected_fake").Inc()
		p.logger.Info("article rejected as fake", "publisher_id", caller.UserID, "title", title)
		return domain.Article{}, domain.ErrRejectedAsFake
	}

	category := domain.DefaultCategory
	if p.categorizer != nil {
		if predicted := strings.TrimSpace(p.categorizer.PredictCategory(ctx, title, classifierText)); predicted != "" {
			category = predicted
		}
	}
	p.logger.Debug("predicted category", "category", category)

	topic, err := p.topics.ResolveTopic(ctx, category)
	if err != nil {
		metrics.PublishTotal.WithLabelValues("failed").Inc()
		return domain.Article{}, fmt.Errorf("resolve topic %q: %w", category, err)
	}

	article, err := p.articles.CreateArticle(ctx, domain.NewArticle{
		Title:       title,
		Content:     content,
		PublisherID: caller.UserID,
		TopicID:     topic.ID,
	})
	if err != nil {
		metrics.PublishTotal.WithLabelValues("failed").Inc()
		return domain.Article{}, fmt.Errorf("persist article: %w", err)
	}

	delivered, err := p.fanOut(ctx, topic, article)
	if err != nil {
		metrics.PublishTotal.WithLabelValues("failed").Inc()
		return domain.Article{}, fmt.Errorf("fan out article %d: %w", article.ID, err)
	}

	metrics.PublishTotal.WithLabelValues("created").Inc()

	if p.mirror != nil {
		p.mirror.Mirror(ctx, domain.PublishedEvent{
			Type:        domain.EventArticlePublished,
			ArticleID:   article.ID,
			Title:       article.Title,
			Topic:       topic.Name,
			PublisherID: article.PublisherID,
			Subscribers: delivered,
			PublishedAt: time.Now().UTC(),
			Article:     article,
		})
	}

	return article, nil
}

// fanOut pushes the article to live sessions and returns the number of addresses emitted to.
func (p *Publisher) fanOut(ctx context.Context, topic domain.Topic, article domain.Article) (int, error) {
	if p.broadcaster == nil {
		return 0, nil
	}

	if p.mode == FanoutBroadcast {
		evt := domain.LiveEvent{Name: domain.EventNewArticle, Article: article}
		if err := p.broadcaster.EmitAll(ctx, evt); err != nil {
			p.logger.Warn("broadcast new article failed", "article_id", article.ID, "error", err)
		}
		return 0, nil
	}

	subscribers, err := p.subscriptions.SubscribersOf(ctx, topic.ID)
	if err != nil {
		return 0, fmt.Errorf("load subscribers of topic %d: %w", topic.ID, err)
	}
	if len(subscribers) == 0 {
		p.logger.Info("no subscribers for topic", "topic", topic.Name, "article_id", article.ID)
		return 0, nil
	}

	for _, userID := range subscribers {
		address := domain.Address(userID)
		evt := domain.LiveEvent{Name: domain.EventNewArticle, Address: address, Article: article}
		if err := p.broadcaster.Emit(ctx, address, evt); err != nil {
			p.logger.Warn("emit new article failed", "address", address, "article_id", article.ID, "error", err)
			continue
		}
		p.logger.Debug("sent live alert", "address", address, "article_id", article.ID)
	}

	return len(subscribers), nil
}
