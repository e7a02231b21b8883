package domain

import "time"

// DefaultCategory is the topic assigned when the category predictor cannot answer.
const DefaultCategory = "General"

// Article is a published news item. Only articles that passed fake detection are stored.
type Article struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	FakeFlag    bool             `json:"fakeFlag"`
	Sentiment   *string          `json:"sentiment"`
	PublisherID int64            `json:"publisherId"`
	Publisher   PublisherSummary `json:"publisher"`
	Topics      []Topic          `json:"topics"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// PublisherSummary is the public slice of a user attached to article payloads.
type PublisherSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewArticle carries the fields the publication workflow persists.
type NewArticle struct {
	Title       string
	Content     string
	PublisherID int64
	TopicID     int64
}

// ArticleDraft is the raw publish request before classification.
type ArticleDraft struct {
	Title   string
	Content string
}
