package domain

import "time"

// EventNewArticle is the live event name pushed to subscriber sessions.
const EventNewArticle = "new-article"

// EventArticlePublished is the type used for outbound mirror events.
const EventArticlePublished = "article.published"

// LiveEvent is a single frame delivered to a notification address.
type LiveEvent struct {
	Name    string  `json:"event"`
	Address string  `json:"address"`
	Article Article `json:"article"`
}

// PublishedEvent is mirrored to external sinks once per publication.
type PublishedEvent struct {
	Type        string    `json:"type"`
	ArticleID   int64     `json:"article_id"`
	Title       string    `json:"title"`
	Topic       string    `json:"topic"`
	PublisherID int64     `json:"publisher_id"`
	Subscribers int       `json:"subscribers"`
	PublishedAt time.Time `json:"published_at"`
	Article     Article   `json:"article"`
}
