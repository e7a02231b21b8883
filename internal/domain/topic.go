package domain

import "time"

// Topic is a named category articles are grouped under.
type Topic struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription records a user's interest in a topic. (UserID, TopicID) is unique.
type Subscription struct {
	UserID    int64     `json:"userId"`
	TopicID   int64     `json:"topicId"`
	CreatedAt time.Time `json:"createdAt"`
}
