package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"NewsDesk/internal/domain"
)

// memStore is an in-memory stand-in for the Postgres stores.
type memStore struct {
	mu            sync.Mutex
	nextTopicID   int64
	nextArticleID int64
	topics        map[string]domain.Topic
	subs          map[[2]int64]domain.Subscription
	articles      []domain.Article
	links         map[int64][]int64
	failCreate    error
	failSubs      error
}

func newMemStore() *memStore {
	return &memStore{
		topics: map[string]domain.Topic{},
		subs:   map[[2]int64]domain.Subscription{},
		links:  map[int64][]int64{},
	}
}

func (m *memStore) ResolveTopic(_ context.Context, name string) (domain.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked(name), nil
}

func (m *memStore) resolveLocked(name string) domain.Topic {
	if t, ok := m.topics[name]; ok {
		return t
	}
	m.nextTopicID++
	t := domain.Topic{ID: m.nextTopicID, Name: name, CreatedAt: time.Now()}
	m.topics[name] = t
	return t
}

func (m *memStore) Subscribe(_ context.Context, userID int64, topicName string) (domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.resolveLocked(topicName)
	key := [2]int64{userID, t.ID}
	if s, ok := m.subs[key]; ok {
		return s, nil
	}
	s := domain.Subscription{UserID: userID, TopicID: t.ID, CreatedAt: time.Now()}
	m.subs[key] = s
	return s, nil
}

func (m *memStore) Unsubscribe(_ context.Context, userID int64, topicName string) (domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.topics[topicName]
	if !ok {
		return domain.Subscription{}, domain.ErrTopicNotFound
	}
	key := [2]int64{userID, t.ID}
	s, ok := m.subs[key]
	if !ok {
		return domain.Subscription{}, domain.ErrSubscriptionNotFound
	}
	delete(m.subs, key)
	return s, nil
}

func (m *memStore) SubscribersOf(_ context.Context, topicID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSubs != nil {
		return nil, m.failSubs
	}
	var out []int64
	for key := range m.subs {
		if key[1] == topicID {
			out = append(out, key[0])
		}
	}
	return out, nil
}

func (m *memStore) TopicsOf(_ context.Context, userID int64) ([]domain.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Topic
	for _, t := range m.topics {
		if _, ok := m.subs[[2]int64{userID, t.ID}]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) CreateArticle(_ context.Context, in domain.NewArticle) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return domain.Article{}, m.failCreate
	}
	var topic domain.Topic
	for _, t := range m.topics {
		if t.ID == in.TopicID {
			topic = t
		}
	}
	m.nextArticleID++
	a := domain.Article{
		ID:          m.nextArticleID,
		Title:       in.Title,
		Content:     in.Content,
		PublisherID: in.PublisherID,
		Publisher:   domain.PublisherSummary{ID: in.PublisherID, Name: "publisher"},
		Topics:      []domain.Topic{topic},
		CreatedAt:   time.Now(),
	}
	m.articles = append(m.articles, a)
	m.links[a.ID] = append(m.links[a.ID], in.TopicID)
	return a, nil
}

func (m *memStore) ListArticles(context.Context) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Article, 0, len(m.articles))
	for i := len(m.articles) - 1; i >= 0; i-- {
		out = append(out, m.articles[i])
	}
	return out, nil
}

func (m *memStore) ArticleByID(_ context.Context, id int64) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Article{}, domain.ErrArticleNotFound
}

type stubDetector struct{ fake bool }

func (s stubDetector) CheckIfFake(context.Context, string, string) bool { return s.fake }

type stubCategorizer struct{ category string }

func (s stubCategorizer) PredictCategory(context.Context, string, string) string { return s.category }

type emitted struct {
	address string
	event   domain.LiveEvent
}

type recordingBroadcaster struct {
	mu        sync.Mutex
	events    []emitted
	broadcast []domain.LiveEvent
}

func (r *recordingBroadcaster) Emit(_ context.Context, address string, evt domain.LiveEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{address: address, event: evt})
	return nil
}

func (r *recordingBroadcaster) EmitAll(_ context.Context, evt domain.LiveEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast = append(r.broadcast, evt)
	return nil
}

func (r *recordingBroadcaster) addresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.address)
	}
	return out
}

type recordingMirror struct {
	events []domain.PublishedEvent
}

func (r *recordingMirror) Mirror(_ context.Context, evt domain.PublishedEvent) {
	r.events = append(r.events, evt)
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (plainHasher) Compare(hash, p string) error {
	if hash != "hashed:"+p {
		return errors.New("mismatch")
	}
	return nil
}

type stubTokens struct{}

func (stubTokens) Issue(p domain.Principal) (string, time.Time, error) {
	return "token-" + string(p.Role), time.Now().Add(time.Hour), nil
}

func (stubTokens) Verify(string) (domain.Principal, error) {
	return domain.Principal{}, domain.ErrUnauthorized
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]domain.User
}

func (m *memUsers) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = map[string]domain.User{}
	}
	if _, ok := m.users[u.Email]; ok {
		return domain.User{}, domain.ErrEmailTaken
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.Email] = u
	return u, nil
}

func (m *memUsers) UserByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}
