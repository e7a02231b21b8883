package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/infrastructure/notify"
	"NewsDesk/internal/usecase"
)

type fakeTokens struct {
	principals map[string]domain.Principal
}

func (f fakeTokens) Issue(domain.Principal) (string, time.Time, error) {
	return "", time.Time{}, errors.New("not used")
}

func (f fakeTokens) Verify(token string) (domain.Principal, error) {
	p, ok := f.principals[token]
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

type fakePublisher struct {
	err    error
	drafts []domain.ArticleDraft
}

func (f *fakePublisher) Publish(_ context.Context, caller domain.Principal, draft domain.ArticleDraft) (domain.Article, error) {
	if f.err != nil {
		return domain.Article{}, f.err
	}
	f.drafts = append(f.drafts, draft)
	return domain.Article{
		ID:          7,
		Title:       draft.Title,
		Content:     draft.Content,
		PublisherID: caller.UserID,
		Topics:      []domain.Topic{{ID: 1, Name: "Tech"}},
	}, nil
}

type fakeReader struct {
	articles []domain.Article
	err      error
}

func (f *fakeReader) List(context.Context, domain.Principal) ([]domain.Article, error) {
	return f.articles, f.err
}

func (f *fakeReader) Get(_ context.Context, _ domain.Principal, id int64) (domain.Article, error) {
	if f.err != nil {
		return domain.Article{}, f.err
	}
	for _, a := range f.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Article{}, domain.ErrArticleNotFound
}

type fakeSubscriptions struct {
	topics map[int64][]string
}

func (f *fakeSubscriptions) Subscribe(_ context.Context, caller domain.Principal, topicName string) (domain.Subscription, error) {
	f.topics[caller.UserID] = append(f.topics[caller.UserID], topicName)
	return domain.Subscription{UserID: caller.UserID, TopicID: int64(len(f.topics[caller.UserID]))}, nil
}

func (f *fakeSubscriptions) Unsubscribe(_ context.Context, caller domain.Principal, topicName string) (domain.Subscription, error) {
	for i, name := range f.topics[caller.UserID] {
		if name == topicName {
			f.topics[caller.UserID] = append(f.topics[caller.UserID][:i], f.topics[caller.UserID][i+1:]...)
			return domain.Subscription{UserID: caller.UserID, TopicID: int64(i + 1)}, nil
		}
	}
	return domain.Subscription{}, domain.ErrSubscriptionNotFound
}

func (f *fakeSubscriptions) Topics(_ context.Context, caller domain.Principal) ([]domain.Topic, error) {
	var out []domain.Topic
	for i, name := range f.topics[caller.UserID] {
		out = append(out, domain.Topic{ID: int64(i + 1), Name: name})
	}
	return out, nil
}

type fakeAccounts struct {
	err error
}

func (f *fakeAccounts) Register(_ context.Context, in usecase.Registration) (usecase.Session, error) {
	if f.err != nil {
		return usecase.Session{}, f.err
	}
	return usecase.Session{Token: "tok", User: domain.User{ID: 1, Name: in.Name, Email: in.Email, Role: domain.Role(in.Role)}}, nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (usecase.Session, error) {
	if password != "secret" {
		return usecase.Session{}, domain.ErrInvalidCredentials
	}
	return usecase.Session{Token: "tok", User: domain.User{ID: 1, Email: email}}, nil
}

type testEnv struct {
	server    *Server
	publisher *fakePublisher
	reader    *fakeReader
	subs      *fakeSubscriptions
	accounts  *fakeAccounts
	hub       *notify.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		publisher: &fakePublisher{},
		reader:    &fakeReader{},
		subs:      &fakeSubscriptions{topics: map[int64][]string{}},
		accounts:  &fakeAccounts{},
		hub:       notify.NewHub(8, logger),
	}
	env.server = NewServer(Deps{
		Publisher:     env.publisher,
		Articles:      env.reader,
		Subscriptions: env.subs,
		Accounts:      env.accounts,
		Tokens: fakeTokens{principals: map[string]domain.Principal{
			"pub": {UserID: 1, Role: domain.RolePublisher},
			"sub": {UserID: 2, Role: domain.RoleSubscriber},
		}},
		Hub:       env.hub,
		Heartbeat: time.Hour,
		Logger:    logger,
	})
	return env
}

func (env *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		token  string
		header string
		status int
	}{
		{name: "missing token", status: http.StatusUnauthorized},
		{name: "unknown token", token: "nope", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic pub", status: http.StatusUnauthorized},
		{name: "valid token", token: "sub", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/articles", nil)
			switch {
			case tt.header != "":
				req.Header.Set("Authorization", tt.header)
			case tt.token != "":
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			env.server.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPublish(t *testing.T) {
	t.Run("publisher creates article", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(http.MethodPost, "/articles", "pub", `{"title":"Go 1.30","content":"released"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var article domain.Article
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &article))
		assert.Equal(t, int64(7), article.ID)
		assert.Equal(t, "Go 1.30", article.Title)
		require.Len(t, env.publisher.drafts, 1)
	})

	t.Run("subscriber is forbidden", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(http.MethodPost, "/articles", "sub", `{"title":"t","content":"c"}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, domain.ErrForbidden.Error(), decodeError(t, rec).Error)
		assert.Empty(t, env.publisher.drafts)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(http.MethodPost, "/articles", "pub", `{"title":"only"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "content is required", body.Fields["content"])
		assert.Empty(t, env.publisher.drafts)
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(http.MethodPost, "/articles", "pub", `{"title":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", decodeError(t, rec).Error)
	})

	t.Run("fake article", func(t *testing.T) {
		env := newTestEnv(t)
		env.publisher.err = fmt.Errorf("publish: %w", domain.ErrRejectedAsFake)

		rec := env.do(http.MethodPost, "/articles", "pub", `{"title":"t","content":"c"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, domain.ErrRejectedAsFake.Error(), decodeError(t, rec).Error)
	})

	t.Run("internal failure hides details", func(t *testing.T) {
		env := newTestEnv(t)
		env.publisher.err = errors.New("insert article: connection reset")

		rec := env.do(http.MethodPost, "/articles", "pub", `{"title":"t","content":"c"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, errInternal, decodeError(t, rec).Error)
	})
}

func TestArticles(t *testing.T) {
	env := newTestEnv(t)
	env.reader.articles = []domain.Article{{ID: 2, Title: "newer"}, {ID: 1, Title: "older"}}

	rec := env.do(http.MethodGet, "/articles", "sub", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Title)

	rec = env.do(http.MethodGet, "/articles/1", "sub", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/articles/99", "sub", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.ErrArticleNotFound.Error(), decodeError(t, rec).Error)

	rec = env.do(http.MethodGet, "/articles/abc", "sub", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid article id", decodeError(t, rec).Error)
}

func TestSubscriptions(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/articles/subscribe", "sub", `{"topicName":"Tech"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/topics/subscriptions", "sub", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"topics":[{"id":1,"name":"Tech","createdAt":"0001-01-01T00:00:00Z"}]}`, rec.Body.String())

	rec = env.do(http.MethodPost, "/articles/unsubscribe", "sub", `{"topicName":"Tech"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/articles/unsubscribe", "sub", `{"topicName":"Tech"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/articles/subscribe", "sub", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "topicName is required", decodeError(t, rec).Fields["topicName"])

	rec = env.do(http.MethodGet, "/topics/subscriptions", "pub", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"topics":[]}`, rec.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/register", "", `{"name":"Ann","email":"ann@example.com","password":"secret","role":"subscriber"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var session usecase.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "tok", session.Token)

	rec = env.do(http.MethodPost, "/auth/register", "", `{"name":"Ann","email":"not-an-email","password":"secret","role":"subscriber"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "email")

	env.accounts.err = fmt.Errorf("create user: %w", domain.ErrEmailTaken)
	rec = env.do(http.MethodPost, "/auth/register", "", `{"name":"Ann","email":"ann@example.com","password":"secret","role":"subscriber"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrEmailTaken.Error(), decodeError(t, rec).Error)

	rec = env.do(http.MethodPost, "/auth/login", "", `{"email":"ann@example.com","password":"secret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/auth/login", "", `{"email":"ann@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrInvalidCredentials.Error(), decodeError(t, rec).Error)
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?token=sub", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected user_2\n", line)
	assert.Equal(t, 1, env.hub.Sessions())

	require.NoError(t, env.hub.Emit(ctx, domain.Address(2), domain.LiveEvent{
		Name:    domain.EventNewArticle,
		Article: domain.Article{ID: 5, Title: "hello"},
	}))
	require.NoError(t, env.hub.Emit(ctx, domain.Address(3), domain.LiveEvent{
		Name:    domain.EventNewArticle,
		Article: domain.Article{ID: 6, Title: "not for you"},
	}))

	var frame []string
	for len(frame) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			continue
		}
		frame = append(frame, line)
	}
	assert.Equal(t, "event: new-article", frame[0])
	require.True(t, strings.HasPrefix(frame[1], "data: "))

	var article domain.Article
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame[1], "data: ")), &article))
	assert.Equal(t, int64(5), article.ID)

	cancel()
	assert.Eventually(t, func() bool { return env.hub.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEventsRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/events", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, env.hub.Sessions())
}

func TestShutdownEndsLiveSessions(t *testing.T) {
	env := newTestEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	env.server.echo.Listener = ln

	served := make(chan error, 1)
	go func() { served <- env.server.Start("") }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/events?token=sub")
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, 1, env.hub.Sessions())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, env.server.Shutdown(ctx))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 0, env.hub.Sessions())

	_, err = io.ReadAll(reader)
	assert.NoError(t, err)
	assert.NoError(t, <-served)
}
