package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/infrastructure/notify"
	"NewsDesk/internal/ports"
	"NewsDesk/internal/usecase"
)

const defaultHeartbeat = 15 * time.Second

// ArticlePublisher runs the publication workflow.
type ArticlePublisher interface {
	Publish(ctx context.Context, caller domain.Principal, draft domain.ArticleDraft) (domain.Article, error)
}

// ArticleReader serves published articles.
type ArticleReader interface {
	List(ctx context.Context, caller domain.Principal) ([]domain.Article, error)
	Get(ctx context.Context, caller domain.Principal, id int64) (domain.Article, error)
}

// SubscriptionManager manages topic subscriptions of the caller.
type SubscriptionManager interface {
	Subscribe(ctx context.Context, caller domain.Principal, topicName string) (domain.Subscription, error)
	Unsubscribe(ctx context.Context, caller domain.Principal, topicName string) (domain.Subscription, error)
	Topics(ctx context.Context, caller domain.Principal) ([]domain.Topic, error)
}

// AccountService registers users and logs them in.
type AccountService interface {
	Register(ctx context.Context, in usecase.Registration) (usecase.Session, error)
	Login(ctx context.Context, email, password string) (usecase.Session, error)
}

// SessionHub registers live sessions. Close ends every open session.
type SessionHub interface {
	Register(address string) *notify.Handle
	Unregister(handle *notify.Handle)
	Close()
}

// Deps holds everything the HTTP surface calls into.
type Deps struct {
	Publisher     ArticlePublisher
	Articles      ArticleReader
	Subscriptions SubscriptionManager
	Accounts      AccountService
	Tokens        ports.TokenIssuer
	Hub           SessionHub
	Heartbeat     time.Duration
	Logger        *slog.Logger
}

// Server is the public REST + SSE API.
type Server struct {
	echo      *echo.Echo
	deps      Deps
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewServer builds the router with every route registered.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	heartbeat := deps.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	s := &Server{echo: e, deps: deps, heartbeat: heartbeat, logger: logger}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "request_id", v.RequestID}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.Debug("http request", attrs...)
			return nil
		},
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authGroup := e.Group("/auth")
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)

	authed := e.Group("", s.authenticate())

	articles := authed.Group("/articles")
	articles.POST("", s.handlePublish, requirePermission(domain.PermPublishArticle))
	articles.GET("", s.handleListArticles, requirePermission(domain.PermReadArticles))
	articles.GET("/:id", s.handleGetArticle, requirePermission(domain.PermReadArticles))
	articles.POST("/subscribe", s.handleSubscribe, requirePermission(domain.PermManageSubscriptions))
	articles.POST("/unsubscribe", s.handleUnsubscribe, requirePermission(domain.PermManageSubscriptions))

	authed.GET("/topics/subscriptions", s.handleListSubscriptions, requirePermission(domain.PermManageSubscriptions))
	authed.GET("/events", s.handleEvents, requirePermission(domain.PermReceiveEvents))
}

// Handler exposes the router for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends live sessions, stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.deps.Hub != nil {
		s.deps.Hub.Close()
	}
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
}
