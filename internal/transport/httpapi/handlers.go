package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/usecase"
)

type publishRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type topicRequest struct {
	TopicName string `json:"topicName" validate:"required"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type topicsResponse struct {
	Topics []domain.Topic `json:"topics"`
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}

func (s *Server) handlePublish(c echo.Context) error {
	var req publishRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	article, err := s.deps.Publisher.Publish(c.Request().Context(), principalFrom(c), domain.ArticleDraft{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, article)
}

func (s *Server) handleListArticles(c echo.Context) error {
	articles, err := s.deps.Articles.List(c.Request().Context(), principalFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, articles)
}

func (s *Server) handleGetArticle(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}

	article, err := s.deps.Articles.Get(c.Request().Context(), principalFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, article)
}

func (s *Server) handleSubscribe(c echo.Context) error {
	var req topicRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sub, err := s.deps.Subscriptions.Subscribe(c.Request().Context(), principalFrom(c), req.TopicName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

func (s *Server) handleUnsubscribe(c echo.Context) error {
	var req topicRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sub, err := s.deps.Subscriptions.Unsubscribe(c.Request().Context(), principalFrom(c), req.TopicName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

func (s *Server) handleListSubscriptions(c echo.Context) error {
	topics, err := s.deps.Subscriptions.Topics(c.Request().Context(), principalFrom(c))
	if err != nil {
		return err
	}
	if topics == nil {
		topics = []domain.Topic{}
	}
	return c.JSON(http.StatusOK, topicsResponse{Topics: topics})
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := s.deps.Accounts.Register(c.Request().Context(), usecase.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, session)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := s.deps.Accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}
