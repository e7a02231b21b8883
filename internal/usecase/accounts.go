package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

// Registration is the input of account creation.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Session is returned after registration or login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

// Accounts registers users and exchanges credentials for tokens.
type Accounts struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
}

// NewAccounts wires account dependencies.
func NewAccounts(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer) *Accounts {
	return &Accounts{users: users, hasher: hasher, tokens: tokens}
}

// Register creates an account and returns a signed session token.
func (a *Accounts) Register(ctx context.Context, in Registration) (Session, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" || strings.TrimSpace(in.Role) == "" {
		return Session{}, domain.NewValidationError("fields", "all fields are required")
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return Session{}, err
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := a.users.CreateUser(ctx, domain.User{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	return a.session(user)
}

// Login verifies credentials. Unknown emails and wrong passwords look the same to callers.
func (a *Accounts) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, domain.NewValidationError("fields", "email and password are required")
	}

	user, err := a.users.UserByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("find user: %w", err)
	}

	if err := a.hasher.Compare(user.PasswordHash, password); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}

	return a.session(user)
}

func (a *Accounts) session(user domain.User) (Session, error) {
	token, expires, err := a.tokens.Issue(domain.Principal{UserID: user.ID, Role: user.Role})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, ExpiresAt: expires, User: user}, nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
