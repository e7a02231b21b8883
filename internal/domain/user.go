package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role enumerates what an account is allowed to do.
type Role string

const (
	RolePublisher  Role = "publisher"
	RoleSubscriber Role = "subscriber"
)

// Roles lists every accepted role value.
var Roles = []Role{RolePublisher, RoleSubscriber}

// ParseRole normalizes and validates a role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RolePublisher:
		return RolePublisher, nil
	case RoleSubscriber:
		return RoleSubscriber, nil
	default:
		return "", fmt.Errorf("%w: invalid role %q, allowed roles are publisher, subscriber", ErrValidation, raw)
	}
}

// Permission names an operation that is gated by role.
type Permission int

const (
	PermPublishArticle Permission = iota
	PermReadArticles
	PermManageSubscriptions
	PermReceiveEvents
)

// Can reports whether the role grants the permission.
func (r Role) Can(p Permission) bool {
	switch r {
	case RolePublisher:
		switch p {
		case PermPublishArticle, PermReadArticles, PermManageSubscriptions, PermReceiveEvents:
			return true
		}
	case RoleSubscriber:
		switch p {
		case PermReadArticles, PermManageSubscriptions, PermReceiveEvents:
			return true
		case PermPublishArticle:
			return false
		}
	}
	return false
}

// User is an account. Role never changes after registration.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	UserID int64
	Role   Role
}

// Address returns the private notification address of the user.
func Address(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}
