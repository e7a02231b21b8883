package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw     string
		want    Role
		wantErr bool
	}{
		{raw: "publisher", want: RolePublisher},
		{raw: " Subscriber ", want: RoleSubscriber},
		{raw: "admin", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("ParseRole(%q) error = %v, want ErrValidation", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
		}
	}
}

func TestRoleCan(t *testing.T) {
	if !RolePublisher.Can(PermPublishArticle) {
		t.Fatal("publisher must be able to publish")
	}
	if RoleSubscriber.Can(PermPublishArticle) {
		t.Fatal("subscriber must not publish")
	}
	for _, p := range []Permission{PermReadArticles, PermManageSubscriptions, PermReceiveEvents} {
		if !RolePublisher.Can(p) || !RoleSubscriber.Can(p) {
			t.Fatalf("permission %d must be granted to both roles", p)
		}
	}
	if Role("ghost").Can(PermReadArticles) {
		t.Fatal("unknown role must not be granted anything")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"title":   "title is required",
		"content": "content is required",
	}}

	if got, want := err.Error(), "validation failed: content is required; title is required"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(fmt.Errorf("wrapped: %w", err), ErrValidation) {
		t.Fatal("wrapped ValidationError must match ErrValidation")
	}
	if got := (&ValidationError{}).Error(); got != ErrValidation.Error() {
		t.Fatalf("empty ValidationError = %q", got)
	}
}

func TestAddress(t *testing.T) {
	if got := Address(12); got != "user_12" {
		t.Fatalf("Address(12) = %q", got)
	}
}
