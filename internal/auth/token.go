package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"NewsDesk/internal/config"
	"NewsDesk/internal/domain"
	"NewsDesk/internal/ports"
)

const defaultTTL = 7 * 24 * time.Hour

// Claims carries the caller identity inside a bearer token.
type Claims struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HMAC signed bearer tokens.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

var _ ports.TokenIssuer = (*TokenService)(nil)

// NewTokenService creates a token service from auth settings.
func NewTokenService(cfg config.AuthConfig) *TokenService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TokenService{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for principal and returns it with its expiry.
func (s *TokenService) Issue(principal domain.Principal) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		ID:   principal.UserID,
		Role: string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   fmt.Sprint(principal.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks signature, expiry and issuer and returns the encoded principal.
// Every failure is reported as domain.ErrUnauthorized.
func (s *TokenService) Verify(token string) (domain.Principal, error) {
	if token == "" || len(s.secret) == 0 {
		return domain.Principal{}, domain.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil || claims.ID <= 0 {
		return domain.Principal{}, fmt.Errorf("%w: invalid claims", domain.ErrUnauthorized)
	}
	return domain.Principal{UserID: claims.ID, Role: role}, nil
}
