// Package auth verifies bearer tokens issued by the hosted identity provider and
// carries the resulting user in a context.Context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned for malformed, expired or badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// User is the authenticated caller.
type User struct {
	ID       string      `json:"id"`
	Email    string      `json:"email,omitempty"`
	FullName string      `json:"fullName,omitempty"`
	Role     models.Role `json:"role,omitempty"`
}

// UserMetadata mirrors the provider's user_metadata claim.
type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
}

// Claims are the token claims the service reads.
type Claims struct {
	Email        string       `json:"email,omitempty"`
	Role         models.Role  `json:"role,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Verifier turns a raw token into a User.
type Verifier interface {
	Verify(token string) (*User, error)
}

type hmacVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a Verifier for HS256 tokens signed with secret.
func NewVerifier(secret string) Verifier {
	return &hmacVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

func (v *hmacVerifier) Verify(raw string) (*User, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	role := claims.Role
	if !role.Valid() {
		// provider roles such as "authenticated" carry no application meaning
		role = ""
	}
	return &User{
		ID:       claims.Subject,
		Email:    claims.Email,
		FullName: claims.UserMetadata.FullName,
		Role:     role,
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("%w: authorization header must be 'Bearer <token>'", ErrInvalidToken)
	}
	return strings.TrimSpace(parts[1]), nil
}

// IssueToken signs an HS256 token for u that expires after ttl. It is used by the
// dev CLI and tests; production tokens come from the identity provider.
func IssueToken(secret string, u User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:        u.Email,
		Role:         u.Role,
		UserMetadata: UserMetadata{FullName: u.FullName},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type userKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// CurrentUser returns the user carried by ctx, or nil when the caller is unauthenticated.
func CurrentUser(ctx context.Context) *User {
	u, _ := ctx.Value(userKey{}).(*User)
	return u
}
