package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/models"
)

// Revoker remembers tokens that were logged out before they expired.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Close() error
}

// Claims is what a bearer token asserts about its holder.
type Claims struct {
	UserID int64       `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type Auth struct {
	secret  []byte
	ttl     time.Duration
	revoker Revoker
	now     func() time.Time
}

func NewAuth(config *Config) (*Auth, error) {
	auth := &Auth{
		secret: []byte(config.Auth.JWTSecret),
		ttl:    config.TokenTTL(),
		now:    time.Now,
	}

	if config.Auth.RedisURL == "" {
		logger.Info.Println("No redis configured, logout will not revoke tokens")
		return auth, nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	auth.revoker = NewTokenManager(client)
	return auth, nil
}

// NewAuthWithRevoker is used when the revocation store is built elsewhere.
func NewAuthWithRevoker(secret string, ttl time.Duration, revoker Revoker) *Auth {
	return &Auth{
		secret:  []byte(secret),
		ttl:     ttl,
		revoker: revoker,
		now:     time.Now,
	}
}

func (a *Auth) Close() error {
	if a.revoker != nil {
		return a.revoker.Close()
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (a *Auth) IssueToken(user *models.User) (string, *Claims, error) {
	now := a.now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, claims, nil
}

// ParseToken verifies signature, expiry and revocation.
func (a *Auth) ParseToken(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token has expired", ErrUnauthorized)
		}
		logger.Debug.Printf("Rejected token: %v", err)
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	if a.revoker != nil && claims.ID != "" {
		revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, fmt.Errorf("%w: token has been revoked", ErrUnauthorized)
		}
	}

	return claims, nil
}

// Revoke invalidates a token for the rest of its lifetime. Without a
// revocation store it is a no-op and the token stays valid until expiry.
func (a *Auth) Revoke(ctx context.Context, claims *Claims) error {
	if a.revoker == nil || claims.ExpiresAt == nil {
		return nil
	}
	return a.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time.Sub(a.now()))
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// Authorize checks that claims carry at least the required role.
func Authorize(claims *Claims, required models.Role) error {
	if claims == nil {
		return ErrUnauthorized
	}
	if !claims.Role.Satisfies(required) {
		return fmt.Errorf("%w: %s role required", ErrForbidden, required)
	}
	return nil
}

type claimsKey struct{}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}
