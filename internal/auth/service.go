package auth

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kaichat/internal/models"
	"kaichat/internal/redis"
)

// Sentinel errors callers can branch on.
var (
	ErrInvalidSecret   = errors.New("invalid secret")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrNotConfigured   = errors.New("access gate not configured")
)

const (
	guessKeyPrefix = "auth:guess:"
	guessWindow    = time.Minute
	guessLimit     = 5
)

// Service answers the token-issuance challenge and validates the api token
// on protected routes. The issued pair is fixed by configuration: the
// sentinel userToken plus one api token, mirroring a single-user deployment.
type Service struct {
	secretWord string
	apiToken   string
	headerName string
	db         *sql.DB
	cache      *redis.Client
}

// NewService constructs the access service. db and cache may be nil; issuance
// auditing and guess limiting are skipped when they are.
func NewService(secretWord, apiToken string, db *sql.DB, cache *redis.Client) *Service {
	return &Service{
		secretWord: secretWord,
		apiToken:   apiToken,
		headerName: "Authorization",
		db:         db,
		cache:      cache,
	}
}

// VerifySecret checks the challenge phrase and returns the credential pair on
// a match. Repeated failures from one address are rate limited when a cache
// is attached.
func (s *Service) VerifySecret(ctx context.Context, secret, remoteIP string) (models.Credentials, error) {
	if s.secretWord == "" || s.apiToken == "" {
		return models.Credentials{}, ErrNotConfigured
	}
	if s.cache != nil && remoteIP != "" {
		n, err := s.cache.Incr(ctx, guessKeyPrefix+remoteIP, guessWindow)
		if err == nil && n > guessLimit {
			return models.Credentials{}, ErrTooManyAttempts
		}
	}

	secret = strings.TrimSpace(secret)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secretWord)) != 1 {
		return models.Credentials{}, ErrInvalidSecret
	}

	if s.db != nil {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO token_issues (remote_ip, created_at) VALUES (?, ?)`,
			remoteIP, time.Now().UTC(),
		); err != nil {
			return models.Credentials{}, fmt.Errorf("record token issue: %w", err)
		}
	}

	return models.Credentials{
		UserToken: models.AccessGrantedToken,
		APIToken:  s.apiToken,
	}, nil
}

// ValidateToken checks a bearer value against the configured api token.
func (s *Service) ValidateToken(authToken string) error {
	if authToken == "" {
		return errors.New("token required")
	}
	if s.apiToken == "" {
		return ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(authToken), []byte(s.apiToken)) != 1 {
		return errors.New("invalid token")
	}
	return nil
}

// HeaderName returns the header carrying the bearer token.
func (s *Service) HeaderName() string {
	return s.headerName
}
