package session

import (
	"context"
	"strings"

	"kaichat/internal/models"
)

// EnsureAccess passes the gate at most once. It tries, in order: already
// granted credentials, the credential cache, and finally a secret exchange
// through the issuer. A dismissed prompt or a rejection leaves the gate
// closed without error; rejections surface through the alert hook. In mock
// mode access is granted locally and nothing touches the network.
func (s *Session) EnsureAccess(ctx context.Context) {
	if s.Authenticated() {
		return
	}

	if s.cache != nil {
		if cached, err := s.cache.Load(); err == nil && cached.Complete() {
			s.setCredentials(cached)
			return
		}
	}

	if s.issuer == nil {
		s.setCredentials(models.Credentials{
			UserToken: models.AccessGrantedToken,
			APIToken:  "mock",
		})
		return
	}

	var secret string
	if s.promptSecret != nil {
		secret = strings.TrimSpace(s.promptSecret())
	}
	if secret == "" {
		return
	}

	creds, err := s.issuer.IssueToken(ctx, secret)
	if err != nil {
		s.alertf("Access denied: %v", err)
		return
	}
	if creds.UserToken != models.AccessGrantedToken || creds.APIToken == "" {
		s.alertf("Access denied.")
		return
	}

	s.setCredentials(creds)
	if s.cache != nil {
		if err := s.cache.Save(creds); err != nil {
			s.logf("save credentials: %v", err)
		}
	}
}
