// Package session holds the client-side conversation state machine: the
// access gate, the append-only message store, the send pipeline with its
// placeholder lifecycle, the simulated upload queue and the warm-up ping.
// It is UI-free; a terminal front end drives it and renders its snapshots.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"kaichat/internal/models"
)

// DefaultUploadDelay is the simulated transfer time for a queued batch.
const DefaultUploadDelay = 800 * time.Millisecond

// greetingText opens every conversation as the assistant's first turn.
const greetingText = "How can I assist you today?"

// Completer produces an assistant reply for a conversation history.
type Completer interface {
	Complete(ctx context.Context, history []models.ChatMessage, apiToken string) (string, error)
}

// TokenIssuer exchanges the shared secret for a credential pair.
type TokenIssuer interface {
	IssueToken(ctx context.Context, secret string) (models.Credentials, error)
}

// Pinger delivers the fire-and-forget warm-up signal.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CredentialCache persists a granted credential pair across restarts.
type CredentialCache interface {
	Load() (models.Credentials, error)
	Save(models.Credentials) error
}

// Config wires a Session's collaborators. A nil Completer puts the session
// in local mock mode: chat and uploads produce canned results and no
// network call is ever made.
type Config struct {
	Completer Completer
	Issuer    TokenIssuer
	Pinger    Pinger
	Cache     CredentialCache

	// PromptSecret asks the user for the shared secret. An empty answer
	// leaves the gate closed without error.
	PromptSecret func() string

	// Alert surfaces a user-visible notice, such as an access rejection.
	Alert func(msg string)

	// Logf receives diagnostics for swallowed errors. Defaults to the
	// standard logger.
	Logf func(format string, v ...any)

	// UploadDelay overrides the simulated transfer time. Zero means
	// DefaultUploadDelay; negative means no delay.
	UploadDelay time.Duration
}

// Session owns all conversation state and serializes every mutation. Its
// methods are safe for concurrent use; blocking ones take a Context and are
// meant to run off the render loop.
type Session struct {
	mu        sync.Mutex
	store     *Store
	creds     models.Credentials
	sending   bool
	uploads   []models.UploadItem
	uploading bool

	completer Completer
	issuer    TokenIssuer
	pinger    Pinger
	cache     CredentialCache

	promptSecret func() string
	alert        func(string)
	logf         func(string, ...any)
	uploadDelay  time.Duration

	warmupOnce sync.Once
}

// New creates a Session from cfg.
func New(cfg Config) *Session {
	s := &Session{
		store:        NewStore(),
		completer:    cfg.Completer,
		issuer:       cfg.Issuer,
		pinger:       cfg.Pinger,
		cache:        cfg.Cache,
		promptSecret: cfg.PromptSecret,
		alert:        cfg.Alert,
		logf:         cfg.Logf,
		uploadDelay:  cfg.UploadDelay,
	}
	if s.logf == nil {
		s.logf = log.Printf
	}
	if s.uploadDelay == 0 {
		s.uploadDelay = DefaultUploadDelay
	}
	if s.uploadDelay < 0 {
		s.uploadDelay = 0
	}
	s.store.Append(models.RoleAssistant, greetingText)
	return s
}

// MockMode reports whether the session runs without a completion backend.
func (s *Session) MockMode() bool {
	return s.completer == nil
}

// Authenticated reports whether the gate has been passed.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Complete()
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Messages()
}

// Uploads returns a snapshot of the upload list, newest batch first.
func (s *Session) Uploads() []models.UploadItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.UploadItem, len(s.uploads))
	copy(out, s.uploads)
	return out
}

// Sending reports whether a send is in flight.
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Uploading reports whether an upload batch is in flight.
func (s *Session) Uploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading
}

// Start runs the access gate and then fires the warm-up ping. The ping only
// ever happens after a gate attempt has completed.
func (s *Session) Start(ctx context.Context) {
	s.EnsureAccess(ctx)
	s.StartWarmup()
}

func (s *Session) alertf(format string, v ...any) {
	if s.alert == nil {
		s.logf(format, v...)
		return
	}
	s.alert(fmt.Sprintf(format, v...))
}

func (s *Session) credentials() models.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

func (s *Session) setCredentials(c models.Credentials) {
	s.mu.Lock()
	s.creds = c
	s.mu.Unlock()
}
