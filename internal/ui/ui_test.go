package ui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"kaichat/internal/models"
	"kaichat/internal/session"
)

type nopCompleter struct{}

func (nopCompleter) Complete(ctx context.Context, history []models.ChatMessage, apiToken string) (string, error) {
	return "", nil
}

type nopIssuer struct{}

func (nopIssuer) IssueToken(ctx context.Context, secret string) (models.Credentials, error) {
	return models.Credentials{}, errors.New("unexpected issuance")
}

type fixedCache struct {
	creds models.Credentials
}

func (c fixedCache) Load() (models.Credentials, error) { return c.creds, nil }

func (c fixedCache) Save(creds models.Credentials) error { return nil }

// runCmd executes a command tree synchronously, following batches.
func runCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, c := range batch {
			runCmd(c)
		}
	}
}

func TestInitOpensGateFromCachedCredentials(t *testing.T) {
	var prompt SecretPrompt
	var alerts AlertBuffer
	sess := session.New(session.Config{
		Completer: nopCompleter{},
		Issuer:    nopIssuer{},
		Cache: fixedCache{creds: models.Credentials{
			UserToken: models.AccessGrantedToken,
			APIToken:  "cached-token",
		}},
		PromptSecret: prompt.Take,
		Alert:        alerts.Push,
		Logf:         func(string, ...any) {},
	})
	m := New(sess, &prompt, &alerts)

	runCmd(m.Init())

	if !sess.Authenticated() {
		t.Fatal("cached credentials did not open the gate at startup")
	}
}

func TestInitLeavesGateClosedWithoutSecret(t *testing.T) {
	var prompt SecretPrompt
	var alerts AlertBuffer
	sess := session.New(session.Config{
		Completer:    nopCompleter{},
		Issuer:       nopIssuer{},
		PromptSecret: prompt.Take,
		Alert:        alerts.Push,
		Logf:         func(string, ...any) {},
	})
	m := New(sess, &prompt, &alerts)

	runCmd(m.Init())

	if sess.Authenticated() {
		t.Fatal("gate opened with no cached credentials and no secret")
	}
}

func TestParseUploadCommand(t *testing.T) {
	batch, ok := parseUploadCommand("/upload a.png b.pdf c.txt")
	if !ok {
		t.Fatal("upload command not recognized")
	}
	if len(batch) != 3 {
		t.Fatalf("got %d files, want 3", len(batch))
	}
	if batch[0].Name != "a.png" || batch[2].Name != "c.txt" {
		t.Fatalf("unexpected batch %+v", batch)
	}

	if _, ok := parseUploadCommand("hello /upload"); ok {
		t.Fatal("plain text treated as upload command")
	}
}

func TestSecretPromptTakeClears(t *testing.T) {
	var p SecretPrompt
	p.Put("open sesame")
	if got := p.Take(); got != "open sesame" {
		t.Fatalf("got %q", got)
	}
	if got := p.Take(); got != "" {
		t.Fatalf("prompt not cleared, got %q", got)
	}
}

func TestAlertBufferDrain(t *testing.T) {
	var b AlertBuffer
	b.Push("one")
	b.Push("two")
	if got := b.Drain(); len(got) != 2 || got[1] != "two" {
		t.Fatalf("unexpected drain %v", got)
	}
	if got := b.Drain(); len(got) != 0 {
		t.Fatalf("buffer not emptied, got %v", got)
	}
}
