package session

import (
	"context"
	"fmt"
	"strings"

	"kaichat/internal/models"
)

const noReplyText = "(no reply)"

// pending is the handle for an in-flight send. Exactly one of resolve or
// fail completes it; either releases the send lock.
type pending struct {
	s    *Session
	id   string
	done bool
}

// begin performs the optimistic phase of a send: it takes the send lock and
// appends the user turn plus the assistant placeholder in one step. It
// returns nil when a send is already in flight.
func (s *Session) begin(text string) *pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return nil
	}
	s.sending = true
	s.store.Append(models.RoleUser, text)
	id := s.store.Append(models.RoleAssistant, PlaceholderText)
	return &pending{s: s, id: id}
}

func (p *pending) resolve(text string) {
	p.complete(text)
}

func (p *pending) fail(err error) {
	p.complete("Error: " + err.Error())
}

func (p *pending) complete(text string) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	p.s.store.ReplaceText(p.id, text)
	p.s.sending = false
}

// Send runs one full exchange: the user turn and a placeholder appear
// immediately, then the placeholder is rewritten in place with the reply,
// an error notice, or the empty-reply fallback. Whitespace-only input and
// input arriving while a send is in flight are silent no-ops. Send blocks
// until the exchange resolves.
func (s *Session) Send(ctx context.Context, input string) {
	text := strings.TrimSpace(input)
	if text == "" {
		return
	}
	p := s.begin(text)
	if p == nil {
		return
	}

	if s.completer == nil {
		p.resolve(fmt.Sprintf("(Mock) You said: %q", text))
		return
	}

	s.mu.Lock()
	history := s.store.History()
	apiToken := s.creds.APIToken
	s.mu.Unlock()

	reply, err := s.completer.Complete(ctx, history, apiToken)
	if err != nil {
		p.fail(err)
		return
	}
	if strings.TrimSpace(reply) == "" {
		p.resolve(noReplyText)
		return
	}
	p.resolve(reply)
}
