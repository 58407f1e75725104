package ui

import "sync"

// SecretPrompt hands a typed secret from the UI to the session gate. The
// gate's prompt collaborator is synchronous; the UI fills the prompt first
// and then runs the gate, which drains it.
type SecretPrompt struct {
	mu     sync.Mutex
	secret string
}

// Put stores the secret the user typed.
func (p *SecretPrompt) Put(secret string) {
	p.mu.Lock()
	p.secret = secret
	p.mu.Unlock()
}

// Take returns the stored secret and clears it.
func (p *SecretPrompt) Take() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.secret
	p.secret = ""
	return s
}

// AlertBuffer collects user-visible notices raised off the render loop.
type AlertBuffer struct {
	mu     sync.Mutex
	alerts []string
}

// Push appends a notice.
func (b *AlertBuffer) Push(msg string) {
	b.mu.Lock()
	b.alerts = append(b.alerts, msg)
	b.mu.Unlock()
}

// Drain returns all pending notices and empties the buffer.
func (b *AlertBuffer) Drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.alerts
	b.alerts = nil
	return out
}
