package session

import (
	"github.com/google/uuid"

	"kaichat/internal/models"
)

// PlaceholderText marks the provisional assistant message shown while a
// reply is outstanding. History() filters it so an in-flight placeholder
// never reaches the completion collaborator.
const PlaceholderText = "..."

// Store is the ordered, append-only conversation. The only in-place change
// it permits is the single text replacement that resolves a placeholder.
// Store is not synchronized; the owning Session serializes access.
type Store struct {
	messages []models.Message
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{}
}

// Append inserts a message at the end and returns its freshly minted id.
func (s *Store) Append(role models.Role, text string) string {
	msg := models.Message{
		ID:   uuid.NewString(),
		Role: role,
		Text: text,
	}
	s.messages = append(s.messages, msg)
	return msg.ID
}

// ReplaceText mutates a message in place without changing its position or
// id. Unknown ids are ignored; the caller always owns the id it created.
func (s *Store) ReplaceText(id, newText string) {
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Text = newText
			return
		}
	}
}

// History returns the conversation in wire form, identity stripped and any
// placeholder excluded.
func (s *Store) History() []models.ChatMessage {
	history := make([]models.ChatMessage, 0, len(s.messages))
	for _, msg := range s.messages {
		if msg.Text == PlaceholderText {
			continue
		}
		history = append(history, models.ChatMessage{
			Role:    msg.Role,
			Content: msg.Text,
		})
	}
	return history
}

// Messages returns a copy of the conversation for rendering.
func (s *Store) Messages() []models.Message {
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len reports the number of stored messages.
func (s *Store) Len() int {
	return len(s.messages)
}
