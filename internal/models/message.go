package models

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of the client conversation. The ID is an opaque
// unique token minted at append time and never reused.
type Message struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ChatMessage is the wire form exchanged with the relay: identity stripped,
// text carried as "content".
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
