package models

import "time"

// Exchange records one completed chat round trip through the relay.
type Exchange struct {
	ID        int64     `json:"id"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenIssue records one successful access-token issuance.
type TokenIssue struct {
	ID        int64     `json:"id"`
	RemoteIP  string    `json:"remote_ip"`
	CreatedAt time.Time `json:"created_at"`
}
