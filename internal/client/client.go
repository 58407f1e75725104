// Package client is the HTTP client for the relay: chat completion, the
// secret-for-token exchange and the warm-up ping.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kaichat/internal/models"
)

// Client talks to a relay instance. The zero value is not usable; use New.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the relay at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type chatRequest struct {
	Messages []models.ChatMessage `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type tokenRequest struct {
	SecretWord string `json:"secretWord"`
}

type tokenResponse struct {
	UserToken string `json:"userToken"`
	APIToken  string `json:"apiToken"`
}

// Complete posts the conversation history and returns the assistant reply.
// Relay failures come back as plain text; that text becomes the error.
func (c *Client) Complete(ctx context.Context, history []models.ChatMessage, apiToken string) (string, error) {
	var out chatResponse
	err := c.post(ctx, "/chat", apiToken, chatRequest{Messages: history}, &out)
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// IssueToken exchanges the shared secret for a credential pair. A wrong
// secret is an error, not an empty grant.
func (c *Client) IssueToken(ctx context.Context, secret string) (models.Credentials, error) {
	var out tokenResponse
	err := c.post(ctx, "/token", "", tokenRequest{SecretWord: secret}, &out)
	if err != nil {
		return models.Credentials{}, err
	}
	return models.Credentials{
		UserToken: out.UserToken,
		APIToken:  out.APIToken,
	}, nil
}

// Ping delivers the warm-up signal as a bodyless POST. The response body is
// irrelevant.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post /ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("relay /ping: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, apiToken string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		text := strings.TrimSpace(string(msg))
		if text == "" {
			text = resp.Status
		}
		return fmt.Errorf("relay %s: %s", path, text)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
