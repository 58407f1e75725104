package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kaichat/internal/models"
)

func TestCompleteRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer api-token" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var req struct {
			Messages []models.ChatMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hi" {
			t.Fatalf("unexpected payload %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]string{"reply": "hello there"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	reply, err := c.Complete(context.Background(), []models.ChatMessage{
		{Role: models.RoleUser, Content: "hi"},
	}, "api-token")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "hello there" {
		t.Fatalf("got reply %q", reply)
	}
}

func TestCompleteSurfacesPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Complete(context.Background(), nil, "api-token")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("error %q does not carry the relay text", err)
	}
}

func TestIssueToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			SecretWord string `json:"secretWord"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SecretWord != "open sesame" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"userToken": models.AccessGrantedToken,
			"apiToken":  "api-token",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)

	creds, err := c.IssueToken(context.Background(), "open sesame")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if creds.UserToken != models.AccessGrantedToken || creds.APIToken != "api-token" {
		t.Fatalf("unexpected credentials %+v", creds)
	}

	if _, err := c.IssueToken(context.Background(), "wrong"); err == nil {
		t.Fatal("wrong secret did not error")
	}
}

func TestPing(t *testing.T) {
	var hit bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.ContentLength != 0 {
			t.Fatalf("ping carried a body of %d bytes", r.ContentLength)
		}
		hit = true
		json.NewEncoder(w).Encode(map[string]string{"status": "warm"})
	}))
	defer srv.Close()

	if err := New(srv.URL).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !hit {
		t.Fatal("ping never reached the server")
	}
}
