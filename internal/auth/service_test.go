package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"kaichat/internal/models"
	"kaichat/internal/storage"
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService("open sesame", "api-token", db, nil), db
}

func TestVerifySecret(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	creds, err := svc.VerifySecret(ctx, "open sesame", "1.2.3.4")
	if err != nil {
		t.Fatalf("VerifySecret: %v", err)
	}
	if creds.UserToken != models.AccessGrantedToken || creds.APIToken != "api-token" {
		t.Fatalf("unexpected credentials %+v", creds)
	}

	var audits int
	if err := db.QueryRow(`SELECT COUNT(*) FROM token_issues`).Scan(&audits); err != nil {
		t.Fatalf("count audits: %v", err)
	}
	if audits != 1 {
		t.Fatalf("got %d audit rows, want 1", audits)
	}
}

func TestVerifySecretTrimsWhitespace(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.VerifySecret(context.Background(), "  open sesame \n", ""); err != nil {
		t.Fatalf("whitespace-padded secret rejected: %v", err)
	}
}

func TestVerifySecretRejectsWrongSecret(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.VerifySecret(context.Background(), "open sesamee", "1.2.3.4")
	if !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("got %v, want ErrInvalidSecret", err)
	}
}

func TestVerifySecretNotConfigured(t *testing.T) {
	svc := NewService("", "", nil, nil)
	_, err := svc.VerifySecret(context.Background(), "anything", "")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("got %v, want ErrNotConfigured", err)
	}
}

func TestValidateToken(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.ValidateToken("api-token"); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if err := svc.ValidateToken("wrong"); err == nil {
		t.Fatal("wrong token accepted")
	}
	if err := svc.ValidateToken(""); err == nil {
		t.Fatal("empty token accepted")
	}
}
