// Package credstore persists granted credentials on disk so the access
// gate only has to be passed once per machine.
package credstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"kaichat/internal/models"
)

// ErrNoCredentials is returned by Load when nothing has been saved yet.
var ErrNoCredentials = errors.New("no stored credentials")

// Store is a single-row sqlite cache of the credential pair.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, "credentials.db"))
	if err != nil {
		return nil, fmt.Errorf("open credential cache: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS credentials (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		user_token TEXT NOT NULL,
		api_token TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate credential cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Load returns the stored pair, or ErrNoCredentials.
func (s *Store) Load() (models.Credentials, error) {
	var creds models.Credentials
	err := s.db.QueryRow(`SELECT user_token, api_token FROM credentials WHERE id = 1`).
		Scan(&creds.UserToken, &creds.APIToken)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return models.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}
	return creds, nil
}

// Save stores the pair, replacing any previous one.
func (s *Store) Save(creds models.Credentials) error {
	_, err := s.db.Exec(`INSERT INTO credentials (id, user_token, api_token, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			user_token = excluded.user_token,
			api_token = excluded.api_token,
			updated_at = CURRENT_TIMESTAMP`,
		creds.UserToken, creds.APIToken)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Clear removes the stored pair.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
