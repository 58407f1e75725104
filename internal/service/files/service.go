package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kaichat/internal/models"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
)

const (
	DefaultStoredFileTTL   = 24 * time.Hour
	DefaultCleanupInterval = time.Hour
	maxExtractedChars      = 8000
)

// Service keeps relay-side uploads on disk, records them in the store, and
// removes them once expired.
type Service struct {
	db     *sql.DB
	loader *file.FileLoader
}

// NewService builds the file service with a text-extraction loader.
func NewService(db *sql.DB) (*Service, error) {
	parserExt, err := parser.NewExtParser(context.Background(), &parser.ExtParserConfig{
		FallbackParser: parser.TextParser{},
	})
	if err != nil {
		return nil, fmt.Errorf("init file parser: %w", err)
	}
	loader, err := file.NewFileLoader(context.Background(), &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      parserExt,
	})
	if err != nil {
		return nil, fmt.Errorf("init file loader: %w", err)
	}
	return &Service{db: db, loader: loader}, nil
}

// RecordFile persists the metadata of a stored upload and returns its id.
func (s *Service) RecordFile(ctx context.Context, name, path, mime string, size int64, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		ttl = DefaultStoredFileTTL
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stored_files (file_name, stored_path, mime_type, size, summary, created_at, expires_at)
		 VALUES (?, ?, ?, ?, '', ?, ?)`,
		name, path, mime, size, now, now.Add(ttl),
	)
	if err != nil {
		return 0, fmt.Errorf("record stored file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("stored file id: %w", err)
	}
	return id, nil
}

// SetSummary attaches a generated summary to a stored file.
func (s *Service) SetSummary(ctx context.Context, id int64, summary string) error {
	if id <= 0 {
		return errors.New("invalid file id")
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE stored_files SET summary = ? WHERE id = ?`, summary, id,
	); err != nil {
		return fmt.Errorf("set summary: %w", err)
	}
	return nil
}

// GetFile returns one stored file record.
func (s *Service) GetFile(ctx context.Context, id int64) (*models.StoredFile, error) {
	var f models.StoredFile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, stored_path, mime_type, size, summary, created_at, expires_at
		 FROM stored_files WHERE id = ?`, id,
	).Scan(&f.ID, &f.FileName, &f.StoredPath, &f.MimeType, &f.Size, &f.Summary, &f.CreatedAt, &f.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get stored file: %w", err)
	}
	return &f, nil
}

// StorageUsage sums the bytes of unexpired stored files.
func (s *Service) StorageUsage(ctx context.Context) (int64, error) {
	var usage sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(size) FROM stored_files WHERE expires_at > ?`, time.Now().UTC(),
	).Scan(&usage)
	if err != nil {
		return 0, fmt.Errorf("storage usage: %w", err)
	}
	return usage.Int64, nil
}

// ExtractText loads the document and returns its readable text, truncated to
// a size the summarizer can handle.
func (s *Service) ExtractText(ctx context.Context, path string) (string, error) {
	docs, err := s.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return "", fmt.Errorf("load file: %w", err)
	}
	var builder strings.Builder
	for _, doc := range docs {
		content := strings.TrimSpace(doc.Content)
		if content == "" {
			continue
		}
		builder.WriteString(content)
		builder.WriteString("\n\n")
	}
	text := strings.TrimSpace(builder.String())
	runes := []rune(text)
	if len(runes) > maxExtractedChars {
		text = string(runes[:maxExtractedChars])
	}
	return text, nil
}

// StartCleaner launches the background expiry loop.
func (s *Service) StartCleaner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	go s.cleanupLoop(ctx, interval)
}

func (s *Service) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.cleanupExpiredFiles(); err != nil {
				log.Printf("cleanup stored files error: %v", err)
			}
		}
	}
}

func (s *Service) cleanupExpiredFiles() error {
	rows, err := s.db.Query(
		`SELECT id, stored_path FROM stored_files WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return err
	}
	defer rows.Close()

	type fileRow struct {
		id   int64
		path string
	}
	var stale []fileRow
	for rows.Next() {
		var fr fileRow
		if err := rows.Scan(&fr.id, &fr.path); err != nil {
			return err
		}
		stale = append(stale, fr)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, f := range stale {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove stored file %s failed: %v", f.path, err)
			continue
		}
		if _, err := s.db.Exec(`DELETE FROM stored_files WHERE id = ?`, f.id); err != nil {
			log.Printf("delete stored file record %d failed: %v", f.id, err)
		}

		// prune empty directories
		_ = os.Remove(filepath.Dir(f.path))
	}
	return nil
}
