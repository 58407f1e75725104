package relay

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"kaichat/internal/auth"
	"kaichat/internal/service/files"
	"kaichat/internal/storage"
	"kaichat/internal/worker"
)

func newUploadRouter(t *testing.T) (*gin.Engine, *sql.DB, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	fileService, err := files.NewService(db)
	if err != nil {
		t.Fatalf("files.NewService: %v", err)
	}

	fileBase := t.TempDir()
	authService := auth.NewService("open sesame", "api-token", db, nil)
	handler := NewHandler(&stubCompleter{}, authService, fileService, worker.NewPool(2, 2), db, nil, fileBase, 0)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router, db, fileBase
}

func doUpload(t *testing.T, router *gin.Engine, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer api-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadStoresFile(t *testing.T) {
	router, db, fileBase := newUploadRouter(t)

	w := doUpload(t, router, "notes.txt", []byte("remember the milk"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload returned %d: %s", w.Code, w.Body)
	}

	var resp struct {
		FileID   int64  `json:"file_id"`
		FileName string `json:"file_name"`
		Size     int64  `json:"size"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FileName != "notes.txt" || resp.Size == 0 {
		t.Fatalf("unexpected response %+v", resp)
	}

	if _, err := os.Stat(filepath.Join(fileBase, "notes.txt")); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM stored_files`).Scan(&count); err != nil {
		t.Fatalf("count stored files: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d stored file rows, want 1", count)
	}
}

func TestUploadRenamesDuplicates(t *testing.T) {
	router, _, fileBase := newUploadRouter(t)

	if w := doUpload(t, router, "notes.txt", []byte("first")); w.Code != http.StatusCreated {
		t.Fatalf("first upload returned %d", w.Code)
	}
	w := doUpload(t, router, "notes.txt", []byte("second"))
	if w.Code != http.StatusCreated {
		t.Fatalf("second upload returned %d", w.Code)
	}

	var resp struct {
		FileName string `json:"file_name"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FileName != "notes (1).txt" {
		t.Fatalf("duplicate stored as %q", resp.FileName)
	}
	if _, err := os.Stat(filepath.Join(fileBase, "notes (1).txt")); err != nil {
		t.Fatalf("renamed file missing: %v", err)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	router, _, _ := newUploadRouter(t)

	// An ELF header sniffs as application/octet-stream.
	w := doUpload(t, router, "tool.bin", []byte{0x7f, 'E', 'L', 'F', 0, 0, 0, 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("binary upload returned %d", w.Code)
	}
}

func TestUploadRequiresToken(t *testing.T) {
	router, _, _ := newUploadRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "notes.txt")
	part.Write([]byte("hello"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated upload returned %d", w.Code)
	}
}
