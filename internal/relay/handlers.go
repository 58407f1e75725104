package relay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kaichat/internal/auth"
	"kaichat/internal/models"
	"kaichat/internal/redis"
	"kaichat/internal/service/files"
	"kaichat/internal/worker"
)

// Completer is the completion collaborator as the relay sees it.
type Completer interface {
	Complete(ctx context.Context, history []models.ChatMessage) (string, error)
	Summarize(ctx context.Context, fileName, content string) (string, error)
	ModelName() string
}

const (
	chatTimeout   = 2 * time.Minute
	warmStateKey  = "relay:warm"
	warmStateTTL  = 15 * time.Minute
	maxUploadSize = 10 << 20 // 10 MB
	storageLimit  = 50 << 20 // 50 MB total
)

var allowedContentTypes = []string{
	"text/plain",
	"text/markdown",
	"application/pdf",
	"application/json",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/",
}

// Handler wires the relay's HTTP routes to the completion collaborator, the
// access service, and the stored-file service.
type Handler struct {
	completer Completer
	auth      *auth.Service
	files     *files.Service
	pool      *worker.Pool
	db        *sql.DB
	cache     *redis.Client
	fileBase  string
	fileTTL   time.Duration
}

// NewHandler constructs a Handler instance. files, db, and cache may be nil;
// the affected routes degrade rather than fail.
func NewHandler(completer Completer, authService *auth.Service, fileService *files.Service, pool *worker.Pool, db *sql.DB, cache *redis.Client, fileBase string, fileTTL time.Duration) *Handler {
	if pool == nil {
		pool = worker.NewPool(4, 0)
	}
	if fileBase == "" {
		fileBase = "./data/uploads"
	}
	if fileTTL <= 0 {
		fileTTL = files.DefaultStoredFileTTL
	}
	return &Handler{
		completer: completer,
		auth:      authService,
		files:     fileService,
		pool:      pool,
		db:        db,
		cache:     cache,
		fileBase:  fileBase,
		fileTTL:   fileTTL,
	}
}

// RegisterRoutes attaches all HTTP routes to the router. The chat route is
// registered under both spellings because the first UI generation called
// /CHAT while the relay served /chat.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.liveness)
	router.POST("/ping", h.ping)
	router.POST("/token", h.issueToken)

	authMW := h.auth.Middleware()
	router.POST("/chat", authMW, h.chat)
	router.POST("/CHAT", authMW, h.chat)
	router.POST("/uploads", authMW, h.uploadFile)
}

func (h *Handler) liveness(c *gin.Context) {
	c.String(http.StatusOK, "kaichat relay is up. POST /chat")
}

// ping keeps the completion path warm; the response body is ignored by the
// client.
func (h *Handler) ping(c *gin.Context) {
	if h.cache != nil {
		if err := h.cache.Set(c.Request.Context(), warmStateKey, time.Now().UTC().Format(time.RFC3339), warmStateTTL); err != nil {
			log.Printf("mark warm state failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "warm"})
}

type tokenRequest struct {
	SecretWord string `json:"secretWord"`
}

func (h *Handler) issueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	creds, err := h.auth.VerifySecret(c.Request.Context(), req.SecretWord, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTooManyAttempts):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, please retry later"})
		case errors.Is(err, auth.ErrInvalidSecret):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userToken": creds.UserToken,
		"apiToken":  creds.APIToken,
	})
}

type chatRequest struct {
	Messages []models.ChatMessage `json:"messages"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}

	if err := h.pool.Acquire(c.Request.Context()); err != nil {
		if errors.Is(err, worker.ErrBusy) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "server is busy, please retry"})
			return
		}
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	defer h.pool.Release()

	ctx, cancel := context.WithTimeout(c.Request.Context(), chatTimeout)
	defer cancel()

	reply, err := h.completer.Complete(ctx, req.Messages)
	if err != nil {
		// plain-text body on internal failure, matching what clients expect
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	h.recordExchange(req.Messages, reply)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// recordExchange logs the round trip to the store; failures never affect the
// response.
func (h *Handler) recordExchange(messages []models.ChatMessage, reply string) {
	if h.db == nil {
		return
	}
	prompt := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			prompt = messages[i].Content
			break
		}
	}
	if _, err := h.db.Exec(
		`INSERT INTO exchanges (model, prompt, reply, turns, created_at) VALUES (?, ?, ?, ?, ?)`,
		h.completer.ModelName(), prompt, reply, len(messages), time.Now().UTC(),
	); err != nil {
		log.Printf("record exchange failed: %v", err)
	}
}

func isAllowedContentType(ct string) bool {
	for _, allowed := range allowedContentTypes {
		if strings.HasPrefix(ct, allowed) {
			return true
		}
	}
	return false
}

func (h *Handler) uploadFile(c *gin.Context) {
	if h.files == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "uploads not enabled"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	usage, err := h.files.StorageUsage(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "calculate usage failed"})
		return
	}
	if usage+fileHeader.Size > storageLimit {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "storage quota exceeded"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	_ = f.Close()
	contentType := http.DetectContentType(buf[:n])
	if !isAllowedContentType(contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}

	filename := filepath.Base(fileHeader.Filename)
	destDir, destPath, finalName := h.uniqueFilePath(filename)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create directory failed"})
		return
	}
	if err := c.SaveUploadedFile(fileHeader, destPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}
	fileID, err := h.files.RecordFile(c.Request.Context(), finalName, destPath, contentType, fileHeader.Size, h.fileTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record file failed"})
		return
	}

	go h.summarizeStoredFile(fileID, finalName, destPath)

	c.JSON(http.StatusCreated, gin.H{
		"file_id":   fileID,
		"file_name": finalName,
		"size":      fileHeader.Size,
		"mime":      contentType,
		"used":      usage + fileHeader.Size,
		"limit":     storageLimit,
	})
}

// summarizeStoredFile extracts text and stores a generated summary. Runs
// detached; failures are logged only.
func (h *Handler) summarizeStoredFile(fileID int64, name, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
	defer cancel()

	text, err := h.files.ExtractText(ctx, path)
	if err != nil {
		log.Printf("extract text for %s failed: %v", name, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	summary, err := h.completer.Summarize(ctx, name, text)
	if err != nil {
		log.Printf("summarize %s failed: %v", name, err)
		return
	}
	if err := h.files.SetSummary(ctx, fileID, summary); err != nil {
		log.Printf("store summary for %s failed: %v", name, err)
	}
}

func (h *Handler) uniqueFilePath(filename string) (string, string, string) {
	destDir := h.fileBase
	destPath := filepath.Join(destDir, filename)
	if _, err := os.Stat(destPath); os.IsNotExist(err) {
		return destDir, destPath, filename
	}
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for idx := 1; idx <= 1000; idx++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, idx, ext)
		path := filepath.Join(destDir, candidate)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return destDir, path, candidate
		}
	}
	fallback := fmt.Sprintf("%s-%d%s", base, time.Now().UnixNano(), ext)
	return destDir, filepath.Join(destDir, fallback), fallback
}
