package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"kaichat/internal/models"
)

// FileInfo describes one file picked for upload.
type FileInfo struct {
	Name string
	Size int64
}

// EnqueueUploads simulates transferring a batch of files. The whole batch
// shares one fixed latency, every item lands in the uploaded state, the
// batch is prepended so the newest files show first, and a single summary
// message with the file count is appended to the conversation. An empty
// batch is a no-op. EnqueueUploads blocks for the simulated latency.
func (s *Session) EnqueueUploads(batch []FileInfo) {
	if len(batch) == 0 {
		return
	}

	items := make([]models.UploadItem, len(batch))
	for i, f := range batch {
		items[i] = models.UploadItem{
			ID:     uuid.NewString(),
			Name:   f.Name,
			Size:   f.Size,
			Status: models.UploadUploading,
		}
	}

	s.mu.Lock()
	s.uploading = true
	s.mu.Unlock()

	if s.uploadDelay > 0 {
		time.Sleep(s.uploadDelay)
	}

	s.mu.Lock()
	for i := range items {
		items[i].Status = models.UploadUploaded
	}
	s.uploads = append(items, s.uploads...)
	s.uploading = false
	s.store.Append(models.RoleAssistant, fmt.Sprintf("(Mock) %d file(s) sent to the upload bucket.", len(items)))
	s.mu.Unlock()
}
