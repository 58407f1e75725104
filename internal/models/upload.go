package models

import "time"

// UploadStatus tracks the lifecycle of a client-side upload entry.
// StatusError is declared for completeness; the simulated queue never
// produces it.
type UploadStatus string

const (
	UploadQueued    UploadStatus = "queued"
	UploadUploading UploadStatus = "uploading"
	UploadUploaded  UploadStatus = "uploaded"
	UploadError     UploadStatus = "error"
)

// UploadItem is one file in the client upload panel.
type UploadItem struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Size   int64        `json:"size"`
	Status UploadStatus `json:"status"`
}

// StoredFile represents a document the relay accepted and keeps on disk
// until it expires.
type StoredFile struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file_name"`
	StoredPath string    `json:"stored_path"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
