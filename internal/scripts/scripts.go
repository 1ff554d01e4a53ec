// Package scripts stores uploaded screenplays. Each script is a blob in
// storage plus a row recording its detected format and review status.
package scripts

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/slate/internal/script"
)

// Status tracks a script through analysis and review.
type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusReview   Status = "review"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusReview, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// Script is a registered screenplay and its blob reference.
type Script struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Format      script.Format `json:"format"`
	SizeBytes   int64         `json:"size_bytes"`
	PageCount   *int          `json:"page_count"`
	StorageKey  string        `json:"storage_key"`
	Status      Status        `json:"status"`
	UploadedAt  time.Time     `json:"uploaded_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CreateCommand carries an uploaded file. Title defaults to the filename
// without its extension. PageCount is only known for PDFs.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	Title       string
	PageCount   *int
}
