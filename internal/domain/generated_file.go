package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RetentionPeriod is how long a generated file stays downloadable.
const RetentionPeriod = 7 * 24 * time.Hour

// GeneratedFile is one artifact produced by the generation service.
// Records are created once and never mutated; an external reaper removes
// them after ExpiresOn.
type GeneratedFile struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ChatID      string    `json:"chat_id" db:"chat_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	FileName    string    `json:"file_name" db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	Content     []byte    `json:"-" db:"content"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	CreatedOn   time.Time `json:"created_on" db:"created_on"`
	ExpiresOn   time.Time `json:"expires_on" db:"expires_on"`
}

// Expired reports whether the file is past its retention window.
func (f *GeneratedFile) Expired(now time.Time) bool {
	return now.After(f.ExpiresOn)
}

// contentTypes maps a lower-case file extension (without the dot) to its MIME type.
var contentTypes = map[string]string{
	"md":   "text/markdown",
	"txt":  "text/plain",
	"html": "text/html",
	"json": "application/json",
	"xml":  "application/xml",
	"csv":  "text/csv",
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"doc":  "application/msword",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xls":  "application/vnd.ms-excel",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"ppt":  "application/vnd.ms-powerpoint",
	"zip":  "application/zip",
}

// ContentTypeForExtension returns the MIME type for a file extension.
// The extension may be passed with or without a leading dot. Unknown
// extensions map to application/octet-stream.
func ContentTypeForExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
