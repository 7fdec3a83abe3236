package model

import "time"

// Document represents a stored file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	StoragePath  string    `json:"storage_path"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	PageCount    int       `json:"page_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName is the name shown to users; it falls back to the storage name
// for rows written before original names were recorded.
func (d *Document) DisplayName() string {
	if d.OriginalName != "" {
		return d.OriginalName
	}
	return d.Filename
}

// PDFContentType is the media type uploads are validated and page-counted for.
const PDFContentType = "application/pdf"

// IsPDF reports whether the document is a PDF file.
func (d *Document) IsPDF() bool {
	return d.ContentType == PDFContentType
}
