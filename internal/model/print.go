package model

import "time"

// PrintLink is a one-time grant to print a single document.
// Its ID is the fileId carried in the print page URL.
type PrintLink struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the link is past its expiry at now.
func (l *PrintLink) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// DocumentReference is what a redeemed print link resolves to.
type DocumentReference struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}
