package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocument_DisplayName(t *testing.T) {
	d := &Document{Filename: "b7c1.pdf"}
	assert.Equal(t, "b7c1.pdf", d.DisplayName())

	d.OriginalName = "invoice.pdf"
	assert.Equal(t, "invoice.pdf", d.DisplayName())
}

func TestDocument_IsPDF(t *testing.T) {
	assert.True(t, (&Document{ContentType: PDFContentType}).IsPDF())
	assert.False(t, (&Document{ContentType: "image/png"}).IsPDF())
}

func TestPrintLink_Expired(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l := &PrintLink{ExpiresAt: now}

	assert.True(t, l.Expired(now))
	assert.True(t, l.Expired(now.Add(time.Second)))
	assert.False(t, l.Expired(now.Add(-time.Second)))
}
