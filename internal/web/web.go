// Package web holds the print page: its HTML template and the static
// script and stylesheet, all embedded in the binary.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
)

var (
	//go:embed templates/print.html
	templates embed.FS

	//go:embed static
	static embed.FS
)

// PageConfig holds the paths the page script talks to.
type PageConfig struct {
	// APIPath is the redeem endpoint prefix; the file id is appended to it.
	APIPath string
	// DashboardPath is where the page sends the user when it is done.
	DashboardPath string
	// StaticPath is the URL prefix under which Static is served.
	StaticPath string
}

type pageData struct {
	FileID        string
	APIPath       string
	DashboardPath string
	StaticPath    string
}

// Page renders the print page.
type Page struct {
	tmpl *template.Template
	cfg  PageConfig
}

// NewPage parses the embedded template.
func NewPage(cfg PageConfig) (*Page, error) {
	tmpl, err := template.ParseFS(templates, "templates/print.html")
	if err != nil {
		return nil, fmt.Errorf("parse print template: %w", err)
	}
	cfg.StaticPath = strings.TrimSuffix(cfg.StaticPath, "/")
	return &Page{tmpl: tmpl, cfg: cfg}, nil
}

// Render writes the page for fileID to w. fileID is escaped, never trusted.
func (p *Page) Render(w io.Writer, fileID string) error {
	return p.tmpl.Execute(w, pageData{
		FileID:        fileID,
		APIPath:       p.cfg.APIPath,
		DashboardPath: p.cfg.DashboardPath,
		StaticPath:    p.cfg.StaticPath,
	})
}

// Static returns the page assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// static is embedded at build time.
		panic(err)
	}
	return sub
}
