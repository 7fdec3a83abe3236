package web

import (
	"bytes"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPage(t *testing.T) *Page {
	t.Helper()
	p, err := NewPage(PageConfig{
		APIPath:       "/api/v1/print/",
		DashboardPath: "/dashboard",
		StaticPath:    "/static/",
	})
	require.NoError(t, err)
	return p
}

func TestPage_Render(t *testing.T) {
	p := newTestPage(t)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, "6f1c2e0a-8d7b-4a55-9a43-2b9e51c0f0aa"))
	html := buf.String()

	assert.Contains(t, html, `data-file-id="6f1c2e0a-8d7b-4a55-9a43-2b9e51c0f0aa"`)
	assert.Contains(t, html, `data-api-path="/api/v1/print/"`)
	assert.Contains(t, html, `data-dashboard-path="/dashboard"`)
	assert.Contains(t, html, `src="/static/print.js"`)
	assert.Contains(t, html, `href="/static/print.css"`)
	assert.Contains(t, html, "one-time print access")
}

func TestPage_RenderEscapesFileID(t *testing.T) {
	p := newTestPage(t)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, `"><script>alert(1)</script>`))

	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestStatic(t *testing.T) {
	assets := Static()

	for _, name := range []string{"print.js", "print.css"} {
		b, err := fs.ReadFile(assets, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, b, name)
	}
}
