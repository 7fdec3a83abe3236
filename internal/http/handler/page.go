package handler

import (
	"github.com/gofiber/fiber/v2"

	"printdesk/internal/web"
)

// PrintPage renders the page that redeems the print link in :fileId.
// The id is not checked here; the page's API call rejects bad ids.
func PrintPage(page *web.Page) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		c.Set(fiber.HeaderCacheControl, "no-store")
		c.Set(fiber.HeaderXFrameOptions, "DENY")
		c.Set("Referrer-Policy", "no-referrer")
		return page.Render(c.Response().BodyWriter(), c.Params("fileId"))
	}
}

// RedirectTo sends the client to path with 302 Found.
func RedirectTo(path string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Redirect(path, fiber.StatusFound)
	}
}
