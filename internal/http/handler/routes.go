package handler

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/swagger"

	_ "printdesk/docs"
	"printdesk/internal/http/middleware"
	"printdesk/internal/service"
	"printdesk/internal/web"
)

const (
	apiPrefix    = "/api/v1"
	staticPrefix = "/static"
)

// Deps are the collaborators the routes need. Nil health dependencies are skipped.
type Deps struct {
	DB            Pinger
	Links         Pinger
	Tokens        middleware.TokenValidator
	Documents     service.DocumentService
	Prints        service.PrintService
	DashboardPath string
}

// PrintAPIPath is the prefix the print page fetches a file id from.
func PrintAPIPath() string {
	return apiPrefix + "/print/"
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) error {
	page, err := web.NewPage(web.PageConfig{
		APIPath:       PrintAPIPath(),
		DashboardPath: d.DashboardPath,
		StaticPath:    staticPrefix,
	})
	if err != nil {
		return err
	}

	app.Get("/health", HealthCheck(d.DB, d.Links))
	app.Get("/healthz", LivenessProbe())
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Use(staticPrefix, filesystem.New(filesystem.Config{
		Root:   http.FS(web.Static()),
		MaxAge: 300,
	}))

	// A print page without a file id has nothing to redeem.
	app.Get("/print", RedirectTo(d.DashboardPath))
	app.Get(PrintPagePath, RedirectTo(d.DashboardPath))
	app.Get(PrintPagePath+":fileId", PrintPage(page))

	api := app.Group(apiPrefix)

	printAPI := api.Group("/print", middleware.Auth(d.Tokens, PrintUnauthorized))
	printAPI.Get("/:fileId", RedeemPrintLink(d.Prints))

	documents := api.Group("/documents", middleware.Auth(d.Tokens, Unauthorized))
	documents.Get("/", ListDocuments(d.Documents))
	documents.Post("/", UploadDocument(d.Documents))
	documents.Get("/:id", GetDocument(d.Documents))
	documents.Delete("/:id", DeleteDocument(d.Documents))
	documents.Post("/:id/print-links", IssuePrintLink(d.Prints))

	return nil
}
